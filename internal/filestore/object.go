package filestore

import "time"

// BucketInfo describes a storage bucket / container.
type BucketInfo struct {
	// Name is the bucket name.
	Name string `json:"name"`

	// CreatedAt is when the bucket was created.
	// May be zero if the backend does not expose creation time.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "images/photo.jpg").
	Key string `json:"key"`

	// Size is the byte size of the object. -1 if unknown.
	Size int64 `json:"size"`

	// ContentType is the MIME type (e.g. "image/jpeg").
	ContentType string `json:"content_type,omitempty"`

	// ETag is the object's entity tag / hash, as returned by the backend.
	ETag string `json:"etag,omitempty"`

	// LastModified is when the object was last written.
	LastModified time.Time `json:"last_modified"`

	// IsDir is true when the entry represents a virtual directory
	// (prefix), not an actual stored object.
	IsDir bool `json:"is_dir,omitempty"`
}

// ListOptions controls how ListObjects filters and paginates results.
type ListOptions struct {
	// Prefix restricts results to objects whose key starts with this
	// string. Use "" to list everything in the bucket.
	Prefix string

	// Recursive, when true, lists all objects under the prefix without
	// grouping by virtual directories. When false (default), common
	// prefixes (virtual "folders") are returned as IsDir entries.
	Recursive bool

	// Limit caps the number of results returned. 0 means use the backend
	// default.
	Limit int

	// Marker is the pagination cursor — the last key seen in a previous
	// page. Pass "" to start from the beginning.
	Marker string
}
