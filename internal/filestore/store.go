// Package filestore defines the unified interface for object storage
// backends. DatServe serves storage metadata (buckets, listings, object
// stats) alongside database reads; it never streams object content.
//
// Callers depend only on this package — never on a specific provider
// package. The concrete driver (internal/filestore/minio) is chosen at
// startup from the storage section of the service configuration.
package filestore

import "context"

// Store is the single interface all storage providers must implement.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// ListBuckets returns all buckets accessible with the configured
	// credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects returns the objects in bucket that match opts.
	// Virtual directory entries (common prefixes) are included when
	// opts.Recursive is false.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
