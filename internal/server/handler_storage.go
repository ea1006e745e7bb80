package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/DatServe/internal/filestore"
)

// handleListBuckets returns the buckets visible with the configured
// storage credentials.
func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.store.ListBuckets(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if buckets == nil {
		buckets = []filestore.BucketInfo{}
	}
	s.respondData(w, http.StatusOK, buckets)
}

// handleListObjects returns an object inventory page for one bucket.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	q := r.URL.Query()

	opts := filestore.ListOptions{
		Prefix:    q.Get("prefix"),
		Recursive: q.Get("recursive") == "true",
		Limit:     queryInt(r, "limit", 0),
		Marker:    q.Get("marker"),
	}

	objects, err := s.store.ListObjects(r.Context(), bucket, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if objects == nil {
		objects = []filestore.ObjectInfo{}
	}
	s.respondData(w, http.StatusOK, objects)
}
