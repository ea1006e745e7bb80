package filestore

import (
	"strings"

	"github.com/koustreak/DatServe/internal/errs"
)

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds the settings needed to connect to a storage backend. It is
// populated from the service configuration's storage section; when storage
// is disabled the Config is never built and no driver is constructed.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint is the host:port of the storage server, without a scheme.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string

	// DefaultBucket is an optional default bucket name.
	// Callers may override it per-request.
	DefaultBucket string
}

// Validate checks the fields every driver constructor relies on, naming
// all missing ones at once so a bad storage section fails startup with a
// complete message.
func (c Config) Validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if c.AccessKey == "" {
		missing = append(missing, "access_key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret_key")
	}
	if len(missing) > 0 {
		return errs.Newf(errs.ErrKindInvalidInput,
			"storage config missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
