// Package storage keeps inspection evidence and rendered documents in blob
// storage.
//
// Implementations:
// - LocalStorage: a directory on the server (single-site deployments, tests)
// - R2Storage: Cloudflare R2 through the S3 API
//
// References handed out to reports are the storage keys themselves.
package storage

import (
	"context"
	"io"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage stores opaque objects by key.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists unless opts.Overwrite is
	// set and ErrTooLarge when data exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get opens the object at key. The caller must close the reader.
	// Returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns an address for the object. R2 hands out presigned URLs
	// valid for expires when no public URL is configured.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string
	MaxSize     int64 // 0 means unlimited
	Overwrite   bool
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// =============================================================================
// Configuration
// =============================================================================

// Provider names accepted in STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// LocalConfig configures LocalStorage.
type LocalConfig struct {
	// BasePath is the root directory, created when missing.
	BasePath string

	// BaseURL prefixes URL results, e.g. "http://localhost:8080/api/evidence".
	BaseURL string
}

// R2Config configures R2Storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL serves objects from a custom domain instead of presigned URLs.
	PublicURL string

	// Region defaults to "auto".
	Region string

	// Endpoint overrides the account endpoint (S3-compatible servers in tests).
	Endpoint string
}
