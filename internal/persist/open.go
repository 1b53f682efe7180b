package persist

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Backend names a KV implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendGCS      Backend = "gcs"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendFile, BackendSQLite, BackendPostgres, BackendGCS}
}

// IsValid reports whether b is a supported backend.
func (b Backend) IsValid() bool {
	for _, known := range Backends() {
		if b == known {
			return true
		}
	}
	return false
}

// Options selects and configures a backend.
type Options struct {
	Backend         Backend
	Dir             string
	SQLitePath      string
	PostgresDSN     string
	GCSBucket       string
	GCSPrefix       string
	CredentialsFile string
}

// Open creates the KV described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(opts.Dir)
	case BackendSQLite:
		return OpenSQLite(opts.SQLitePath)
	case BackendPostgres:
		return OpenPostgres(opts.PostgresDSN)
	case BackendGCS:
		client, err := NewStorageClient(ctx, opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return NewGCS(client, opts.GCSBucket, opts.GCSPrefix), nil
	default:
		return nil, fmt.Errorf("Open: unsupported backend %q", opts.Backend)
	}
}

// NewStorageClient creates a Cloud Storage client, from a service account
// file when one is given and from application default credentials
// otherwise.
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStorageClient: %w", err)
	}
	return client, nil
}
