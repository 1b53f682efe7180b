package export

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
)

// GCSDestination uploads the CSV to a Cloud Storage bucket under
// prefix/YYYY/MM/DD/<filename>.
type GCSDestination struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSDestination uses an existing storage client; the caller closes it.
func NewGCSDestination(client *storage.Client, bucket, prefix string) *GCSDestination {
	return &GCSDestination{client: client, bucket: bucket, prefix: prefix}
}

func (g *GCSDestination) Name() string { return "gcs" }

// Deliver uploads doc.CSV.
func (g *GCSDestination) Deliver(ctx context.Context, doc Document) error {
	objectName := path.Join(g.prefix, "exports", time.Now().Format("2006/01/02"), doc.Filename)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"
	w.ContentDisposition = fmt.Sprintf("attachment; filename=%q", doc.Filename)

	if _, err := w.Write(doc.CSV); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", g.bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", g.bucket, objectName, err)
	}
	return nil
}
