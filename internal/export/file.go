package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileDestination writes the CSV into a local directory, the server-side
// equivalent of a browser download.
type FileDestination struct {
	Dir string
}

func (f FileDestination) Name() string { return "file" }

// Deliver writes doc.CSV to Dir/doc.Filename, replacing any previous export.
func (f FileDestination) Deliver(ctx context.Context, doc Document) error {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(f.Dir, doc.Filename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, doc.CSV, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
