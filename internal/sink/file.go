package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// File saves documents into a directory, one file per document.
type File struct {
	dir string
}

func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) Send(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return deviceErr("file", err)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return deviceErr("file", fmt.Errorf("create receipt dir: %w", err))
	}
	path := filepath.Join(f.dir, filepath.Base(doc.Name))
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return deviceErr("file", fmt.Errorf("write %s: %w", path, err))
	}
	return nil
}
