package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// TextFiles stores normalized-text files under a base directory. Files are
// UTF-8 with a trailing LF. The checker only reads them; writes happen at
// document and corpus registration time.
type TextFiles struct {
	dir    string
	logger *zap.Logger
}

func NewTextFiles(dir string, logger *zap.Logger) (*TextFiles, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create text dir %s: %w", dir, err)
	}
	return &TextFiles{dir: dir, logger: logger}, nil
}

// ReadText reads a normalized-text file.
func (t *TextFiles) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText writes text to a fresh file named after the owning entity and
// returns its path and size.
func (t *TextFiles) WriteText(kind string, ownerID int, text string) (string, int64, error) {
	name := fmt.Sprintf("%s_%d_%d.txt", kind, ownerID, time.Now().UnixNano())
	path := filepath.Join(t.dir, name)
	data := []byte(text + "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("write text file %s: %w", path, err)
	}
	return path, int64(len(data)), nil
}

// Remove deletes a text file. Used as a compensation step; missing files are
// not an error.
func (t *TextFiles) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
