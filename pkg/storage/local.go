package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Local stores previews on disk under baseDir/webinars. Used when S3 is not configured.
type Local struct {
	baseDir string
	baseURL string
	logger  *zap.Logger
}

// NewLocal creates a disk-backed preview store. baseURL prefixes the stored filename in links.
func NewLocal(baseDir, baseURL string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{baseDir: baseDir, baseURL: baseURL, logger: logger}
}

func (l *Local) path(filename string) string {
	return filepath.Join(l.baseDir, FolderPreviews, filepath.Base(filename))
}

// Store writes the preview under a generated name and returns that name.
func (l *Local) Store(ctx context.Context, originalName, contentType string, body io.Reader, size int64) (string, error) {
	filename := NewPreviewFilename(originalName)
	target := l.path(filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create preview file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close preview file: %w", err)
	}
	l.logger.Info("preview stored", zap.String("path", target))
	return filename, nil
}

// Delete removes a stored preview. Deleting a missing file is not an error.
func (l *Local) Delete(ctx context.Context, filename string) error {
	target := l.path(filename)
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete preview file: %w", err)
	}
	l.logger.Info("preview deleted", zap.String("path", target))
	return nil
}

// URL returns the link of a stored preview.
func (l *Local) URL(filename string) string {
	if l.baseURL == "" {
		return "/" + PreviewKey(filename)
	}
	return strings.TrimRight(l.baseURL, "/") + "/" + filepath.Base(filename)
}
