package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMaxPreviewSize is the upload limit for preview images (5MB).
	DefaultMaxPreviewSize = 5 * 1024 * 1024
	// FolderPreviews is the key prefix for preview objects.
	FolderPreviews = "webinars"
)

// ErrEmptyPreview is returned for a zero-length upload.
var ErrEmptyPreview = errors.New("preview file is empty")

// Allowed preview MIME types and extensions.
var (
	AllowedPreviewTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	AllowedPreviewExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
	}
)

// ValidatePreview checks the size and type of an uploaded preview.
func ValidatePreview(contentType, filename string, size, maxSize int64) error {
	if size <= 0 {
		return ErrEmptyPreview
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxPreviewSize
	}
	if size > maxSize {
		return fmt.Errorf("preview file exceeds %d bytes", maxSize)
	}
	if _, ok := AllowedPreviewTypes[strings.ToLower(contentType)]; ok {
		return nil
	}
	if _, ok := AllowedPreviewExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return nil
	}
	return fmt.Errorf("unsupported preview type %q", contentType)
}

// ContentTypeForFilename returns the MIME type for a preview filename extension.
func ContentTypeForFilename(filename string) string {
	if ct, ok := AllowedPreviewExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NewPreviewFilename returns a random stored name keeping the extension of the original.
func NewPreviewFilename(original string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(path.Base(original)))
}

// PreviewKey returns the object key of a stored preview: webinars/{filename}.
func PreviewKey(filename string) string {
	return path.Join(FolderPreviews, path.Base(filename))
}

// Backend is a preview store.
type Backend interface {
	Store(ctx context.Context, originalName, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, filename string) error
	URL(filename string) string
}

// Open returns the S3 store when a bucket is configured and the local disk store otherwise.
func Open(ctx context.Context, s3cfg S3Config, localDir, baseURL string, logger *zap.Logger) (Backend, error) {
	if s3cfg.PreviewsBucket != "" {
		s3cfg.PublicBaseURL = baseURL
		return NewS3(ctx, s3cfg, logger)
	}
	if logger != nil {
		logger.Info("previews stored on local disk", zap.String("dir", localDir))
	}
	return NewLocal(localDir, baseURL, logger), nil
}
