// Package storage persists rendered answer artifacts (Markdown and
// DOCX renderings of an AnswerContract) behind a small backend-agnostic
// interface, adapted from the teacher's upload-storage package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage persists and retrieves rendered answer artifacts by a
// storage path returned from Upload.
type Storage interface {
	// Upload stores an artifact rendered for an answer and returns its
	// storage path.
	Upload(ctx context.Context, answerID uuid.UUID, name string, data io.Reader) (string, error)

	// Download retrieves an artifact by storage path.
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an artifact by storage path.
	Delete(ctx context.Context, storagePath string) error
}

// Backend selects the storage implementation.
type Backend string

const (
	BackendLocal Backend = "local"
	BackendS3    Backend = "s3"
)

// Config holds the settings needed to construct either backend.
type Config struct {
	Backend      Backend
	LocalPath    string // BackendLocal
	S3Bucket     string // BackendS3
	S3Region     string // BackendS3
	AWSAccessKey string
	AWSSecretKey string
}

// New constructs a Storage for the configured backend.
func New(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStorage(cfg.LocalPath)
	case BackendS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewStorageFromEnv constructs a Storage from STORAGE_TYPE (default
// "local") and its backend-specific environment variables, for
// persisting answer artifacts alongside the Answer API.
func NewStorageFromEnv() (Storage, error) {
	backend := os.Getenv("STORAGE_TYPE")
	if backend == "" {
		backend = string(BackendLocal)
	}

	cfg := Config{Backend: Backend(backend)}

	switch Backend(backend) {
	case BackendLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/answers"
		}
		cfg.LocalPath = localPath
		return NewLocalStorage(cfg.LocalPath)

	case BackendS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for the s3 storage backend")
		}
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// generateArtifactPath builds a storage-path for one answer's rendered
// artifact, sharded by the first two hex digits of the answer ID to
// keep any one directory from growing unbounded.
func generateArtifactPath(answerID uuid.UUID, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.ReplaceAll(base, "/", "_")
	base = strings.ReplaceAll(base, "\\", "_")

	return fmt.Sprintf("%s/%s_%s%s", answerID.String()[:2], answerID.String(), base, ext)
}
