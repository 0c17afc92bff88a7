package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStorage persists answer artifacts on the local filesystem, for
// development and single-node deployments.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage constructs a LocalStorage rooted at basePath,
// creating it if necessary.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Upload writes an artifact under basePath.
func (s *LocalStorage) Upload(ctx context.Context, answerID uuid.UUID, name string, data io.Reader) (string, error) {
	storagePath := generateArtifactPath(answerID, name)
	fullPath := filepath.Join(s.basePath, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return storagePath, nil
}

// Download opens an artifact previously written by Upload.
func (s *LocalStorage) Download(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, storagePath)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", storagePath)
		}
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return file, nil
}

// Delete removes an artifact, tolerating one that is already gone.
func (s *LocalStorage) Delete(ctx context.Context, storagePath string) error {
	fullPath := filepath.Join(s.basePath, storagePath)

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}
