// Package storage keeps generated artifacts such as invoice PDFs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no artifact exists under a key.
var ErrNotFound = errors.New("storage: not found")

// Store saves and loads artifacts by slash-separated relative key,
// e.g. "invoices/facture_41_2024.pdf".
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
}

// LocalStorage stores artifacts below a base directory on disk.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// path resolves key below the base directory, refusing keys that escape it.
func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Put writes data through a temporary file renamed into place, so readers
// never observe a partial artifact.
func (s *LocalStorage) Put(_ context.Context, key string, data []byte) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func (s *LocalStorage) Get(_ context.Context, key string) ([]byte, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) bool {
	full, err := s.path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}
