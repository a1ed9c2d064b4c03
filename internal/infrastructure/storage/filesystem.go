package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/printnest/backend/internal/domain/shared"
)

// FileSystemStorage implements ObjectStorage on a local directory.
// Intended for single-node deployments and development; keys map to
// file paths under the base directory.
type FileSystemStorage struct {
	basePath string
	logger   *zap.Logger
}

var (
	_ ObjectStorage = (*FileSystemStorage)(nil)
	_ StaleSweeper  = (*FileSystemStorage)(nil)
)

// NewFileSystemStorage creates a filesystem-backed object store rooted
// at basePath, creating the directory if needed
func NewFileSystemStorage(basePath string, logger *zap.Logger) (*FileSystemStorage, error) {
	if basePath == "" {
		basePath = "/data/gangsheets"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStorage{basePath: basePath, logger: logger}, nil
}

// Upload implements ObjectStorage
func (s *FileSystemStorage) Upload(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	s.logger.Debug("object stored",
		zap.String("key", key),
		zap.Int("size", len(data)))
	return nil
}

// Download implements ObjectStorage
func (s *FileSystemStorage) Download(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// DeleteObject implements ObjectStorage
func (s *FileSystemStorage) DeleteObject(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted, not an error
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ObjectExists implements ObjectStorage
func (s *FileSystemStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// CleanupOlderThan removes files under prefix older than the specified
// duration and returns how many were deleted. The prefix keeps the sweep
// away from design images sharing the same base directory.
func (s *FileSystemStorage) CleanupOlderThan(ctx context.Context, prefix string, age time.Duration) (int, error) {
	root := s.basePath
	if prefix != "" {
		resolved, err := s.resolve(prefix)
		if err != nil {
			return 0, err
		}
		root = resolved
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	cutoff := time.Now().Add(-age)
	deleted := 0

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("deleted expired object", zap.String("path", path))
			}
		}
		return nil
	})

	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return deleted, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("storage cleanup completed",
		zap.String("prefix", prefix),
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// resolve maps a storage key to an absolute path under basePath,
// rejecting traversal attempts
func (s *FileSystemStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key is required")
	}
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleanKey) || containsDotDot(key) { // Check raw key for ".."
		s.logger.Warn("blocked potentially malicious key", zap.String("key", key))
		return "", fmt.Errorf("invalid storage key")
	}

	fullPath := filepath.Join(s.basePath, cleanKey)

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve object path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		s.logger.Warn("key escape attempt blocked", zap.String("key", key))
		return "", fmt.Errorf("invalid storage key")
	}
	return fullPath, nil
}

// containsDotDot checks if a key contains ".." components
func containsDotDot(key string) bool {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
