package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"challenge-league/pkg/logger"
)

// DiskPhotoStore removes submission images stored under a local root
// directory. Image keys are relative paths issued at upload time.
type DiskPhotoStore struct {
	root   string
	logger *logger.Logger
}

// NewDiskPhotoStore creates a disk-backed PhotoStore.
func NewDiskPhotoStore(root string, logger *logger.Logger) *DiskPhotoStore {
	return &DiskPhotoStore{root: root, logger: logger}
}

// Remove deletes the image file for the given key. A missing file is
// not an error; cleanup retries after partial failures.
func (s *DiskPhotoStore) Remove(ctx context.Context, key string) error {
	if strings.Contains(key, "..") || filepath.IsAbs(key) {
		return fmt.Errorf("invalid image key: %s", key)
	}
	path := filepath.Join(s.root, filepath.Clean(key))

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo %s: %w", key, err)
	}

	s.logger.WithField("key", key).Debug("Photo removed")
	return nil
}
