package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-league/pkg/logger"
)

func TestDiskPhotoStore_Remove(t *testing.T) {
	root := t.TempDir()
	store := NewDiskPhotoStore(root, logger.NewNop())

	dir := filepath.Join(root, "10")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "alice.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))

	require.NoError(t, store.Remove(context.Background(), "10/alice.jpg"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDiskPhotoStore_MissingFileIsNotAnError(t *testing.T) {
	store := NewDiskPhotoStore(t.TempDir(), logger.NewNop())

	assert.NoError(t, store.Remove(context.Background(), "10/gone.jpg"))
}

func TestDiskPhotoStore_RejectsEscapingKeys(t *testing.T) {
	store := NewDiskPhotoStore(t.TempDir(), logger.NewNop())

	tests := []struct {
		name string
		key  string
	}{
		{"parent traversal", "../etc/passwd"},
		{"embedded traversal", "10/../../etc/passwd"},
		{"absolute path", "/etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.Remove(context.Background(), tt.key))
		})
	}
}
