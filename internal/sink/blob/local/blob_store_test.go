package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/sismos/internal/sink/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNew_RejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(file)
	assert.Error(t, err)
}

func TestCreate_WritesOnce(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	path, err := store.Create(context.Background(), "a.json", "application/json", []byte(`{"v":1}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.json"), path)

	_, err = store.Create(context.Background(), "a.json", "application/json", []byte(`{"v":2}`))
	assert.ErrorIs(t, err, blob.ErrExist)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(data), "existing file must not be overwritten")
}

func TestCreate_RejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.json", "sub/dir.json", ""} {
		_, err := store.Create(context.Background(), name, "", []byte("x"))
		assert.Error(t, err, name)
	}
}
