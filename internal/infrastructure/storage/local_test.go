package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photogallery/internal/config"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()
	s, err := NewLocalStorage(&config.StorageConfig{LocalPath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalSaveAndGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a.jpg", strings.NewReader("payload")))

	file, err := s.Get(ctx, "a.jpg")
	require.NoError(t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalSaveIsWriteOnce(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a.jpg", strings.NewReader("first")))

	err := s.Save(ctx, "a.jpg", strings.NewReader("second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrObjectExists)
}

func TestLocalGetMissing(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Get(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalDeleteTolerantOfMissing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a.jpg", strings.NewReader("x")))
	require.NoError(t, s.Delete(ctx, "a.jpg"))

	_, err := s.Get(ctx, "a.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// Deleting again is not an error.
	assert.NoError(t, s.Delete(ctx, "a.jpg"))
}
