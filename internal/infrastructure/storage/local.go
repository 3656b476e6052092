package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/config"
)

type localStorage struct {
	basePath   string
	galleryDir string
}

func NewLocalStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	if cfg.GalleryDir == "" {
		cfg.GalleryDir = "gallery"
	}

	s := &localStorage{
		basePath:   cfg.LocalPath,
		galleryDir: cfg.GalleryDir,
	}

	if err := os.MkdirAll(filepath.Join(s.basePath, s.galleryDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create gallery directory: %w", err)
	}

	return s, nil
}

func (s *localStorage) Save(ctx context.Context, filename string, reader io.Reader) error {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return fmt.Errorf("reader is nil")
	}

	fullPath := filepath.Join(s.basePath, s.galleryDir, filename)

	// Write-once: addressed names must not be silently overwritten.
	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			zlog.Logger.Error().Str("path", fullPath).Msg("file already exists")
			return fmt.Errorf("%w: %s", ErrObjectExists, filename)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return fmt.Errorf("create file %s: %w", fullPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return fmt.Errorf("write file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().
		Str("filename", filename).
		Int64("bytes", written).
		Msg("file saved successfully")

	return nil
}

func (s *localStorage) Get(ctx context.Context, filename string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, s.galleryDir, filename)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Error().Str("path", fullPath).Msg("file not found")
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, filename)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}

	return file, nil
}

func (s *localStorage) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}

	fullPath := filepath.Join(s.basePath, s.galleryDir, filename)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("file not found, skipping delete")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("filename", filename).Msg("file deleted successfully")
	return nil
}
