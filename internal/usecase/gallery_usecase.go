package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/domain"
	"photogallery/internal/infrastructure/storage"
)

type GalleryUsecase struct {
	repo    domain.ImageRepository
	storage storage.Storage
}

func NewGalleryUsecase(repo domain.ImageRepository, storage storage.Storage) *GalleryUsecase {
	return &GalleryUsecase{
		repo:    repo,
		storage: storage,
	}
}

func (u *GalleryUsecase) GetImage(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	return u.repo.FindByID(ctx, id)
}

func (u *GalleryUsecase) ListImages(ctx context.Context, filter domain.ListFilter) ([]*domain.ImageRecord, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return u.repo.List(ctx, filter)
}

// GetImageFile streams the stored file for the requested size class.
// An empty sizeClass returns the original upload.
func (u *GalleryUsecase) GetImageFile(ctx context.Context, id int64, sizeClass string) (io.ReadCloser, string, error) {
	image, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	filename := image.Filename
	if sizeClass != "" && sizeClass != "original" {
		rendition, ok := image.RenditionFor(domain.SizeClass(sizeClass))
		if !ok {
			return nil, "", domain.ErrRenditionMissing
		}
		filename = rendition.Filename
	}

	file, err := u.storage.Get(ctx, filename)
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Str("filename", filename).Msg("failed to get image file")
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", domain.ErrImageNotFound
		}
		return nil, "", err
	}

	return file, filename, nil
}

func (u *GalleryUsecase) UpdateMetadata(ctx context.Context, id int64, update domain.MetadataUpdate) (*domain.ImageRecord, error) {
	if err := u.repo.UpdateMetadata(ctx, id, update); err != nil {
		return nil, err
	}
	return u.repo.FindByID(ctx, id)
}

func (u *GalleryUsecase) SetPublished(ctx context.Context, id int64, published bool) (*domain.ImageRecord, error) {
	if err := u.repo.SetPublished(ctx, id, published); err != nil {
		return nil, err
	}
	return u.repo.FindByID(ctx, id)
}

func (u *GalleryUsecase) SetFeatured(ctx context.Context, id int64, featured bool) (*domain.ImageRecord, error) {
	if err := u.repo.SetFeatured(ctx, id, featured); err != nil {
		return nil, err
	}
	return u.repo.FindByID(ctx, id)
}

// DeleteImage removes the database record first, then cleans up stored
// files best-effort. A leaked file is recoverable; a dangling record is not.
func (u *GalleryUsecase) DeleteImage(ctx context.Context, id int64) error {
	image, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		return err
	}

	if err := u.storage.Delete(ctx, image.Filename); err != nil {
		zlog.Logger.Warn().Err(err).Str("filename", image.Filename).Msg("failed to delete original file")
	}
	for _, v := range image.Renditions {
		if err := u.storage.Delete(ctx, v.Filename); err != nil {
			zlog.Logger.Warn().Err(err).Str("filename", v.Filename).Msg("failed to delete rendition file")
		}
	}

	zlog.Logger.Info().Int64("image_id", id).Msg("image deleted")
	return nil
}
