package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
	"photogallery/internal/renditions"
	"photogallery/internal/vision"
)

func newTestPipeline(repo *fakeRepo, store *memStore, captions domain.CaptionService) (*Pipeline, *capturePublisher) {
	publisher := &capturePublisher{}
	p := NewPipeline(
		Config{},
		repo,
		store,
		captions,
		&stubExtractor{},
		renditions.New(renditions.Config{}),
		publisher,
	)
	return p, publisher
}

func happyCaptioner() *stubCaptioner {
	return &stubCaptioner{
		enrichment: domain.EnrichmentMetadata{
			Title:    "Sunset at the Pier",
			Caption:  "Golden light over still water",
			Tags:     []string{"sunset", "pier"},
			Category: "landscape",
		},
	}
}

func TestIngestSuccess(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	p, publisher := newTestPipeline(repo, store, happyCaptioner())

	data := encodeTestImage(t, 3000, 2000, "jpeg")
	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "IMG_5512.jpg",
		ContentType: "image/jpeg",
		Data:        data,
	})

	require.Nil(t, ingErr)
	require.NotNil(t, result)
	assert.Empty(t, result.Warnings)

	img := result.Image
	assert.NotZero(t, img.ID)
	assert.Equal(t, "sunset-at-the-pier", img.Slug)
	assert.Equal(t, "IMG_5512.jpg", img.OriginalFilename)
	assert.Equal(t, int64(len(data)), img.FileSize)

	require.Len(t, img.Renditions, 3)
	dims := map[domain.SizeClass][2]int{}
	for _, v := range img.Renditions {
		dims[v.Size] = [2]int{v.Width, v.Height}
	}
	assert.Equal(t, [2]int{1200, 800}, dims[domain.SizeLarge])
	assert.Equal(t, [2]int{800, 533}, dims[domain.SizeMedium])
	assert.Equal(t, [2]int{400, 267}, dims[domain.SizeThumbnail])

	// original + three renditions on disk
	assert.Equal(t, 4, store.count())
	assert.True(t, store.has(img.Filename))
	for _, v := range img.Renditions {
		assert.True(t, store.has(v.Filename), "missing rendition file %s", v.Filename)
	}

	require.Len(t, publisher.events, 1)
	assert.Equal(t, img.ID, publisher.events[0].ImageID)
	assert.Equal(t, 3, publisher.events[0].Renditions)
}

func TestIngestCaptionFailureDegrades(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	captions := &stubCaptioner{
		err:      apperr.InvalidAPIKey(),
		fallback: func(filename string) domain.EnrichmentMetadata { return vision.Fallback(filename) },
	}
	p, _ := newTestPipeline(repo, store, captions)

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "beach_walk.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 1500, 1000, "jpeg"),
	})

	require.Nil(t, ingErr)
	require.NotNil(t, result)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, apperr.CodeAuthInvalidKey, result.Warnings[0].Code)

	// Fallback metadata derives from the original filename, not the
	// content-addressed stored name.
	assert.Equal(t, "Beach Walk", result.Image.Enrichment.Title)
	assert.Equal(t, "uncategorized", result.Image.Enrichment.Category)
	assert.Equal(t, "beach-walk", result.Image.Slug)
}

func TestIngestRejectsOversizedUpload(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	p, _ := newTestPipeline(repo, store, happyCaptioner())
	p.cfg.MaxUploadBytes = 100

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "huge.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 200, 200, "jpeg"),
	})

	require.Nil(t, result)
	require.NotNil(t, ingErr)
	assert.Equal(t, apperr.CodeValidationFileTooLarge, ingErr.Code)
	assert.Equal(t, 0, store.count())
}

func TestIngestRejectsDisallowedType(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "scan.tiff",
		ContentType: "image/tiff",
		Data:        []byte("irrelevant"),
	})

	require.Nil(t, result)
	require.NotNil(t, ingErr)
	assert.Equal(t, apperr.CodeValidationInvalidType, ingErr.Code)
	assert.Equal(t, 0, store.count())
}

func TestIngestRollsBackOnCorruptImage(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "broken.jpg",
		ContentType: "image/jpeg",
		Data:        []byte("not actually a jpeg"),
	})

	require.Nil(t, result)
	require.NotNil(t, ingErr)
	assert.Equal(t, apperr.CodeValidationCorruptImage, ingErr.Code)
	assert.Equal(t, 0, store.count())
}

func TestIngestWarnsOnFormatMismatch(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 1500, 1000, "png"),
	})

	require.Nil(t, ingErr)
	require.NotNil(t, result)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, apperr.CodeFormatMismatch, result.Warnings[0].Code)
}

func TestIngestRollsBackOnPersistFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("connection refused")
	store := newMemStore()
	p, publisher := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 1500, 1000, "jpeg"),
	})

	require.Nil(t, result)
	require.NotNil(t, ingErr)
	assert.Equal(t, apperr.CodeDatabaseFailed, ingErr.Code)
	assert.Equal(t, 0, store.count())
	assert.Empty(t, publisher.events)
}

func TestIngestRetriesOnceOnSlugConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = domain.ErrSlugTaken
	repo.createFailures = 1
	store := newMemStore()
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 1500, 1000, "jpeg"),
	})

	require.Nil(t, ingErr)
	require.NotNil(t, result)
	assert.NotZero(t, result.Image.ID)
}

func TestIngestFailsWhenNoRenditionSurvives(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	// Small originals produce only a thumbnail; fail exactly that write.
	store.failContains = "_thumbnail"
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "tiny.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 300, 200, "jpeg"),
	})

	require.Nil(t, result)
	require.NotNil(t, ingErr)
	assert.Equal(t, apperr.CodeProcessingVariantFailed, ingErr.Code)
	assert.Equal(t, 0, store.count())
}

func TestIngestSkipsFailedRenditionWrite(t *testing.T) {
	repo := newFakeRepo()
	store := newMemStore()
	store.failContains = "_medium"
	p, _ := newTestPipeline(repo, store, happyCaptioner())

	result, ingErr := p.Ingest(context.Background(), 1, domain.UploadCandidate{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Data:        encodeTestImage(t, 1500, 1000, "jpeg"),
	})

	require.Nil(t, ingErr)
	require.NotNil(t, result)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, apperr.CodeProcessingVariantFailed, result.Warnings[0].Code)
	assert.Len(t, result.Image.Renditions, 2)
	_, ok := result.Image.RenditionFor(domain.SizeMedium)
	assert.False(t, ok)
}
