package ingest

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
	"photogallery/internal/helpers"
	"photogallery/internal/infrastructure/events"
	"photogallery/internal/infrastructure/storage"
	"photogallery/internal/renditions"
)

// EventPublisher is the post-commit notification boundary. Publish failures
// are logged and swallowed; they never affect the ingestion outcome.
type EventPublisher interface {
	PublishIngested(ctx context.Context, ev events.ImageIngested) error
}

type Config struct {
	MaxUploadBytes int64
	AllowedTypes   []string
	Style          domain.CaptionStyle
	CaptionTimeout time.Duration
}

// Pipeline is the ingestion orchestrator. One call turns an upload into a
// stored original, a persisted record, N renditions, and a (possibly empty)
// warning list. Fatal steps unwind with compensating deletes for anything
// already written; degradable steps report upward as warnings instead.
type Pipeline struct {
	cfg       Config
	repo      domain.ImageRepository
	store     storage.Storage
	captions  domain.CaptionService
	metadata  domain.MetadataService
	generator *renditions.Generator
	publisher EventPublisher
	now       func() time.Time
}

func NewPipeline(
	cfg Config,
	repo domain.ImageRepository,
	store storage.Storage,
	captions domain.CaptionService,
	metadata domain.MetadataService,
	generator *renditions.Generator,
	publisher EventPublisher,
) *Pipeline {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = []string{"image/jpeg", "image/jpg", "image/png"}
	}
	if cfg.Style == "" {
		cfg.Style = domain.StyleBalanced
	}
	if cfg.CaptionTimeout <= 0 {
		cfg.CaptionTimeout = 30 * time.Second
	}
	return &Pipeline{
		cfg:       cfg,
		repo:      repo,
		store:     store,
		captions:  captions,
		metadata:  metadata,
		generator: generator,
		publisher: publisher,
		now:       time.Now,
	}
}

func (p *Pipeline) Ingest(ctx context.Context, userID int64, upload domain.UploadCandidate) (*domain.IngestResult, *apperr.Error) {
	zlog.Logger.Info().
		Int64("user_id", userID).
		Str("filename", upload.Filename).
		Str("content_type", upload.ContentType).
		Int("bytes", len(upload.Data)).
		Msg("starting image ingestion")

	// Validation is the only step with no side effects to unwind.
	if !p.typeAllowed(upload.ContentType) {
		zlog.Logger.Warn().Str("content_type", upload.ContentType).Msg("rejected upload with invalid content type")
		return nil, apperr.InvalidFileType(upload.Filename, upload.ContentType, p.cfg.AllowedTypes)
	}
	if int64(len(upload.Data)) > p.cfg.MaxUploadBytes {
		zlog.Logger.Warn().Int("bytes", len(upload.Data)).Msg("rejected oversized upload")
		return nil, apperr.FileTooLarge(upload.Filename, int64(len(upload.Data)), p.cfg.MaxUploadBytes)
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	storedName := contentAddress(p.now(), upload.Data, ext)

	if err := p.store.Save(ctx, storedName, bytes.NewReader(upload.Data)); err != nil {
		zlog.Logger.Error().Err(err).Str("filename", storedName).Msg("failed to persist original")
		return nil, apperr.Internal(err)
	}

	var warnings []apperr.Warning

	detected, err := sniffFormat(upload.Data)
	if err != nil {
		// Unreadable bytes: the original is already on disk, roll it back.
		zlog.Logger.Error().Err(err).Str("filename", storedName).Msg("uploaded bytes are not a decodable image")
		p.compensate(ctx, storedName, nil)
		return nil, apperr.CorruptImage(upload.Filename, err)
	}
	if declared := normalizeContentType(upload.ContentType); declared != detected {
		zlog.Logger.Warn().
			Str("declared", declared).
			Str("detected", detected).
			Msg("declared content type does not match image bytes")
		warnings = append(warnings, apperr.FormatMismatch(declared, detected))
	}

	img, err := imaging.Decode(bytes.NewReader(upload.Data), imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", storedName).Msg("failed to decode image")
		p.compensate(ctx, storedName, nil)
		return nil, apperr.CorruptImage(upload.Filename, err)
	}

	// Metadata extraction and enrichment are independent of each other;
	// run them concurrently and join before touching renditions.
	var (
		meta       domain.DerivedMetadata
		enrichment domain.EnrichmentMetadata
		capErr     *apperr.Error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		meta = p.metadata.Extract(upload.Data)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, p.cfg.CaptionTimeout)
		defer cancel()
		enrichment, capErr = p.captions.Analyze(cctx, domain.CaptionRequest{
			Data:      upload.Data,
			MediaType: "image/" + detected,
			Filename:  upload.Filename,
			UserID:    userID,
			Style:     p.cfg.Style,
		})
	}()
	wg.Wait()

	if capErr != nil {
		zlog.Logger.Warn().
			Str("code", string(capErr.Code)).
			Str("filename", storedName).
			Msg("caption generation degraded to fallback")
		warnings = append(warnings, capErr.AsWarning())
	}

	stem := helpers.Stem(storedName)
	files, renditionWarnings := p.generator.Generate(img, stem)
	warnings = append(warnings, renditionWarnings...)

	var saved []renditions.File
	for _, f := range files {
		if err := p.store.Save(ctx, f.Filename, bytes.NewReader(f.Data)); err != nil {
			zlog.Logger.Warn().Err(err).Str("filename", f.Filename).Msg("failed to store rendition")
			warnings = append(warnings, apperr.RenditionSkipped(string(f.Size), err))
			continue
		}
		saved = append(saved, f)
	}

	if len(saved) == 0 {
		zlog.Logger.Error().Str("filename", storedName).Msg("no renditions were successfully generated")
		p.compensate(ctx, storedName, nil)
		return nil, apperr.RenditionFailed(upload.Filename)
	}

	record := &domain.ImageRecord{
		UserID:           userID,
		Filename:         storedName,
		OriginalFilename: upload.Filename,
		Enrichment:       enrichment,
		Metadata:         meta,
		FileSize:         int64(len(upload.Data)),
	}
	for _, f := range saved {
		record.Renditions = append(record.Renditions, domain.Rendition{
			Format:   f.Format,
			Size:     f.Size,
			Filename: f.Filename,
			Width:    f.Width,
			Height:   f.Height,
			FileSize: int64(len(f.Data)),
		})
	}

	if fatal := p.persist(ctx, record, upload.Filename); fatal != nil {
		p.compensate(ctx, storedName, saved)
		return nil, fatal
	}

	p.publish(ctx, record, len(warnings))

	zlog.Logger.Info().
		Int64("image_id", record.ID).
		Str("slug", record.Slug).
		Int("renditions", len(record.Renditions)).
		Int("warnings", len(warnings)).
		Msg("image ingested successfully")

	return &domain.IngestResult{Image: record, Warnings: warnings}, nil
}

// persist allocates the slug and commits the record. The unique constraint
// on (user_id, slug) is the authoritative guard against concurrent
// identical uploads; on a conflict the slug is re-allocated once and the
// insert retried once.
func (p *Pipeline) persist(ctx context.Context, record *domain.ImageRecord, originalFilename string) *apperr.Error {
	for attempt := 0; attempt < 2; attempt++ {
		slug, err := allocateSlug(ctx, p.repo, record.UserID, record.Enrichment.Title, originalFilename)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("slug allocation failed")
			return apperr.Database("slug_allocation", err)
		}
		record.Slug = slug

		err = p.repo.CreateWithRenditions(ctx, record)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrSlugTaken) && attempt == 0 {
			zlog.Logger.Warn().Str("slug", slug).Msg("slug conflict on insert, re-allocating once")
			continue
		}
		zlog.Logger.Error().Err(err).Str("slug", slug).Msg("failed to persist image record")
		return apperr.Database("image_insertion", err)
	}
	return apperr.Database("image_insertion", domain.ErrSlugTaken)
}

// compensate removes already-written files after a fatal step. It is
// best-effort: cleanup failures are logged, never surfaced, so they cannot
// mask the error that triggered the rollback.
func (p *Pipeline) compensate(ctx context.Context, storedName string, files []renditions.File) {
	if err := p.store.Delete(ctx, storedName); err != nil {
		zlog.Logger.Error().Err(err).Str("filename", storedName).Msg("compensating delete of original failed")
	}
	for _, f := range files {
		if err := p.store.Delete(ctx, f.Filename); err != nil {
			zlog.Logger.Error().Err(err).Str("filename", f.Filename).Msg("compensating delete of rendition failed")
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, record *domain.ImageRecord, warningCount int) {
	if p.publisher == nil {
		return
	}
	ev := events.ImageIngested{
		ImageID:    record.ID,
		UserID:     record.UserID,
		Slug:       record.Slug,
		Filename:   record.Filename,
		Renditions: len(record.Renditions),
		Warnings:   warningCount,
		OccurredAt: p.now(),
	}
	if err := p.publisher.PublishIngested(ctx, ev); err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", record.ID).Msg("failed to publish ingested event")
	}
}

func (p *Pipeline) typeAllowed(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range p.cfg.AllowedTypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
