package domain

import (
	"context"

	"photogallery/internal/apperr"
)

// CaptionStyle selects the voice of the generated enrichment metadata.
type CaptionStyle string

const (
	StyleTechnical   CaptionStyle = "technical"
	StyleArtistic    CaptionStyle = "artistic"
	StyleDocumentary CaptionStyle = "documentary"
	StyleBalanced    CaptionStyle = "balanced"
)

// CaptionRequest is the input of the caption service boundary.
type CaptionRequest struct {
	Data      []byte
	MediaType string
	Filename  string
	UserID    int64
	Style     CaptionStyle
}

// CaptionService generates enrichment metadata for an image. It never
// returns a zero EnrichmentMetadata: on any failure it returns the
// deterministic filename-derived fallback together with a typed error, so
// callers handle success and degradation uniformly.
type CaptionService interface {
	Analyze(ctx context.Context, req CaptionRequest) (EnrichmentMetadata, *apperr.Error)
}

// MetadataService extracts embedded metadata from image bytes. It degrades
// individual fields to nil rather than failing; by contract there is no
// error channel at all.
type MetadataService interface {
	Extract(data []byte) DerivedMetadata
}

// IngestResult is the successful outcome of one ingestion: the persisted
// record plus any non-fatal degradation warnings.
type IngestResult struct {
	Image    *ImageRecord
	Warnings []apperr.Warning
}

type IngestionService interface {
	Ingest(ctx context.Context, userID int64, upload UploadCandidate) (*IngestResult, *apperr.Error)
}
