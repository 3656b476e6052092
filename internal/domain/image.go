package domain

import (
	"strconv"
	"strings"
	"time"
)

type SizeClass string

const (
	SizeThumbnail SizeClass = "thumbnail"
	SizeMedium    SizeClass = "medium"
	SizeLarge     SizeClass = "large"
)

// UploadCandidate is the transient input of one ingestion call. It is owned
// by that call and discarded when the pipeline returns.
type UploadCandidate struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DerivedMetadata holds camera and exposure fields read from the image file.
// Absence is a nil pointer, not an empty string, so callers never guess at
// sentinel values.
type DerivedMetadata struct {
	CameraMake   *string    `json:"camera_make"`
	CameraModel  *string    `json:"camera_model"`
	Lens         *string    `json:"lens"`
	FocalLength  *string    `json:"focal_length"`
	Aperture     *string    `json:"aperture"`
	ShutterSpeed *string    `json:"shutter_speed"`
	ISO          *int       `json:"iso"`
	DateTaken    *time.Time `json:"date_taken"`
	Location     *string    `json:"location"`
	Width        *int       `json:"width"`
	Height       *int       `json:"height"`
	AspectRatio  *float64   `json:"aspect_ratio"`
}

// CameraSummary renders "Make Model" for display, or "Unknown".
func (m DerivedMetadata) CameraSummary() string {
	parts := make([]string, 0, 2)
	if m.CameraMake != nil {
		parts = append(parts, *m.CameraMake)
	}
	if m.CameraModel != nil {
		parts = append(parts, *m.CameraModel)
	}
	if s := strings.TrimSpace(strings.Join(parts, " ")); s != "" {
		return s
	}
	return "Unknown"
}

// SettingsSummary renders "50mm f/1.8 1/250s ISO 100" for display, or "N/A".
func (m DerivedMetadata) SettingsSummary() string {
	parts := make([]string, 0, 4)
	for _, p := range []*string{m.FocalLength, m.Aperture, m.ShutterSpeed} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if m.ISO != nil {
		parts = append(parts, "ISO "+strconv.Itoa(*m.ISO))
	}
	if s := strings.TrimSpace(strings.Join(parts, " ")); s != "" {
		return s
	}
	return "N/A"
}

// EnrichmentMetadata holds AI-derived descriptive fields, or the
// filename-derived fallback when the caption service is degraded.
type EnrichmentMetadata struct {
	Title       string   `json:"title"`
	Caption     string   `json:"caption"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
}

// Rendition is one resized, re-encoded copy of an original image.
type Rendition struct {
	ID        int64     `json:"id"`
	ImageID   int64     `json:"image_id"`
	Format    string    `json:"format"`
	Size      SizeClass `json:"size"`
	Filename  string    `json:"filename"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageRecord is the persisted aggregate: one stored original plus its
// renditions. Rendition rows are owned and cascade on delete.
type ImageRecord struct {
	ID               int64              `json:"id"`
	UserID           int64              `json:"user_id"`
	Filename         string             `json:"filename"`
	Slug             string             `json:"slug"`
	OriginalFilename string             `json:"original_filename"`
	Enrichment       EnrichmentMetadata `json:"enrichment"`
	Metadata         DerivedMetadata    `json:"metadata"`
	FileSize         int64              `json:"file_size"`
	Published        bool               `json:"published"`
	Featured         bool               `json:"featured"`
	AvailableForSale bool               `json:"available_for_sale"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Renditions       []Rendition        `json:"renditions"`
}

// RenditionFor returns the rendition of the given size class, if present.
func (r *ImageRecord) RenditionFor(size SizeClass) (Rendition, bool) {
	for _, v := range r.Renditions {
		if v.Size == size {
			return v, true
		}
	}
	return Rendition{}, false
}
