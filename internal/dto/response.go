package dto

import (
	"time"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
)

type ExifSummary struct {
	Camera   string `json:"camera"`
	Settings string `json:"settings"`
}

type IngestResponse struct {
	Success           bool             `json:"success"`
	ImageID           int64            `json:"image_id"`
	Slug              string           `json:"slug"`
	Filename          string           `json:"filename"`
	Title             string           `json:"title"`
	Caption           string           `json:"caption"`
	Description       string           `json:"description"`
	Tags              []string         `json:"tags"`
	Category          string           `json:"category"`
	Width             *int             `json:"width"`
	Height            *int             `json:"height"`
	Exif              ExifSummary      `json:"exif"`
	VariantsGenerated int              `json:"variants_generated"`
	Warnings          []apperr.Warning `json:"warnings,omitempty"`
}

type RenditionResponse struct {
	Size     string `json:"size"`
	Format   string `json:"format"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

type ImageResponse struct {
	ID               int64               `json:"id"`
	UserID           int64               `json:"user_id"`
	Slug             string              `json:"slug"`
	Filename         string              `json:"filename"`
	OriginalFilename string              `json:"original_filename"`
	Title            string              `json:"title"`
	Caption          string              `json:"caption"`
	Description      string              `json:"description"`
	Tags             []string            `json:"tags"`
	Category         string              `json:"category"`
	Width            *int                `json:"width"`
	Height           *int                `json:"height"`
	AspectRatio      *float64            `json:"aspect_ratio"`
	Exif             ExifSummary         `json:"exif"`
	DateTaken        *time.Time          `json:"date_taken,omitempty"`
	Location         *string             `json:"location,omitempty"`
	FileSize         int64               `json:"file_size"`
	Published        bool                `json:"published"`
	Featured         bool                `json:"featured"`
	AvailableForSale bool                `json:"available_for_sale"`
	Renditions       []RenditionResponse `json:"renditions"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type ImageListResponse struct {
	Images []*ImageResponse `json:"images"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type ErrorBody struct {
	Code        string         `json:"code"`
	Message     string         `json:"message"`
	UserMessage string         `json:"user_message"`
	Severity    string         `json:"severity"`
	Retry       bool           `json:"retry"`
	Suggestion  string         `json:"suggestion,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func MapError(e *apperr.Error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: ErrorBody{
			Code:        string(e.Code),
			Message:     e.Message,
			UserMessage: e.UserMessage,
			Severity:    string(e.Severity),
			Retry:       e.Retry,
			Suggestion:  e.Suggestion,
			Context:     e.Context,
		},
	}
}

func MapIngestResult(result *domain.IngestResult) IngestResponse {
	img := result.Image

	return IngestResponse{
		Success:           true,
		ImageID:           img.ID,
		Slug:              img.Slug,
		Filename:          img.Filename,
		Title:             img.Enrichment.Title,
		Caption:           img.Enrichment.Caption,
		Description:       img.Enrichment.Description,
		Tags:              img.Enrichment.Tags,
		Category:          img.Enrichment.Category,
		Width:             img.Metadata.Width,
		Height:            img.Metadata.Height,
		Exif:              mapExif(img.Metadata),
		VariantsGenerated: len(img.Renditions),
		Warnings:          result.Warnings,
	}
}

func MapImageToResponse(img *domain.ImageRecord) *ImageResponse {
	if img == nil {
		return nil
	}

	renditions := make([]RenditionResponse, 0, len(img.Renditions))
	for _, v := range img.Renditions {
		renditions = append(renditions, RenditionResponse{
			Size:     string(v.Size),
			Format:   v.Format,
			Filename: v.Filename,
			Width:    v.Width,
			Height:   v.Height,
			FileSize: v.FileSize,
		})
	}

	return &ImageResponse{
		ID:               img.ID,
		UserID:           img.UserID,
		Slug:             img.Slug,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		Title:            img.Enrichment.Title,
		Caption:          img.Enrichment.Caption,
		Description:      img.Enrichment.Description,
		Tags:             img.Enrichment.Tags,
		Category:         img.Enrichment.Category,
		Width:            img.Metadata.Width,
		Height:           img.Metadata.Height,
		AspectRatio:      img.Metadata.AspectRatio,
		Exif:             mapExif(img.Metadata),
		DateTaken:        img.Metadata.DateTaken,
		Location:         img.Metadata.Location,
		FileSize:         img.FileSize,
		Published:        img.Published,
		Featured:         img.Featured,
		AvailableForSale: img.AvailableForSale,
		Renditions:       renditions,
		CreatedAt:        img.CreatedAt,
		UpdatedAt:        img.UpdatedAt,
	}
}

func MapImagesToResponse(images []*domain.ImageRecord, total, limit, offset int) *ImageListResponse {
	responses := make([]*ImageResponse, 0, len(images))
	for _, img := range images {
		responses = append(responses, MapImageToResponse(img))
	}

	return &ImageListResponse{
		Images: responses,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

func mapExif(m domain.DerivedMetadata) ExifSummary {
	return ExifSummary{
		Camera:   m.CameraSummary(),
		Settings: m.SettingsSummary(),
	}
}
