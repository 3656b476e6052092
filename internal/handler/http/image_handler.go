package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
	"photogallery/internal/dto"
	"photogallery/internal/usecase"
)

type ImageHandler struct {
	ingestion domain.IngestionService
	gallery   *usecase.GalleryUsecase
}

func NewImageHandler(ingestion domain.IngestionService, gallery *usecase.GalleryUsecase) *ImageHandler {
	return &ImageHandler{
		ingestion: ingestion,
		gallery:   gallery,
	}
}

func (h *ImageHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.POST("/api/images/ingest", h.IngestImage)
	engine.GET("/api/images", h.ListImages)
	engine.GET("/api/images/:id", h.GetImage)
	engine.GET("/api/images/:id/file", h.GetImageFile)
	engine.PATCH("/api/images/:id", h.UpdateMetadata)
	engine.POST("/api/images/:id/publish", h.SetPublished)
	engine.POST("/api/images/:id/featured", h.SetFeatured)
	engine.DELETE("/api/images/:id", h.DeleteImage)
}

// IngestImage POST /api/images/ingest
func (h *ImageHandler) IngestImage(c *ginext.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("no image file in request")
		c.JSON(http.StatusBadRequest, dto.MapError(
			apperr.InvalidFileType("", "missing", nil),
		))
		return
	}
	defer file.Close()

	userID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, dto.MapError(apperr.Internal(errors.New("user_id form field is required"))))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("filename", header.Filename).Msg("failed to read upload body")
		c.JSON(http.StatusInternalServerError, dto.MapError(apperr.Internal(err)))
		return
	}

	upload := domain.UploadCandidate{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	result, ingErr := h.ingestion.Ingest(c.Request.Context(), userID, upload)
	if ingErr != nil {
		zlog.Logger.Warn().
			Str("code", string(ingErr.Code)).
			Str("filename", header.Filename).
			Int64("user_id", userID).
			Msg("ingestion rejected")
		c.JSON(ingErr.HTTPStatus, dto.MapError(ingErr))
		return
	}

	c.JSON(http.StatusCreated, dto.MapIngestResult(result))
}

// ListImages GET /api/images
func (h *ImageHandler) ListImages(c *ginext.Context) {
	filter := domain.ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	if v := c.Query("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			filter.UserID = &id
		}
	}
	if v := c.Query("published"); v != "" {
		b := v == "true"
		filter.Published = &b
	}
	if v := c.Query("featured"); v != "" {
		b := v == "true"
		filter.Featured = &b
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	images, total, err := h.gallery.ListImages(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list images", err)
		return
	}

	c.JSON(http.StatusOK, dto.MapImagesToResponse(images, total, filter.Limit, filter.Offset))
}

// GetImage GET /api/images/:id
func (h *ImageHandler) GetImage(c *ginext.Context) {
	id, ok := h.imageID(c)
	if !ok {
		return
	}

	image, err := h.gallery.GetImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get image", err)
		return
	}

	c.JSON(http.StatusOK, dto.MapImageToResponse(image))
}

// GetImageFile GET /api/images/:id/file?size=thumbnail|medium|large|original
func (h *ImageHandler) GetImageFile(c *ginext.Context) {
	id, ok := h.imageID(c)
	if !ok {
		return
	}

	file, filename, err := h.gallery.GetImageFile(c.Request.Context(), id, c.Query("size"))
	if err != nil {
		h.respondError(c, "get image file", err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Header("Content-Type", contentTypeFor(filename))
	if _, err := io.Copy(c.Writer, file); err != nil {
		zlog.Logger.Error().Err(err).Int64("image_id", id).Msg("failed to stream image file")
	}
}

// UpdateMetadata PATCH /api/images/:id
func (h *ImageHandler) UpdateMetadata(c *ginext.Context) {
	id, ok := h.imageID(c)
	if !ok {
		return
	}

	var req dto.UpdateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MapError(apperr.Internal(err)))
		return
	}

	image, err := h.gallery.UpdateMetadata(c.Request.Context(), id, req.ToUpdate())
	if err != nil {
		if errors.Is(err, domain.ErrNoFieldsToUpdate) {
			c.JSON(http.StatusBadRequest, dto.MapError(apperr.Internal(err)))
			return
		}
		h.respondError(c, "update metadata", err)
		return
	}

	c.JSON(http.StatusOK, dto.MapImageToResponse(image))
}

// SetPublished POST /api/images/:id/publish
func (h *ImageHandler) SetPublished(c *ginext.Context) {
	h.setFlag(c, h.gallery.SetPublished)
}

// SetFeatured POST /api/images/:id/featured
func (h *ImageHandler) SetFeatured(c *ginext.Context) {
	h.setFlag(c, h.gallery.SetFeatured)
}

// DeleteImage DELETE /api/images/:id
func (h *ImageHandler) DeleteImage(c *ginext.Context) {
	id, ok := h.imageID(c)
	if !ok {
		return
	}

	if err := h.gallery.DeleteImage(c.Request.Context(), id); err != nil {
		h.respondError(c, "delete image", err)
		return
	}

	c.JSON(http.StatusOK, ginext.H{"success": true})
}

func (h *ImageHandler) setFlag(c *ginext.Context, apply func(ctx context.Context, id int64, value bool) (*domain.ImageRecord, error)) {
	id, ok := h.imageID(c)
	if !ok {
		return
	}

	var req dto.SetFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.MapError(apperr.Internal(err)))
		return
	}

	image, err := apply(c.Request.Context(), id, req.Value)
	if err != nil {
		h.respondError(c, "set flag", err)
		return
	}

	c.JSON(http.StatusOK, dto.MapImageToResponse(image))
}

func (h *ImageHandler) imageID(c *ginext.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.MapError(apperr.Internal(errors.New("invalid image id"))))
		return 0, false
	}
	return id, true
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

func (h *ImageHandler) respondError(c *ginext.Context, operation string, err error) {
	switch {
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, dto.MapError(apperr.NotFound("image", c.Param("id"))))
	case errors.Is(err, domain.ErrRenditionMissing):
		c.JSON(http.StatusNotFound, dto.MapError(apperr.NotFound("rendition", c.Query("size"))))
	default:
		zlog.Logger.Error().Err(err).Str("operation", operation).Msg("request failed")
		c.JSON(http.StatusInternalServerError, dto.MapError(apperr.Database(operation, err)))
	}
}
