package renditions

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
)

// File is one encoded rendition waiting to be written to the asset store.
type File struct {
	Size     domain.SizeClass
	Format   string
	Filename string
	Width    int
	Height   int
	Data     []byte
}

type Config struct {
	LargeWidth     int
	MediumWidth    int
	ThumbnailWidth int
	Quality        int
}

// Generator produces the fixed set of delivery renditions. Size classes are
// attempted independently: a failing class is reported as a warning and
// skipped, never escalated here. The caller decides what an empty result
// means.
type Generator struct {
	cfg Config
}

func New(cfg Config) *Generator {
	if cfg.LargeWidth <= 0 {
		cfg.LargeWidth = 1200
	}
	if cfg.MediumWidth <= 0 {
		cfg.MediumWidth = 800
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = 400
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 85
	}
	return &Generator{cfg: cfg}
}

type sizeTarget struct {
	class domain.SizeClass
	width int
}

func (g *Generator) targets() []sizeTarget {
	return []sizeTarget{
		{domain.SizeLarge, g.cfg.LargeWidth},
		{domain.SizeMedium, g.cfg.MediumWidth},
		{domain.SizeThumbnail, g.cfg.ThumbnailWidth},
	}
}

// Generate renders all size classes from the decoded original. stem is the
// stored original's filename without extension; rendition filenames are
// "{stem}_{class}.jpg".
func (g *Generator) Generate(src image.Image, stem string) ([]File, []apperr.Warning) {
	src = flatten(src)

	origWidth := src.Bounds().Dx()
	origHeight := src.Bounds().Dy()
	aspect := float64(origWidth) / float64(origHeight)

	var files []File
	var warnings []apperr.Warning

	for _, t := range g.targets() {
		// Never upscale. Thumbnails are the exception: always produced,
		// capped at the original width.
		if t.width > origWidth && t.class != domain.SizeThumbnail {
			zlog.Logger.Info().
				Str("size_class", string(t.class)).
				Int("target_width", t.width).
				Int("original_width", origWidth).
				Msg("skipping rendition, original is smaller than target")
			continue
		}

		width := t.width
		if origWidth < width {
			width = origWidth
		}
		height := int(math.Round(float64(width) / aspect))

		file, err := g.render(src, t.class, stem, width, height)
		if err != nil {
			zlog.Logger.Warn().Err(err).Str("size_class", string(t.class)).Msg("failed to generate rendition")
			warnings = append(warnings, apperr.RenditionSkipped(string(t.class), err))
			continue
		}

		zlog.Logger.Info().
			Str("size_class", string(t.class)).
			Str("filename", file.Filename).
			Int("width", file.Width).
			Int("height", file.Height).
			Int("bytes", len(file.Data)).
			Msg("rendition generated")

		files = append(files, file)
	}

	return files, warnings
}

func (g *Generator) render(src image.Image, class domain.SizeClass, stem string, width, height int) (File, error) {
	resized := imaging.Resize(src, width, height, imaging.Lanczos)
	if resized.Bounds().Dx() == 0 || resized.Bounds().Dy() == 0 {
		return File{}, fmt.Errorf("resize produced empty image")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(g.cfg.Quality)); err != nil {
		return File{}, fmt.Errorf("encode rendition: %w", err)
	}

	return File{
		Size:     class,
		Format:   "jpeg",
		Filename: fmt.Sprintf("%s_%s.jpg", stem, class),
		Width:    width,
		Height:   height,
		Data:     buf.Bytes(),
	}, nil
}

// flatten composites images with an alpha or palette channel onto an opaque
// white background. The output encoding has no transparency support.
func flatten(src image.Image) image.Image {
	if op, ok := src.(interface{ Opaque() bool }); ok && op.Opaque() {
		return src
	}

	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, bounds, src, bounds.Min, draw.Over)
	return out
}
