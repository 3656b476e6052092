package exifmeta

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/domain"
)

// Extractor reads embedded camera metadata. By contract it never fails:
// anything unreadable degrades to nil fields, and dimensions are recovered
// from the image header even when no metadata block exists at all.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Extract(data []byte) domain.DerivedMetadata {
	var meta domain.DerivedMetadata

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		meta.Width = &w
		meta.Height = &h
		if h > 0 {
			ar := math.Round(float64(w)/float64(h)*100) / 100
			meta.AspectRatio = &ar
		}
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// PNG and metadata-free JPEG land here; dimensions are all we have.
		zlog.Logger.Debug().Err(err).Msg("no embedded metadata found")
		return meta
	}

	meta.CameraMake = stringField(x, exif.Make)
	meta.CameraModel = stringField(x, exif.Model)
	meta.Lens = stringField(x, exif.LensModel)
	meta.FocalLength = focalLength(x)
	meta.Aperture = aperture(x)
	meta.ShutterSpeed = shutterSpeed(x)
	meta.ISO = isoField(x)

	if taken, err := x.DateTime(); err == nil {
		meta.DateTaken = &taken
	}
	if lat, long, err := x.LatLong(); err == nil {
		loc := fmt.Sprintf("%.6f, %.6f", lat, long)
		meta.Location = &loc
	}

	return meta
}

func stringField(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil || s == "" {
		return nil
	}
	return &s
}

func isoField(x *exif.Exif) *int {
	tag, err := x.Get(exif.ISOSpeedRatings)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &v
}

func focalLength(x *exif.Exif) *string {
	num, den := rational(x, exif.FocalLength)
	if den == 0 {
		return nil
	}
	s := fmt.Sprintf("%.0fmm", float64(num)/float64(den))
	return &s
}

func aperture(x *exif.Exif) *string {
	num, den := rational(x, exif.FNumber)
	if den == 0 {
		return nil
	}
	s := fmt.Sprintf("f/%.1f", float64(num)/float64(den))
	return &s
}

// shutterSpeed renders fractions of a second as "1/250s" and longer
// exposures as "2.5s".
func shutterSpeed(x *exif.Exif) *string {
	num, den := rational(x, exif.ExposureTime)
	if den == 0 || num == 0 {
		return nil
	}
	var s string
	if num < den {
		s = fmt.Sprintf("1/%ds", den/num)
	} else {
		s = fmt.Sprintf("%.1fs", float64(num)/float64(den))
	}
	return &s
}

func rational(x *exif.Exif, name exif.FieldName) (int64, int64) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, 0
	}
	num, den, err := tag.Rat2(0)
	if err != nil {
		return 0, 0
	}
	return num, den
}
