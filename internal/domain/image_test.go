package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCameraSummary(t *testing.T) {
	m := DerivedMetadata{CameraMake: ptr("Canon"), CameraModel: ptr("EOS R5")}
	assert.Equal(t, "Canon EOS R5", m.CameraSummary())

	assert.Equal(t, "Canon", DerivedMetadata{CameraMake: ptr("Canon")}.CameraSummary())
	assert.Equal(t, "Unknown", DerivedMetadata{}.CameraSummary())
}

func TestSettingsSummary(t *testing.T) {
	m := DerivedMetadata{
		FocalLength:  ptr("50mm"),
		Aperture:     ptr("f/1.8"),
		ShutterSpeed: ptr("1/250s"),
		ISO:          ptr(100),
	}
	assert.Equal(t, "50mm f/1.8 1/250s ISO 100", m.SettingsSummary())

	partial := DerivedMetadata{Aperture: ptr("f/2.8")}
	assert.Equal(t, "f/2.8", partial.SettingsSummary())

	assert.Equal(t, "N/A", DerivedMetadata{}.SettingsSummary())
}

func TestRenditionFor(t *testing.T) {
	img := ImageRecord{Renditions: []Rendition{
		{Size: SizeLarge, Filename: "a_large.jpg"},
		{Size: SizeThumbnail, Filename: "a_thumbnail.jpg"},
	}}

	r, ok := img.RenditionFor(SizeThumbnail)
	assert.True(t, ok)
	assert.Equal(t, "a_thumbnail.jpg", r.Filename)

	_, ok = img.RenditionFor(SizeMedium)
	assert.False(t, ok)
}
