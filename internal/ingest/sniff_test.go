package ingest

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestImage(t *testing.T, width, height int, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		require.NoError(t, jpeg.Encode(&buf, img, nil))
	case "png":
		require.NoError(t, png.Encode(&buf, img))
	default:
		t.Fatalf("unsupported test format %q", format)
	}
	return buf.Bytes()
}

func TestSniffFormat(t *testing.T) {
	jpegData := encodeTestImage(t, 10, 10, "jpeg")
	pngData := encodeTestImage(t, 10, 10, "png")

	format, err := sniffFormat(jpegData)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)

	format, err = sniffFormat(pngData)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestSniffFormatRejectsGarbage(t *testing.T) {
	_, err := sniffFormat([]byte("this is not an image at all"))
	assert.Error(t, err)
}

func TestNormalizeContentType(t *testing.T) {
	cases := map[string]string{
		"image/jpeg": "jpeg",
		"image/jpg":  "jpeg",
		"IMAGE/PNG":  "png",
		"image/webp": "webp",
		"image/gif":  "gif",
		"image/tiff": "tiff",
	}

	for in, want := range cases {
		assert.Equal(t, want, normalizeContentType(in), "content type %q", in)
	}
}
