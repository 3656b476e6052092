package ingest

import (
	"bytes"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// sniffFormat inspects the image header and returns the true encoding name
// ("jpeg", "png", "webp", "gif"). The declared content type is advisory
// only; processing always follows the detected format.
func sniffFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return format, nil
}

// normalizeContentType maps a declared MIME type onto the format names the
// sniffer produces, so the two can be compared.
func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch ct {
	case "image/jpeg", "image/jpg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return strings.TrimPrefix(ct, "image/")
	}
}
