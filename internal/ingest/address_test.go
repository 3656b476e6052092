package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContentAddress(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	name := contentAddress(at, []byte("hello"), ".jpg")

	assert.Regexp(t, `^20240315_093045_[0-9a-f]{16}\.jpg$`, name)
}

func TestContentAddressDeterministicPerContent(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)

	a := contentAddress(at, []byte("same bytes"), ".png")
	b := contentAddress(at, []byte("same bytes"), ".png")
	c := contentAddress(at, []byte("other bytes"), ".png")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestContentAddressTimestampSeparatesReuploads(t *testing.T) {
	data := []byte("same bytes")

	first := contentAddress(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), data, ".jpg")
	second := contentAddress(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), data, ".jpg")

	assert.NotEqual(t, first, second)
}
