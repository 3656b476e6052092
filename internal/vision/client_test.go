package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	return buf.Bytes()
}

func messagesResponse(text string) string {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
		"usage":   map[string]int{"input_tokens": 1200, "output_tokens": 150},
	})
	return string(body)
}

func testRequest(t *testing.T) domain.CaptionRequest {
	return domain.CaptionRequest{
		Data:      testJPEG(t, 100, 80),
		MediaType: "image/jpeg",
		Filename:  "mountain_lake.jpg",
		UserID:    1,
		Style:     domain.StyleBalanced,
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Content, 2)
		assert.Equal(t, "image", req.Messages[0].Content[0].Type)

		w.Write([]byte(messagesResponse(`{"title":"Mountain Lake","caption":"Still water at dawn","description":"A calm alpine lake.","tags":["mountain","lake"],"category":"landscape"}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.Nil(t, err)
	assert.Equal(t, "Mountain Lake", got.Title)
	assert.Equal(t, "Still water at dawn", got.Caption)
	assert.Equal(t, []string{"mountain", "lake"}, got.Tags)
	assert.Equal(t, "landscape", got.Category)
}

func TestAnalyzeStripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse("```json\n{\"title\":\"Fenced\",\"tags\":[]}\n```")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.Nil(t, err)
	assert.Equal(t, "Fenced", got.Title)
}

func TestAnalyzeAcceptsCommaSeparatedTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse(`{"title":"T","tags":"sunset, beach , waves"}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.Nil(t, err)
	assert.Equal(t, []string{"sunset", "beach", "waves"}, got.Tags)
}

func TestAnalyzeMissingTagsBecomeEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse(`{"title":"No Tags"}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.Nil(t, err)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestAnalyzeMissingKeyFallsBack(t *testing.T) {
	c := NewClient(Config{})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.NotNil(t, err)
	assert.Equal(t, apperr.CodeAuthMissingKey, err.Code)
	assert.Equal(t, "Mountain Lake", got.Title)
	assert.Equal(t, "AI analysis unavailable", got.Caption)
	assert.Equal(t, "uncategorized", got.Category)
}

func TestAnalyzeInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.NotNil(t, err)
	assert.Equal(t, apperr.CodeAuthInvalidKey, err.Code)
	assert.Equal(t, "Mountain Lake", got.Title)
}

func TestAnalyzeRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), testRequest(t))

	require.NotNil(t, err)
	assert.Equal(t, apperr.CodeRateCaptionLimit, err.Code)
	assert.Equal(t, 17, err.Context["retry_after_seconds"])
}

func TestAnalyzeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.NotNil(t, err)
	assert.Equal(t, apperr.CodeExternalCaptionError, err.Code)
	assert.Equal(t, "Mountain Lake", got.Title)
}

func TestAnalyzeMalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(messagesResponse("Sorry, I cannot describe this image.")))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	got, err := c.Analyze(context.Background(), testRequest(t))

	require.NotNil(t, err)
	assert.Equal(t, apperr.CodeExternalCaptionError, err.Code)
	assert.Equal(t, "Mountain Lake", got.Title)
}

func TestAnalyzeDownscalesOversizedImage(t *testing.T) {
	var submitted apiImageSource
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		submitted = *req.Messages[0].Content[0].Source
		w.Write([]byte(messagesResponse(`{"title":"Big"}`)))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, MaxDimension: 64})

	req := testRequest(t)
	req.Data = testJPEG(t, 200, 100)
	_, err := c.Analyze(context.Background(), req)

	require.Nil(t, err)
	assert.Equal(t, "image/jpeg", submitted.MediaType)
	assert.NotEmpty(t, submitted.Data)
}

func TestFallback(t *testing.T) {
	got := Fallback("winter-hike_2024.jpg")

	assert.Equal(t, "Winter Hike 2024", got.Title)
	assert.Equal(t, "AI analysis unavailable", got.Caption)
	assert.Equal(t, "uncategorized", got.Category)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestPromptForUnknownStyleDefaultsToBalanced(t *testing.T) {
	assert.Equal(t, PromptFor(domain.StyleBalanced), PromptFor(domain.CaptionStyle("nonsense")))
	assert.NotEqual(t, PromptFor(domain.StyleTechnical), PromptFor(domain.StyleArtistic))
}
