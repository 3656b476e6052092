package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"

	"photogallery/internal/apperr"
	"photogallery/internal/domain"
	"photogallery/internal/helpers"
)

const apiVersion = "2023-06-01"

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	MaxDimension int
	Timeout      time.Duration
}

// Client talks to an Anthropic-style vision messages endpoint. Every failure
// mode comes back as a typed error paired with the deterministic filename
// fallback; Analyze never panics and never returns a zero metadata value.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 1568
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type apiImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiContent struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *apiImageSource `json:"source,omitempty"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// tagList tolerates both a JSON array and a comma-separated string, which
// the model occasionally returns despite the prompt.
type tagList []string

func (t *tagList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []string
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return err
		}
		*t = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*t = helpers.SplitAndTrim(s, ",")
	return nil
}

type enrichmentPayload struct {
	Title       string  `json:"title"`
	Caption     string  `json:"caption"`
	Description string  `json:"description"`
	Tags        tagList `json:"tags"`
	Category    string  `json:"category"`
}

func (c *Client) Analyze(ctx context.Context, req domain.CaptionRequest) (domain.EnrichmentMetadata, *apperr.Error) {
	fallback := Fallback(req.Filename)

	if c.cfg.APIKey == "" {
		zlog.Logger.Warn().Str("filename", req.Filename).Msg("caption service API key not configured, using fallback metadata")
		return fallback, apperr.MissingAPIKey()
	}

	// Oversized images are downscaled to the submission limit; the scaled
	// copy lives only in this call's buffers and is discarded with it.
	data, mediaType := c.prepareImage(req.Data, req.MediaType)

	body := apiRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages: []apiMessage{{
			Role: "user",
			Content: []apiContent{
				{Type: "image", Source: &apiImageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(data),
				}},
				{Type: "text", Text: PromptFor(req.Style)},
			},
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to marshal caption request")
		return fallback, apperr.CaptionUpstream("failed to build caption request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return fallback, apperr.CaptionUpstream("failed to build caption request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	zlog.Logger.Info().
		Str("filename", req.Filename).
		Str("media_type", mediaType).
		Str("style", string(req.Style)).
		Int("image_size_kb", len(data)/1024).
		Msg("analyzing image with caption service")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("filename", req.Filename).Msg("caption service unreachable")
		return fallback, apperr.CaptionUpstream("caption service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		zlog.Logger.Error().Int("status", resp.StatusCode).Msg("caption service rejected API key")
		return fallback, apperr.InvalidAPIKey()
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := 60
		if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && v > 0 {
			retryAfter = v
		}
		zlog.Logger.Warn().Int("retry_after_sec", retryAfter).Msg("caption service rate limit exceeded")
		return fallback, apperr.CaptionRateLimited(retryAfter)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		zlog.Logger.Error().Int("status", resp.StatusCode).Msg("caption service returned unexpected status")
		return fallback, apperr.CaptionUpstream(fmt.Sprintf("caption service returned status %d", resp.StatusCode), nil)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode caption service response")
		return fallback, apperr.CaptionUpstream("failed to decode caption service response", err)
	}

	zlog.Logger.Info().
		Int("input_tokens", apiResp.Usage.InputTokens).
		Int("output_tokens", apiResp.Usage.OutputTokens).
		Msg("caption service call completed")

	text := ""
	for _, part := range apiResp.Content {
		if part.Type == "text" {
			text = part.Text
			break
		}
	}

	var parsed enrichmentPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &parsed); err != nil {
		zlog.Logger.Error().Err(err).Str("response_preview", preview(text, 200)).Msg("failed to parse caption response as JSON")
		return fallback, apperr.CaptionUpstream("failed to parse caption response as JSON", err)
	}

	enrichment := domain.EnrichmentMetadata{
		Title:       parsed.Title,
		Caption:     parsed.Caption,
		Description: parsed.Description,
		Tags:        parsed.Tags,
		Category:    parsed.Category,
	}
	if enrichment.Tags == nil {
		enrichment.Tags = []string{}
	}

	zlog.Logger.Info().
		Str("title", enrichment.Title).
		Str("category", enrichment.Category).
		Int("tag_count", len(enrichment.Tags)).
		Msg("image analyzed successfully")

	return enrichment, nil
}

// prepareImage downscales images whose long edge exceeds the submission
// limit and re-encodes them as JPEG. On any decode or encode problem the
// original bytes are submitted unchanged.
func (c *Client) prepareImage(data []byte, mediaType string) ([]byte, string) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= c.cfg.MaxDimension && cfg.Height <= c.cfg.MaxDimension) {
		return data, mediaType
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("downscale for analysis failed, submitting original")
		return data, mediaType
	}

	resized := imaging.Fit(img, c.cfg.MaxDimension, c.cfg.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		zlog.Logger.Warn().Err(err).Msg("re-encode for analysis failed, submitting original")
		return data, mediaType
	}

	zlog.Logger.Info().
		Int("original_width", cfg.Width).
		Int("original_height", cfg.Height).
		Int("scaled_width", resized.Bounds().Dx()).
		Int("scaled_height", resized.Bounds().Dy()).
		Msg("downscaled image for analysis")

	return buf.Bytes(), "image/jpeg"
}

// stripFences removes a markdown code fence the model sometimes wraps the
// JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
