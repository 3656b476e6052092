package apperr

import (
	"fmt"
	"net/http"
)

type Code string

const (
	CodeAuthMissingKey Code = "AUTH_MISSING_KEY"
	CodeAuthInvalidKey Code = "AUTH_INVALID_KEY"

	CodeRateCaptionLimit Code = "RATE_CAPTION_LIMIT"

	CodeValidationFileTooLarge Code = "VALIDATION_FILE_TOO_LARGE"
	CodeValidationInvalidType  Code = "VALIDATION_INVALID_TYPE"
	CodeValidationCorruptImage Code = "VALIDATION_CORRUPT_IMAGE"

	CodeProcessingVariantFailed Code = "PROCESSING_VARIANT_FAILED"
	CodeProcessingCaptionFailed Code = "PROCESSING_CAPTION_FAILED"

	CodeExternalCaptionError Code = "EXTERNAL_CAPTION_ERROR"

	CodeFormatMismatch Code = "FORMAT_MISMATCH"

	CodeDatabaseFailed     Code = "DATABASE_CONNECTION_FAILED"
	CodeDatabaseConstraint Code = "DATABASE_CONSTRAINT_VIOLATION"
	CodeNotFound           Code = "DATABASE_NOT_FOUND"

	CodeInternal Code = "INTERNAL_ERROR"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Error is a fatal, user-facing pipeline error. Non-fatal degradations are
// represented as Warning values instead and never unwind the call stack.
type Error struct {
	Code        Code
	Message     string
	UserMessage string
	HTTPStatus  int
	Severity    Severity
	Retry       bool
	Suggestion  string
	Context     map[string]any
	cause       error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Warning is a structured degradation notice attached to a successful result.
type Warning struct {
	Code        Code           `json:"code"`
	Message     string         `json:"message"`
	UserMessage string         `json:"user_message"`
	Severity    Severity       `json:"severity"`
	Context     map[string]any `json:"context,omitempty"`
}

// AsWarning converts a typed error into a warning with the same code and
// messages, used when a step degrades instead of failing the pipeline.
func (e *Error) AsWarning() Warning {
	return Warning{
		Code:        e.Code,
		Message:     e.Message,
		UserMessage: e.UserMessage,
		Severity:    e.Severity,
		Context:     e.Context,
	}
}

func FileTooLarge(filename string, size, max int64) *Error {
	sizeMB := float64(size) / (1024 * 1024)
	maxMB := float64(max) / (1024 * 1024)
	return &Error{
		Code:        CodeValidationFileTooLarge,
		Message:     fmt.Sprintf("file size %.1fMB exceeds maximum %.1fMB", sizeMB, maxMB),
		UserMessage: fmt.Sprintf("File %q is too large (%.1fMB). Maximum file size is %.1fMB.", filename, sizeMB, maxMB),
		HTTPStatus:  http.StatusRequestEntityTooLarge,
		Severity:    SeverityError,
		Suggestion:  fmt.Sprintf("Compress your image or reduce resolution to get under %.1fMB", maxMB),
		Context:     map[string]any{"filename": filename, "file_size_bytes": size, "max_size_bytes": max},
	}
}

func InvalidFileType(filename, contentType string, allowed []string) *Error {
	return &Error{
		Code:        CodeValidationInvalidType,
		Message:     fmt.Sprintf("file type %q not allowed", contentType),
		UserMessage: fmt.Sprintf("File %q has an unsupported format. Please upload JPEG or PNG images.", filename),
		HTTPStatus:  http.StatusUnsupportedMediaType,
		Severity:    SeverityError,
		Suggestion:  fmt.Sprintf("Allowed types: %v", allowed),
		Context:     map[string]any{"filename": filename, "file_type": contentType, "allowed_types": allowed},
	}
}

func CorruptImage(filename string, cause error) *Error {
	return &Error{
		Code:        CodeValidationCorruptImage,
		Message:     "image file is corrupt or unreadable",
		UserMessage: fmt.Sprintf("File %q could not be read as an image. It may be corrupt.", filename),
		HTTPStatus:  http.StatusUnprocessableEntity,
		Severity:    SeverityError,
		Context:     map[string]any{"filename": filename},
		cause:       cause,
	}
}

func MissingAPIKey() *Error {
	return &Error{
		Code:        CodeAuthMissingKey,
		Message:     "caption service API key not configured",
		UserMessage: "AI-powered captions are currently unavailable. Your photo was uploaded with basic metadata.",
		HTTPStatus:  http.StatusServiceUnavailable,
		Severity:    SeverityWarning,
		Suggestion:  "Set the vision.api_key config value or the APP_VISION_API_KEY environment variable",
	}
}

func InvalidAPIKey() *Error {
	return &Error{
		Code:        CodeAuthInvalidKey,
		Message:     "caption service API key is invalid",
		UserMessage: "AI captions failed because the caption service rejected the configured API key.",
		HTTPStatus:  http.StatusUnauthorized,
		Severity:    SeverityError,
		Suggestion:  "Verify the configured caption service API key",
	}
}

func CaptionRateLimited(retryAfterSec int) *Error {
	return &Error{
		Code:        CodeRateCaptionLimit,
		Message:     "caption service rate limit exceeded",
		UserMessage: fmt.Sprintf("The AI caption service is temporarily rate limited. Please wait %d seconds and try again.", retryAfterSec),
		HTTPStatus:  http.StatusTooManyRequests,
		Severity:    SeverityWarning,
		Retry:       true,
		Context:     map[string]any{"retry_after_seconds": retryAfterSec},
	}
}

func CaptionUpstream(message string, cause error) *Error {
	return &Error{
		Code:        CodeExternalCaptionError,
		Message:     message,
		UserMessage: "AI caption generation failed. Your photo was uploaded with basic metadata instead.",
		HTTPStatus:  http.StatusBadGateway,
		Severity:    SeverityWarning,
		Retry:       true,
		cause:       cause,
	}
}

func RenditionFailed(filename string) *Error {
	return &Error{
		Code:        CodeProcessingVariantFailed,
		Message:     "no renditions were successfully generated",
		UserMessage: fmt.Sprintf("Processing of %q failed: no delivery renditions could be produced.", filename),
		HTTPStatus:  http.StatusUnprocessableEntity,
		Severity:    SeverityError,
		Context:     map[string]any{"filename": filename},
	}
}

func Database(operation string, cause error) *Error {
	return &Error{
		Code:        CodeDatabaseFailed,
		Message:     fmt.Sprintf("database operation %q failed", operation),
		UserMessage: "Saving your photo failed due to a storage problem. Please try again.",
		HTTPStatus:  http.StatusInternalServerError,
		Severity:    SeverityCritical,
		Retry:       true,
		Context:     map[string]any{"operation": operation},
		cause:       cause,
	}
}

func NotFound(resource string, id any) *Error {
	return &Error{
		Code:        CodeNotFound,
		Message:     fmt.Sprintf("%s not found", resource),
		UserMessage: "The requested image could not be found.",
		HTTPStatus:  http.StatusNotFound,
		Severity:    SeverityWarning,
		Context:     map[string]any{"resource": resource, "id": id},
	}
}

func Internal(cause error) *Error {
	return &Error{
		Code:        CodeInternal,
		Message:     "unexpected internal error",
		UserMessage: "An unexpected error occurred. Please try again.",
		HTTPStatus:  http.StatusInternalServerError,
		Severity:    SeverityCritical,
		cause:       cause,
	}
}

// FormatMismatch is emitted when the sniffed image encoding disagrees with
// the declared content type. The pipeline continues with the detected one.
func FormatMismatch(declared, detected string) Warning {
	return Warning{
		Code:        CodeFormatMismatch,
		Message:     fmt.Sprintf("declared content type %q but image bytes are %q", declared, detected),
		UserMessage: fmt.Sprintf("The file was declared as %s but is actually %s; it was processed as %s.", declared, detected, detected),
		Severity:    SeverityInfo,
		Context:     map[string]any{"declared": declared, "detected": detected},
	}
}

// RenditionSkipped reports a single size class that failed to generate.
func RenditionSkipped(sizeClass string, cause error) Warning {
	return Warning{
		Code:        CodeProcessingVariantFailed,
		Message:     fmt.Sprintf("failed to generate %s rendition: %v", sizeClass, cause),
		UserMessage: fmt.Sprintf("The %s copy of your photo could not be generated.", sizeClass),
		Severity:    SeverityWarning,
		Context:     map[string]any{"size_class": sizeClass},
	}
}
