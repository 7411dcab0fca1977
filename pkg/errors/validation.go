package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxParticipants bounds the size of a single draw. Larger rosters are
// rejected before any layout work is done.
const MaxParticipants = 10000

// ValidateViewport checks that width and height are finite and non-negative.
// Zero dimensions are valid: they describe a collapsed viewport and yield an
// empty layout.
func ValidateViewport(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidViewport, "viewport dimensions must be finite (got %vx%v)", width, height)
		}
		if v < 0 {
			return New(ErrCodeInvalidViewport, "viewport dimensions cannot be negative (got %vx%v)", width, height)
		}
	}
	return nil
}

// ValidateCount checks a participant count.
func ValidateCount(count int) error {
	if count < 0 {
		return New(ErrCodeInvalidInput, "participant count cannot be negative: %d", count)
	}
	if count > MaxParticipants {
		return New(ErrCodeInvalidInput, "too many participants: %d (max %d)", count, MaxParticipants)
	}
	return nil
}

// ValidateParticipantID validates an opaque participant identifier.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - Maximum length of 128 characters
func ValidateParticipantID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "participant id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "participant id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "participant id contains invalid control characters")
		}
	}
	return nil
}

// ValidateListingID validates a listing identifier used with the data source.
func ValidateListingID(id int) error {
	if id <= 0 {
		return New(ErrCodeInvalidInput, "listing id must be positive: %d", id)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and rejects absolute paths.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
