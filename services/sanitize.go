package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MinReturnReasonLength is the minimum length of a return-for-revision reason
	MinReturnReasonLength = 10
	// MaxReasonLength caps free-text reasons stored in the ledgers
	MaxReasonLength = 2000
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips markup from free text before it is persisted
func sanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(strings.TrimSpace(s)))
}

// requireReason sanitizes a mandatory reason and enforces its length bounds
func requireReason(field, reason string, minLength int) (string, error) {
	clean := sanitizeText(reason)
	n := utf8.RuneCountInString(clean)
	if n == 0 {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if n < minLength {
		return "", fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidInput, field, minLength)
	}
	if n > MaxReasonLength {
		return "", fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, MaxReasonLength)
	}
	return clean, nil
}

// optionalText sanitizes optional free text, returning nil when empty
func optionalText(s string) *string {
	clean := sanitizeText(s)
	if clean == "" {
		return nil
	}
	if utf8.RuneCountInString(clean) > MaxReasonLength {
		clean = string([]rune(clean)[:MaxReasonLength])
	}
	return &clean
}
