package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireReason(t *testing.T) {
	clean, err := requireReason("reason", "  Statement missing  ", 10)
	assert.NoError(t, err)
	assert.Equal(t, "Statement missing", clean)

	_, err = requireReason("reason", "", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = requireReason("reason", "<script>alert(1)</script>", 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = requireReason("reason", "short", 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = requireReason("reason", strings.Repeat("a", MaxReasonLength+1), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOptionalText(t *testing.T) {
	assert.Nil(t, optionalText("   "))
	assert.Equal(t, "note", *optionalText(" <i>note</i> "))
	assert.Len(t, *optionalText(strings.Repeat("b", MaxReasonLength+50)), MaxReasonLength)
}
