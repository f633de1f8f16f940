package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeNotFound, 404, "album not found")
	assert.Equal(t, "not_found error (code 404): album not found", err.Error())

	wrapped := Wrap(ErrorTypeIO, fmt.Errorf("disk full"), "write failed")
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Contains(t, wrapped.Error(), "io error")
}

func TestIsType(t *testing.T) {
	base := New(ErrorTypeAuth, 403, "forbidden")
	outer := fmt.Errorf("loading limits: %w", base)

	assert.True(t, IsType(outer, ErrorTypeAuth))
	assert.False(t, IsType(outer, ErrorTypeNetwork))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeAuth))
}

func TestUnwrapSentinel(t *testing.T) {
	err := Wrap(ErrorTypeAuth, ErrInvalidClientID, "credits request rejected")
	assert.True(t, Is(err, ErrInvalidClientID))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeAuth},
		{http.StatusForbidden, ErrorTypeAuth},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeRateLimit},
		{http.StatusBadGateway, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, FromStatusCode(tt.code))
		})
	}
}
