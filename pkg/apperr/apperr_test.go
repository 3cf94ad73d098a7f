package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"validation", Validation("bad input"), CodeValidation},
		{"not found", NotFound("missing"), CodeNotFound},
		{"permission", PermissionDenied("nope"), CodePermissionDenied},
		{"rate limited", RateLimited("slow down"), CodeRateLimited},
		{"partial failure", PartialFailure("rolled back", errors.New("db down")), CodePartialFailure},
		{"wrapped deeper", fmt.Errorf("outer: %w", NotFound("inner")), CodeNotFound},
		{"plain error", errors.New("plain"), CodeUnknown},
		{"nil", nil, CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := TransientInfra("redis unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "redis unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIs(t *testing.T) {
	err := PermissionDenied("not yours")
	assert.True(t, Is(err, CodePermissionDenied))
	assert.False(t, Is(err, CodeNotFound))
}
