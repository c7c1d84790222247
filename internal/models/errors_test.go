package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_StatusCodes(t *testing.T) {
	tests := []struct {
		err       *AppError
		status    int
		retryable bool
	}{
		{NewValidationError("Invalid JSON.", nil), http.StatusBadRequest, false},
		{NewConfigurationError("No API tokens configured on server."), http.StatusInternalServerError, false},
		{NewTimeoutError("generate", context.DeadlineExceeded), http.StatusGatewayTimeout, true},
		{NewExhaustedError("All tokens exhausted or busy.", ""), http.StatusServiceUnavailable, true},
		{NewInternalError("Internal Server Error", errors.New("boom")), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.GetStatusCode())
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())

			// the type alone decides the status when none is set
			bare := &AppError{Type: tt.err.Type}
			assert.Equal(t, tt.status, bare.GetStatusCode())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", NewTimeoutError("generate", context.DeadlineExceeded))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsType(err, ErrorTypeTimeout))
	assert.False(t, IsType(err, ErrorTypeExhausted))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeTimeout))
}

func TestAsAppError(t *testing.T) {
	original := NewValidationError("Missing request body.", nil)
	assert.Same(t, original, AsAppError(fmt.Errorf("wrapped: %w", original)))

	wrapped := AsAppError(errors.New("disk full"))
	assert.Equal(t, ErrorTypeInternal, wrapped.Type)
	assert.Equal(t, "disk full", wrapped.Details)
	assert.Equal(t, "Internal Server Error: disk full", wrapped.Error())
}
