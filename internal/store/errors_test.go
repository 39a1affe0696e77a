package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stagepass/stagepass-server/internal/store"
)

func TestError_Error(t *testing.T) {
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
	}

	assert.Equal(t, "not found", err.Error())
}

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &store.Error{
		Code:    http.StatusNotFound,
		Message: "not found",
		Err:     cause,
	}

	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_WithMessage(t *testing.T) {
	modified := store.ErrNotFound.WithMessagef("artist %s not found", "artist-1")

	assert.Equal(t, http.StatusNotFound, modified.HTTPCode())
	assert.Equal(t, "artist artist-1 not found", modified.Message)
	assert.ErrorIs(t, modified, store.ErrNotFound)
	assert.NotErrorIs(t, modified, store.ErrInvalidInput)
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("db error")
	modified := store.ErrConflict.WithCause(cause)

	assert.Equal(t, http.StatusConflict, modified.Code)
	assert.Equal(t, "conflicting state", modified.Message)
	assert.ErrorIs(t, modified, cause)
	assert.ErrorIs(t, modified, store.ErrConflict)
}

func TestError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("update genre: %w", store.ErrNotFound.WithMessage("genre not found"))

	assert.ErrorIs(t, wrapped, store.ErrNotFound)
}

func TestError_SameCodeDifferentSentinel(t *testing.T) {
	assert.NotErrorIs(t, store.ErrConflict, store.ErrAlreadyExists)
	assert.NotErrorIs(t, store.ErrAlreadyExists.WithMessage("dup"), store.ErrConflict)
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      *store.Error
		wantCode int
	}{
		{name: "not found", err: store.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "already exists", err: store.ErrAlreadyExists, wantCode: http.StatusConflict},
		{name: "conflict", err: store.ErrConflict, wantCode: http.StatusConflict},
		{name: "invalid input", err: store.ErrInvalidInput, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.HTTPCode())
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
