package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeNotRegistered, http.StatusNotFound},
		{CodeRequiresLogin, http.StatusUnauthorized},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvalidField, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Forbidden("only the owner may change settings")

	assert.True(t, Is(err, ErrForbidden))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("apply edit: %w", err)
	assert.True(t, Is(wrapped, ErrForbidden))
}

func TestRequiresLogin_CarriesFlag(t *testing.T) {
	err := RequiresLogin("this list is invite-only")

	assert.Equal(t, http.StatusUnauthorized, err.GetStatus())
	details, ok := err.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, details["requires_login"])
}

func TestUnavailable_WrapsCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	err := Unavailable(cause)

	assert.True(t, Is(err, ErrUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	err := ErrValidation.WithDetails(map[string]string{"title": "is required"})

	assert.Nil(t, ErrValidation.Details)
	assert.NotNil(t, err.Details)
	assert.True(t, Is(err, ErrValidation))
}
