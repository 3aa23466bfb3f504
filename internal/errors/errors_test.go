package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeUpstream, http.StatusBadGateway},
		{CodeNotReady, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), "code %s", tt.code)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := NotFoundf("listing %s not found", "lst_1")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrForbidden))
}

func TestWrapPreservesCode(t *testing.T) {
	inner := Upstream("backend returned 500")
	wrapped := Wrap(inner, "loading categories")

	assert.Equal(t, CodeUpstream, wrapped.Code)
	assert.Equal(t, "loading categories", wrapped.Message)
	assert.True(t, Is(wrapped, ErrUpstream))
	assert.ErrorContains(t, wrapped, "backend returned 500")
}

func TestWrapPlainError(t *testing.T) {
	inner := stderrors.New("connection refused")
	wrapped := Wrap(inner, "loading categories")

	assert.Equal(t, CodeInternal, wrapped.Code)
	require.ErrorIs(t, wrapped, inner)
}

func TestWithDetailsAndCause(t *testing.T) {
	base := Validation("bad input")
	detailed := base.WithDetails(map[string]string{"title": "required"})

	assert.Equal(t, CodeValidation, detailed.Code)
	assert.NotNil(t, detailed.Details)
	assert.Nil(t, base.Details)

	cause := stderrors.New("decode failed")
	caused := base.WithCause(cause)
	require.ErrorIs(t, caused, cause)
	assert.Contains(t, caused.Error(), "decode failed")
}
