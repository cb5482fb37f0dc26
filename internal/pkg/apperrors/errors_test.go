package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := Validation("cart/invalid_quantity", "quantity must be positive, got %d", -2)
	assert.Equal(t, "cart/invalid_quantity: quantity must be positive, got -2", err.Error())
	assert.Equal(t, "cart/invalid_quantity", CodeOf(err))
}

func TestKindDetection(t *testing.T) {
	err := IllegalTransition("order/illegal_transition", "cannot move from shipped to cancelled")

	assert.True(t, IsKind(err, KindIllegalTransition))
	assert.False(t, IsKind(err, KindValidation))

	// Wrapped errors keep their kind.
	wrapped := fmt.Errorf("updating order: %w", err)
	assert.True(t, IsKind(wrapped, KindIllegalTransition))
	assert.Equal(t, "order/illegal_transition", CodeOf(wrapped))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "internal", err.Code)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("x", "bad input"), http.StatusBadRequest},
		{IllegalTransition("x", "no"), http.StatusConflict},
		{TenantMismatch("x", "wrong store"), http.StatusForbidden},
		{NotFound("x", "missing"), http.StatusNotFound},
		{Conflict("x", "raced"), http.StatusConflict},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}
