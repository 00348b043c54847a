package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{name: "conflict", err: ErrUserAlreadyExists, wantStatus: http.StatusBadRequest, wantCode: "CONFLICT", wantMessage: "user already exists"},
		{name: "user not found", err: ErrUserNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND", wantMessage: "user not found"},
		{name: "subscription not found", err: ErrSubscriptionNotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND", wantMessage: "subscription not found or unauthorized"},
		{name: "bad password", err: ErrInvalidPassword, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHENTICATED", wantMessage: "invalid password"},
		{name: "missing token", err: ErrTokenRequired, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN", wantMessage: "access token required"},
		{name: "invalid token", err: ErrTokenInvalid, wantStatus: http.StatusForbidden, wantCode: "FORBIDDEN", wantMessage: "invalid or expired token"},
		{name: "preferences", err: ErrInvalidPreferences, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR", wantMessage: "invalid preferences structure"},
		{name: "wrapped domain error", err: fmt.Errorf("svc: %w", ErrUserNotFound), wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND", wantMessage: "user not found"},
		{name: "bare kind", err: ErrConflict, wantStatus: http.StatusBadRequest, wantCode: "CONFLICT", wantMessage: "conflict"},
		{name: "unknown error hides detail", err: errors.New("dial tcp 10.0.0.1:3306: refused"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR", wantMessage: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)

			resp := got.ToErrorResponse()
			assert.False(t, resp.Success)
		})
	}
}

func TestNewValidationError_FromValidator(t *testing.T) {
	type payload struct {
		Username string `validate:"required"`
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}

	err := validator.New().Struct(payload{Email: "nope", Password: "abc"})
	require.Error(t, err)

	ve := NewValidationError("Validation failed", err)
	assert.True(t, errors.Is(ve, ErrValidation))
	assert.ElementsMatch(t, []string{
		"Username is required",
		"Email must be a valid email address",
		"Password must be at least 6 characters",
	}, ve.Fields)

	httpErr := MapErrorToHTTP(ve)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "Validation failed", httpErr.Message)
	assert.Len(t, httpErr.ToErrorResponse().Errors, 3)
}

func TestNewValidationError_PlainError(t *testing.T) {
	ve := NewValidationError("Error creating subscription", errors.New(`invalid renewal date "x"`))
	assert.Equal(t, []string{`invalid renewal date "x"`}, ve.Fields)
	assert.Contains(t, ve.Error(), "Error creating subscription")
}

func TestDomainError_Kinds(t *testing.T) {
	assert.ErrorIs(t, ErrSubscriptionNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrTokenInvalid, ErrAuth)
	assert.NotErrorIs(t, ErrTokenInvalid, ErrNotFound)
}
