package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"subtrackr/internal/auth"
	"subtrackr/internal/errors"
	"subtrackr/internal/middleware"
	"subtrackr/internal/model"
)

// MessageResponse is the envelope of operations that return no data.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// ProfileResponse wraps the caller's profile.
type ProfileResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	User    *model.Profile `json:"user"`
}

// PreferencesResponse wraps the caller's preferences.
type PreferencesResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Preferences *model.Preferences `json:"preferences"`
}

// SubscriptionResponse wraps a single subscription.
type SubscriptionResponse struct {
	Success bool                `json:"success"`
	Data    *model.Subscription `json:"data"`
}

// SubscriptionListResponse wraps every subscription of the caller.
type SubscriptionListResponse struct {
	Success bool                 `json:"success"`
	UserID  uuid.UUID            `json:"user_id"`
	Data    []model.Subscription `json:"data"`
	Count   int                  `json:"count"`
}

// identity returns the caller attached by the auth middleware.
func identity(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, errors.ErrTokenRequired
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req interface{}, message string) error {
	if err := c.Bind(req); err != nil {
		return errors.NewValidationError(message, bindError(err))
	}
	if err := c.Validate(req); err != nil {
		return errors.NewValidationError(message, err)
	}
	return nil
}

func bindError(err error) error {
	if he, ok := err.(*echo.HTTPError); ok && he.Internal != nil {
		return he.Internal
	}
	return err
}
