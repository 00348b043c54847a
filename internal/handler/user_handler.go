package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"subtrackr/internal/errors"
	"subtrackr/internal/middleware"
	"subtrackr/internal/model"
	"subtrackr/internal/service"
)

// UserHandler handles the /users endpoints.
type UserHandler struct {
	authService service.AuthService
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService service.AuthService, userService service.UserService) *UserHandler {
	return &UserHandler{authService: authService, userService: userService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    int64  `json:"phone" validate:"required,gt=0"`
	Account  int64  `json:"account" validate:"required,gt=0"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Phone    int64  `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the profile fields to change. Absent
// fields are left untouched.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitnil,min=1"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Phone    *int64  `json:"phone" validate:"omitnil,gt=0"`
	Account  *int64  `json:"account" validate:"omitnil,gt=0"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// PreferencesRequest wraps a full preferences document. It is kept raw
// so that empty sections are rejected by the same rule reads apply.
type PreferencesRequest struct {
	Preferences json.RawMessage `json:"preferences" swaggertype:"object"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req, "validation failed"); err != nil {
		return err
	}

	_, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Account:  req.Account,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, MessageResponse{
		Success: true,
		Message: "user has been created successfully",
	})
}

// Login godoc
// @Summary Login with phone and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req, "validation failed"); err != nil {
		return err
	}

	token, err := h.authService.Login(c.Request().Context(), req.Phone, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, TokenResponse{
		Success: true,
		Message: "user logged in successfully",
		Token:   token,
	})
}

// Logout godoc
// @Summary Logout
// @Description Acknowledges the logout. A bearer token, when sent, is revoked.
// @Tags users
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), middleware.BearerToken(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "logged out successfully",
	})
}

// Profile godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	profile, err := h.userService.Profile(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfileResponse{Success: true, User: profile})
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req, "validation failed"); err != nil {
		return err
	}

	profile, err := h.userService.UpdateProfile(c.Request().Context(), id, model.ProfileChanges{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Account:  req.Account,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		Success: true,
		Message: "profile updated successfully",
		User:    profile,
	})
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/change-password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req, "validation failed"); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "password changed successfully",
	})
}

// DeleteAccount godoc
// @Summary Delete the caller's account and all their subscriptions
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/delete-account [delete]
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	if err := h.userService.DeleteAccount(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "account deleted successfully",
	})
}

// GetPreferences godoc
// @Summary Get the caller's preferences
// @Description Returns the defaults when nothing complete has been saved.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PreferencesResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/preferences [get]
func (h *UserHandler) GetPreferences(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	prefs, err := h.userService.GetPreferences(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PreferencesResponse{Success: true, Preferences: prefs})
}

// UpdatePreferences godoc
// @Summary Replace the caller's preferences
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PreferencesRequest true "Full preferences document"
// @Success 200 {object} PreferencesResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/preferences [put]
func (h *UserHandler) UpdatePreferences(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return errors.NewValidationError("invalid request body", bindError(err))
	}
	raw := bytes.TrimSpace(req.Preferences)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return errors.New(errors.ErrValidation, "preferences data is required")
	}
	prefs, ok := model.DecodePreferences(raw)
	if !ok {
		return errors.ErrInvalidPreferences
	}

	saved, err := h.userService.UpdatePreferences(c.Request().Context(), id, prefs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PreferencesResponse{
		Success:     true,
		Message:     "preferences updated successfully",
		Preferences: saved,
	})
}
