package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error kinds. Every error leaving the service layer matches exactly one
// of these via errors.Is.
var (
	// ErrValidation is malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is a uniqueness violation on phone or account.
	ErrConflict = errors.New("conflict")
	// ErrNotFound covers both a missing record and a record owned by someone else.
	ErrNotFound = errors.New("not found or unauthorized")
	// ErrUnauthenticated is a credential mismatch at login or password change.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrAuth is a missing, invalid, expired or revoked bearer token.
	ErrAuth = errors.New("token rejected")
	// ErrInternal is a store or connectivity failure.
	ErrInternal = errors.New("internal server error")
)

var (
	// ErrUserAlreadyExists is returned when phone or account is taken.
	ErrUserAlreadyExists = New(ErrConflict, "user already exists")
	// ErrUserNotFound is returned when the user id or phone does not resolve.
	ErrUserNotFound = New(ErrNotFound, "user not found")
	// ErrInvalidPassword is returned when a password does not match the stored hash.
	ErrInvalidPassword = New(ErrUnauthenticated, "invalid password")
	// ErrSubscriptionNotFound is returned for absent and foreign subscriptions alike.
	ErrSubscriptionNotFound = New(ErrNotFound, "subscription not found or unauthorized")
	// ErrInvalidPreferences is returned when a preferences update lacks a section
	// or carries an empty one.
	ErrInvalidPreferences = New(ErrValidation, "invalid preferences structure")
	// ErrTokenRequired is returned when no bearer token is presented.
	ErrTokenRequired = New(ErrAuth, "access token required")
	// ErrTokenInvalid is returned when the bearer token fails verification.
	ErrTokenInvalid = New(ErrAuth, "invalid or expired token")
)

// DomainError is a caller-facing message tagged with one of the error kinds.
type DomainError struct {
	kind    error
	message string
}

// New creates a DomainError of the given kind.
func New(kind error, message string) *DomainError {
	return &DomainError{kind: kind, message: message}
}

func (e *DomainError) Error() string {
	return e.message
}

// Unwrap exposes the kind to errors.Is.
func (e *DomainError) Unwrap() error {
	return e.kind
}

// ValidationError carries field-level detail for ErrValidation.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, "; ")
}

// Unwrap exposes ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError. When err holds
// validator.ValidationErrors each failed field contributes one message.
func NewValidationError(message string, err error) *ValidationError {
	ve := &ValidationError{Message: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, fieldMessage(fe))
		}
	} else if err != nil {
		ve.Fields = append(ve.Fields, err.Error())
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything that is not a
// known kind becomes a generic 500 so internal detail never leaks.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		httpErr := NewHTTPError(http.StatusBadRequest, ve.Message, "VALIDATION_ERROR")
		httpErr.Fields = ve.Fields
		return httpErr
	}

	var message string
	var de *DomainError
	if errors.As(err, &de) {
		message = de.message
	}

	switch {
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, orDefault(message, ErrValidation), "VALIDATION_ERROR")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusBadRequest, orDefault(message, ErrConflict), "CONFLICT")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, orDefault(message, ErrNotFound), "NOT_FOUND")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, orDefault(message, ErrUnauthenticated), "UNAUTHENTICATED")
	case errors.Is(err, ErrAuth):
		return NewHTTPError(http.StatusForbidden, orDefault(message, ErrAuth), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Error(), "INTERNAL_ERROR")
	}
}

func orDefault(message string, kind error) string {
	if message != "" {
		return message
	}
	return kind.Error()
}
