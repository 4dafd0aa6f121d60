package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/study-agent/internal/auth"
	"github.com/jonathan/study-agent/internal/extract"
	"github.com/jonathan/study-agent/internal/study"
	"github.com/jonathan/study-agent/internal/users"
)

// User-facing error messages.
const (
	msgUsernameTaken      = "Username already exists"
	msgInvalidCredentials = "Invalid username or password"
	msgSummarizationError = "Internal summarization error"
	msgInvalidBody        = "Invalid request body"
	msgPasswordTooLong    = "Password is too long"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the status code for an error.
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var extraction *extract.Error
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrAlreadyExists), errors.Is(err, users.ErrInvalidCredentials),
		errors.Is(err, auth.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.As(err, &extraction), errors.Is(err, study.ErrConfig):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the message safe to show a client for err.
func publicMessage(err error) string {
	var validation *ErrValidation
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.Is(err, users.ErrAlreadyExists):
		return msgUsernameTaken
	case errors.Is(err, users.ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, auth.ErrPasswordTooLong):
		return msgPasswordTooLong
	case errors.Is(err, study.ErrConfig):
		return msgSummarizationError
	default:
		return http.StatusText(http.StatusInternalServerError)
	}
}

// fileFailureMessage is the message for a failed upload route.
func fileFailureMessage(action string, format extract.Format) string {
	return fmt.Sprintf("Failed to %s %s", action, format.Label())
}

// validationError converts the first validator failure into an ErrValidation.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &ErrValidation{Field: ve[0].Field(), Message: ve[0].Tag()}
	}
	return &ErrValidation{Field: "request", Message: "invalid"}
}
