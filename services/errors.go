package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/hackathon-registration/forms"
)

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	ErrValidationFailed = errors.New("validation failed")

	ErrRegistrationClosed   = errors.New("registration is closed")
	ErrRegistrationConflict = errors.New("a project with this name is already registered")
	ErrRegistrationNotFound = errors.New("registration not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAdminDisabled      = errors.New("organizer access is not configured")

	ErrExportUnavailable = errors.New("export storage is not configured")
)

// ValidationError carries the per-field messages of a rejected form.
type ValidationError struct {
	Fields forms.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d invalid field(s)", ErrValidationFailed, len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
