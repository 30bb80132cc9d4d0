package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/roadside-assist/internal/policy"
	"github.com/iliyamo/roadside-assist/internal/repository"
)

var (
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("role mismatch")
	ErrPhoneExists        = errors.New("phone already registered")
	ErrAdminSignup        = errors.New("admin signup not allowed")
	ErrConflict           = errors.New("conflict")

	// shared with the lower layers so errors.Is works across them
	ErrForbidden = policy.ErrForbidden
	ErrNotFound  = repository.ErrNotFound
)

// ValidationError reports one rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// asValidation turns a store-level NotFound for a referenced id into a
// validation error on that field; other errors pass through.
func asValidation(err error, field string) error {
	if errors.Is(err, ErrNotFound) {
		return invalid(field, "does not exist")
	}
	return err
}
