// Package apperr defines the typed errors engines raise and the HTTP
// boundary translates. Errors compose with fmt.Errorf("%w") wrapping, so
// callers match them with errors.As after any number of wraps.
package apperr

import "fmt"

// ValidationError reports malformed or missing required input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for a named field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError for an entity kind and id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForbiddenError reports that the actor lacks rights over an entity.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// Forbidden builds a ForbiddenError with the given message.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// UnauthorizedError reports a missing or invalid credential.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string { return e.Message }

// Unauthorized builds an UnauthorizedError with the given message.
func Unauthorized(message string) error {
	return &UnauthorizedError{Message: message}
}

// ConflictError reports a unique-constraint violation.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// Conflict builds a ConflictError with the given message.
func Conflict(message string) error {
	return &ConflictError{Message: message}
}
