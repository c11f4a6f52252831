package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrReportNotFound     = errors.New("report not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrDuplicateCode      = errors.New("survey code already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal server error")

	// ErrNoConnection is returned when a sync is attempted while the device is offline.
	ErrNoConnection = errors.New("no connection")
	// ErrPersistence marks a durable write rejected by the store.
	ErrPersistence = errors.New("persistence failure")
	// ErrValidation marks a malformed request.
	ErrValidation = errors.New("validation failure")
)

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
