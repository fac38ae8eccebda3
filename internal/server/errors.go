package server

import (
	"fmt"
	"net/http"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrSessionNotFound indicates an unknown or already cleaned-up session
type ErrSessionNotFound struct {
	Session string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.Session)
}

// ErrSubjectNotFound indicates the subject code has no reviews in the database
type ErrSubjectNotFound struct {
	Subject string
}

func (e *ErrSubjectNotFound) Error() string {
	return fmt.Sprintf("subject not found: %s", e.Subject)
}

// ErrUpstream indicates a dependency of the server failed
type ErrUpstream struct {
	Name string
	Err  error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s upstream error: %v", e.Name, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrSessionNotFound, *ErrSubjectNotFound:
		return http.StatusNotFound
	case *ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
