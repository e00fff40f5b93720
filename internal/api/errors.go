package api

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultFailureMessage is shown when the backend supplies no message of its own.
const DefaultFailureMessage = "something went wrong, please try again"

var (
	// ErrMalformedResponse indicates a payload that did not match the expected shape.
	ErrMalformedResponse = errors.New("api: malformed response payload")
	// ErrNoDraftID indicates a create-draft response without a transaction id.
	ErrNoDraftID = errors.New("api: draft response missing transaction id")
)

// FieldError is a single field-level validation failure from the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the structured failure shape every non-2xx response decodes into.
type Error struct {
	StatusCode int          `json:"statusCode"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultFailureMessage
	}
	return fmt.Sprintf("api: %s (status %d)", msg, e.StatusCode)
}

// IsNotFound reports whether the failure is a 404.
func (e *Error) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsConflict reports whether the failure is a 409, typically a duplicate name or SKU.
func (e *Error) IsConflict() bool { return e.StatusCode == http.StatusConflict }

// IsFieldValidation reports whether the failure is a 400 carrying field errors.
func (e *Error) IsFieldValidation() bool {
	return e.StatusCode == http.StatusBadRequest && len(e.Fields) > 0
}

// UserMessage returns the banner text for this failure, falling back to the
// generic default when the backend supplied none.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return DefaultFailureMessage
}

// AsError extracts a structured backend failure from err, if present.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
