// Package apperror defines the error taxonomy shared by every module.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers.
type Kind string

const (
	// KindValidation marks malformed or constraint-violating input.
	KindValidation Kind = "validation_failed"
	// KindNotFound marks a missing resource.
	KindNotFound Kind = "not_found"
	// KindInternal marks an unexpected storage or infrastructure failure.
	KindInternal Kind = "internal_failure"
)

// internalMessage is the only text an internal failure exposes.
const internalMessage = "internal error"

// Error is a classified error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a validation failure carrying per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "The given data was invalid.",
		Fields:  fields,
	}
}

// NotFound returns a not-found error with a resource-specific message.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: internalMessage, Err: err}
}

// KindOf classifies err. Unclassified errors are internal failures.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// Payload is the wire form of an Error carried inside request-reply responses.
// It never contains the underlying cause of an internal failure.
type Payload struct {
	Kind    Kind                `json:"kind"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// ToPayload converts err into its wire form.
func ToPayload(err error) *Payload {
	if err == nil {
		return nil
	}
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return &Payload{Kind: KindInternal, Message: internalMessage}
	}
	return &Payload{
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
}

// Err converts a payload back into an *Error. A nil payload yields nil.
func (p *Payload) Err() error {
	if p == nil {
		return nil
	}
	switch p.Kind {
	case KindValidation, KindNotFound:
		return &Error{Kind: p.Kind, Message: p.Message, Fields: p.Fields}
	default:
		return &Error{Kind: KindInternal, Message: internalMessage}
	}
}
