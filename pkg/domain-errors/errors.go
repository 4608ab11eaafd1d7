// Package domainerrors defines the coded error type shared by every service.
//
// Services return *Error values so transports can branch on Code instead of
// message text. Stores never return these directly; they return sentinel
// errors (pkg/platform/sentinel) which services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

// Lifecycle and reconciliation codes.
const (
	CodeNotFound           Code = "not_found"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeUnauthorized       Code = "unauthorized"
	CodePreconditionFailed Code = "precondition_failed"
	CodeDuplicateContent   Code = "duplicate_content"
	CodeMissingIdentifier  Code = "missing_identifier"
	CodeValidationFailed   Code = "validation_failed"
)

// General purpose codes.
const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error. Details carries structured context for the
// caller (for example a TransitionRejection) and may be nil.
type Error struct {
	Code    Code
	Message string
	Details any
	Err     error
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

// New builds a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetails builds a coded error carrying structured details.
func WithDetails(code Code, msg string, details any) error {
	return &Error{Code: code, Message: msg, Details: details}
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailsOf returns the details of the outermost coded error, if any.
func DetailsOf(err error) any {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// TransitionRejection describes a rejected lifecycle transition.
type TransitionRejection struct {
	Current string   `json:"current_state"`
	Target  string   `json:"target_state"`
	Allowed []string `json:"allowed_states"`
}

// NewInvalidTransition reports that target is unreachable from current.
func NewInvalidTransition(current, target string, allowed []string) error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", current, target),
		Details: TransitionRejection{Current: current, Target: target, Allowed: allowed},
	}
}
