package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the stable machine-readable classification surfaced to callers.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeStorage           Code = "storage_error"
	CodeInvalidIdentifier Code = "invalid_identifier"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeInternal          Code = "internal"
)

// Error is the canonical error wrapper for ingestion, revision and detection failures.
type Error struct {
	Code      Code
	Op        string
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an error with explicit code + operation.
func New(code Code, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with a code.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(code, op, err.Error(), err)
}

func Validation(op, format string, args ...interface{}) error {
	return New(CodeValidation, op, fmt.Sprintf(format, args...), nil)
}

func InvalidIdentifier(op, message string) error {
	return New(CodeInvalidIdentifier, op, message, nil)
}

func NotFound(op, format string, args ...interface{}) error {
	return New(CodeNotFound, op, fmt.Sprintf(format, args...), nil)
}

// Storage tags err as a transactional failure. Retryable marks failures that are safe to
// replay after backoff (serialization, deadlock, lock timeout, unique race).
func Storage(op string, err error, retryable bool) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeStorage, Op: strings.TrimSpace(op), Message: err.Error(), Retryable: retryable, Cause: err}
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code Code) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Code == code
}

// CodeOf extracts the code when available.
func CodeOf(err error) Code {
	var fe *Error
	if !errors.As(err, &fe) {
		return ""
	}
	return fe.Code
}

func IsRetryable(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Retryable
}

// PublicMessage is the caller-facing text. Storage and internal failures never leak their cause.
func PublicMessage(err error) string {
	var fe *Error
	if !errors.As(err, &fe) {
		return "internal error"
	}
	switch fe.Code {
	case CodeStorage:
		return "storage failure; the request was rolled back and may be retried"
	case CodeInternal, "":
		return "internal error"
	default:
		if fe.Message != "" {
			return fe.Message
		}
		return string(fe.Code)
	}
}
