package cdpcontrol

import (
	"errors"
	"fmt"
)

const (
	CodeValidation     = "VALIDATION"
	CodeCDPUnavailable = "CDP_UNAVAILABLE"
	CodeTabNotFound    = "TAB_NOT_FOUND"
	CodeCommandFailed  = "COMMAND_FAILED"
	CodeTokenNotFound  = "TOKEN_NOT_FOUND"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// NewError builds a CodedError for callers outside this package that speak
// the same browser-level codes.
func NewError(code, msg string, cause error) error {
	return newError(code, msg, cause)
}

// HasCode reports whether err is a CodedError with the given code.
func HasCode(err error, code string) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}
