package triage

import (
	"errors"
	"fmt"
)

const (
	CodeNoCurrentTab   = "NO_CURRENT_TAB"
	CodeCloseFailed    = "CLOSE_FAILED"
	CodeRestoreFailed  = "RESTORE_FAILED"
	CodeNoActionToUndo = "NO_ACTION_TO_UNDO"
	CodeSourceFailed   = "SOURCE_FAILED"
)

// CodedError is a typed engine error used for stable API mapping.
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

// HasCode reports whether err is a CodedError with the given code.
func HasCode(err error, code string) bool {
	var coded *CodedError
	if !errors.As(err, &coded) {
		return false
	}
	return coded.Code == code
}

// guard runs an actuator call and turns a panic into an error so the engine
// never unwinds past its own boundary.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actuator panic: %v", r)
		}
	}()
	return fn()
}
