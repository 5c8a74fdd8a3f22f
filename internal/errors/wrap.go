package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper tags errors from one module operation with a localized
// message for the client.
type ErrorWrapper struct {
	module    string
	operation string
}

// NewWrapper returns a wrapper for operation in module.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{module: module, operation: operation}
}

// Wrap returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Module:      w.module,
		Operation:   w.operation,
		UserMessage: userMessage,
		Cause:       err,
	}
}

// WrappedError carries the internal cause next to the message shown to
// the client. Error() never includes the user message.
type WrappedError struct {
	Module      string // e.g. "curriculum", "records"
	Operation   string // e.g. "search", "vote"
	UserMessage string
	Cause       error
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Module, e.Operation, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user-facing message of the outermost
// WrappedError in the chain, or fallback when there is none.
func GetUserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) && wrapped.UserMessage != "" {
		return wrapped.UserMessage
	}
	return fallback
}

// Origin reports the module and operation of the outermost WrappedError.
func Origin(err error) (module, operation string, ok bool) {
	var wrapped *WrappedError
	if !errors.As(err, &wrapped) {
		return "", "", false
	}
	return wrapped.Module, wrapped.Operation, true
}
