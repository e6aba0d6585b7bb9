package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is against any error returned by the
// runner or carried in a Result.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrCapabilityUnavailable  = errors.New("capability unavailable")
	ErrAdapterExecutionFailed = errors.New("adapter execution failed")
	ErrAllAdaptersExhausted   = errors.New("all adapters exhausted")
)

// Error is a kind-tagged failure with optional adapter and tool context.
type Error struct {
	Kind    error
	Adapter string
	Message string
	Detail  string // tail of the external tool's stderr, if any
	Err     error
}

// Error formats failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	if e.Adapter != "" {
		b.WriteString(e.Adapter)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(lastLine(e.Detail))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause for errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// InvalidInput returns an ErrInvalidInput error with a formatted message.
func InvalidInput(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Unavailable reports that tool is not installed or not reachable.
func Unavailable(adapter, tool string, cause error) error {
	return &Error{
		Kind:    ErrCapabilityUnavailable,
		Adapter: adapter,
		Message: fmt.Sprintf("%s not found", tool),
		Err:     cause,
	}
}

// ExecutionFailed reports a tool that ran and failed.
func ExecutionFailed(adapter, message, detail string, cause error) error {
	return &Error{
		Kind:    ErrAdapterExecutionFailed,
		Adapter: adapter,
		Message: message,
		Detail:  detail,
		Err:     cause,
	}
}

// Exhausted wraps the last adapter failure of a chain.
func Exhausted(last error) error {
	return &Error{Kind: ErrAllAdaptersExhausted, Err: last}
}

// KindOf returns the most specific error kind found in err's chain.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidInput,
		ErrCapabilityUnavailable,
		ErrAdapterExecutionFailed,
		ErrAllAdaptersExhausted,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n ")
	if idx := strings.LastIndexAny(s, "\r\n"); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return strings.TrimSpace(s)
}
