// Package status defines the error taxonomy shared by the kernels and the stream
// runtime, and maps errors onto return codes for callers that want a code instead
// of an error value.
package status

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidValue is returned when an argument fails validation: a nil buffer,
	// a non-positive dimension, a stride that is too small, a buffer that is too
	// short, or an unrecognized border type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupported is returned for a numeric domain and channel count pair outside
	// the supported matrix. It belongs to the invalid-value class.
	ErrUnsupported = errors.Wrap(ErrInvalidValue, "unsupported configuration")

	// ErrRuntime is returned when work cannot be enqueued or fails while executing.
	ErrRuntime = errors.New("runtime error")
)

// Code is the return code of an operation.
type Code int

const (
	// Success means the operation was validated and enqueued.
	Success Code = iota
	// InvalidValue means validation failed before anything was enqueued.
	InvalidValue
	// RuntimeError means the enqueue itself or the enqueued work failed.
	RuntimeError
	// OtherError covers errors that did not originate in this module.
	OtherError
)

// String returns the name of the code.
func (c Code) String() string {
	switch c {
	case Success:
		return "success"
	case InvalidValue:
		return "invalid value"
	case RuntimeError:
		return "runtime error"
	default:
		return "other error"
	}
}

// CodeOf maps an error returned by this module onto its Code.
//
// Arguments:
// - err: The error to classify, nil is Success.
//
// Returns:
// - The Code of the error.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInvalidValue):
		return InvalidValue
	case errors.Is(err, ErrRuntime):
		return RuntimeError
	default:
		return OtherError
	}
}

// Invalidf wraps ErrInvalidValue with a formatted message.
func Invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidValue, format, args...)
}

// Unsupportedf wraps ErrUnsupported with a formatted message.
func Unsupportedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupported, format, args...)
}

// Runtimef wraps ErrRuntime with a formatted message.
func Runtimef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRuntime, format, args...)
}
