package errors

import "fmt"

// Error codes used across the pipeline.
const (
	CodeNoTimeColumn     = "NO_TIME_COLUMN"
	CodeNoNumericColumns = "NO_NUMERIC_COLUMNS"
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeReadFailed       = "READ_FAILED"
	CodeWriteFailed      = "WRITE_FAILED"
	CodeStorageFailed    = "STORAGE_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is a structured application error carrying a stable code for
// callers that branch on failure kind.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with a code and message.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap adds context to an error, preserving the code of a wrapped AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: appErr.Code, Message: message, Cause: appErr}
	}
	return &AppError{Code: CodeInternal, Message: message, Cause: err}
}

// WrapCode adds context to an error under an explicit code, regardless of
// what the wrapped error carries.
func WrapCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf adds formatted context to an error.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// CodeOf extracts the code from an error chain, or CodeInternal.
func CodeOf(err error) string {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeInternal
}
