package pipeline

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a pipeline failure class. Codes are stable strings that
// appear in API error bodies and metrics labels.
type Code string

const (
	CodeUnsupportedFormat        Code = "unsupported_format"
	CodeFileTooLarge             Code = "file_too_large"
	CodeTranscriptionUnavailable Code = "transcription_unavailable"
	CodeTranscriptionService     Code = "transcription_service_error"
	CodeGenerationService        Code = "generation_service_error"
	CodeAuthConfiguration        Code = "auth_configuration_error"
	CodeAuthRejected             Code = "auth_rejected"
	CodeBlobCleanupFailed        Code = "blob_cleanup_failed"
	CodeExportFailed             Code = "export_failed"
	CodeInvalidInput             Code = "invalid_input"
	CodeBusy                     Code = "operation_in_progress"
	CodeInvalidState             Code = "invalid_state"
)

// Error is a classified pipeline failure. Message is user-facing; Cause
// carries the underlying error for logs.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Errorf builds a classified error with a formatted user-facing message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a classification to an underlying error.
func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// CodeOf extracts the pipeline code from an error chain. Unclassified
// errors report as generic service failures.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// UserMessage returns the user-facing message for an error chain, falling
// back to the raw error text for unclassified errors.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// HTTPStatus maps a failure class to its HTTP status: caller input errors
// are 400, auth rejection 401, sequencing violations 409, everything
// upstream or unexpected 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeUnsupportedFormat, CodeFileTooLarge, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeAuthRejected:
		return http.StatusUnauthorized
	case CodeBusy, CodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
