package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Every error leaving a service unwraps to one of these.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrFileValidation   = errors.New("file validation failed")
	ErrExtraction       = errors.New("extraction failed")
	ErrValidation       = errors.New("validation failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrPersistence      = errors.New("persistence failed")
	ErrInternal         = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FileValidationError rejects an upload before any work is done.
func FileValidationError(message string) error {
	return NewAppError("FILE_INVALID", message, ErrFileValidation)
}

// ValidationErrorf rejects a request payload with a specific reason.
func ValidationErrorf(format string, args ...any) error {
	return NewAppError("VALIDATION_FAILED", fmt.Sprintf(format, args...), ErrValidation)
}

// ExtractionError wraps a failure in text acquisition or field extraction.
func ExtractionError(message string, cause error) error {
	if cause == nil {
		return NewAppError("EXTRACTION_FAILED", message, ErrExtraction)
	}
	return NewAppError("EXTRACTION_FAILED", message, fmt.Errorf("%w: %w", ErrExtraction, cause))
}

// PersistenceError wraps a storage failure.
func PersistenceError(message string, cause error) error {
	if cause == nil {
		return NewAppError("PERSISTENCE_FAILED", message, ErrPersistence)
	}
	return NewAppError("PERSISTENCE_FAILED", message, fmt.Errorf("%w: %w", ErrPersistence, cause))
}

// NotFound reports a missing invoice, user or other record.
func NotFound(message string) error {
	return NewAppError("NOT_FOUND", message, ErrNotFound)
}

// DenialReason says which guard refused an operation.
type DenialReason string

const (
	DenyNotUploader     DenialReason = "not_uploader"
	DenyWrongDepartment DenialReason = "wrong_department"
	DenyWrongStatus     DenialReason = "wrong_status"
	DenyWrongRole       DenialReason = "wrong_role"
	DenyInactiveUser    DenialReason = "inactive_user"
)

// PermissionError is a guard refusal with a human-readable message.
type PermissionError struct {
	Reason  DenialReason
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied (%s): %s", e.Reason, e.Message)
}

func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }

func Deny(reason DenialReason, message string) error {
	return &PermissionError{Reason: reason, Message: message}
}

// DenialReasonOf returns the guard reason carried by err, if any.
func DenialReasonOf(err error) (DenialReason, bool) {
	var pe *PermissionError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "", false
}

// GRPCStatus converts a taxonomy error into a transport status.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := err.Error()
	var ae *AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	var pe *PermissionError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, msg)
	case errors.Is(err, ErrFileValidation), errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, msg)
	case errors.Is(err, ErrExtraction):
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}
