package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried by AppError.
const (
	CodeIngestion        = "INGESTION_ERROR"
	CodeExtraction       = "EXTRACTION_ERROR"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeRender           = "RENDER_ERROR"
	CodeConfig           = "CONFIG_ERROR"
	CodeCanceled         = "CANCELED"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Stage   string
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

// Is matches the kind sentinels below by code, so errors.Is(err, ErrIngestion)
// holds for every ingestion failure regardless of message or cause.
func (e *AppError) Is(target error) bool {
	var k *kind
	if errors.As(target, &k) {
		return k.code == e.Code
	}
	return false
}

type kind struct{ code string }

func (k *kind) Error() string { return k.code }

// Pipeline error kinds.
var (
	ErrIngestion        error = &kind{CodeIngestion}
	ErrExtraction       error = &kind{CodeExtraction}
	ErrModelUnavailable error = &kind{CodeModelUnavailable}
	ErrRender           error = &kind{CodeRender}
	ErrConfig           error = &kind{CodeConfig}
	ErrCanceled         error = &kind{CodeCanceled}
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IngestionError reports bad, unsupported or oversized input.
func IngestionError(message string, cause error) *AppError {
	return &AppError{Code: CodeIngestion, Stage: "ingest", Message: message, Cause: cause}
}

// ExtractionError reports that no text or layout could be extracted.
func ExtractionError(message string, cause error) *AppError {
	return &AppError{Code: CodeExtraction, Stage: "extract", Message: message, Cause: cause}
}

// ModelUnavailableError reports that a shared model could not be loaded or reached.
func ModelUnavailableError(message string, cause error) *AppError {
	return &AppError{Code: CodeModelUnavailable, Stage: "models", Message: message, Cause: cause}
}

// RenderError reports an artifact I/O failure.
func RenderError(message string, cause error) *AppError {
	return &AppError{Code: CodeRender, Stage: "render", Message: message, Cause: cause}
}

// CanceledError reports that the caller canceled the run between stages.
func CanceledError(stage string, cause error) *AppError {
	return &AppError{Code: CodeCanceled, Stage: stage, Message: "run canceled before " + stage, Cause: cause}
}

// CodeOf returns the AppError code of err, or "" when err is not an AppError.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ToStatus maps pipeline errors onto gRPC status errors.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrIngestion):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrExtraction):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrModelUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrCanceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
