package domain

import (
	"errors"
	"fmt"
	"time"
)

// AssessmentError represents a structured error suitable for API responses
// and audit logging. The Code is stable across releases; clients branch on
// it rather than on Message text.
type AssessmentError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	cause     error
}

// Error implements the error interface.
func (e *AssessmentError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("[%s] %s (request: %s)", e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/As matching.
func (e *AssessmentError) Unwrap() error {
	return e.cause
}

// WithRequestID attaches a request correlation ID for tracing.
func (e *AssessmentError) WithRequestID(requestID string) *AssessmentError {
	e.RequestID = requestID
	return e
}

// WithDetails attaches additional structured context.
func (e *AssessmentError) WithDetails(details map[string]any) *AssessmentError {
	e.Details = details
	return e
}

// WithCause attaches the underlying error.
func (e *AssessmentError) WithCause(err error) *AssessmentError {
	e.cause = err
	return e
}

// NewAssessmentError creates a structured error with a timestamp.
func NewAssessmentError(code, message string) *AssessmentError {
	return &AssessmentError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Error codes for programmatic handling.
const (
	ErrCodeInvalidPanel            = "INVALID_PANEL"
	ErrCodeModelUnavailable        = "MODEL_UNAVAILABLE"
	ErrCodeAmbiguousClassification = "AMBIGUOUS_CLASSIFICATION"
	ErrCodeAssessmentNotFound      = "ASSESSMENT_NOT_FOUND"
	ErrCodeStorageFailure          = "STORAGE_FAILURE"
	ErrCodeInternalError           = "INTERNAL_ERROR"
	ErrCodeInferenceTimeout        = "INFERENCE_TIMEOUT"
	ErrCodeRateLimited             = "RATE_LIMIT_EXCEEDED"
)

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a field validation error.
func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// InvalidPanelError wraps a validation failure into a structured
// INVALID_PANEL error for API responses.
func InvalidPanelError(err error) *AssessmentError {
	ae := NewAssessmentError(ErrCodeInvalidPanel, "biomarker panel failed validation").WithCause(err)
	var ve *ValidationError
	if errors.As(err, &ve) {
		ae.Details = map[string]any{
			"field":  ve.Field,
			"reason": ve.Message,
		}
	}
	return ae
}

// ModelUnavailableError reports that the recurrence model produced no
// usable probability. No assessment is emitted in this case; callers must
// not fall back to the stage-based estimate silently.
func ModelUnavailableError(reason string) *AssessmentError {
	return NewAssessmentError(ErrCodeModelUnavailable, "recurrence model unavailable: "+reason).
		WithCause(ErrModelUnavailable)
}
