package types

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeMalformed  ErrorType = "malformed"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeCancelled  ErrorType = "cancelled"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// MedAidError represents a structured error in the Med-Aid platform
type MedAidError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *MedAidError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *MedAidError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewUpstreamError creates a new upstream connection error
func NewUpstreamError(code, message string, cause error) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeUpstream,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(code, message string) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeTimeout,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(code, message string) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *MedAidError {
	return &MedAidError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
