package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// ValidationError is a domain error tied to specific document positions.
// Validation failures are reported to the caller, never silently corrected.
type ValidationError struct {
	MessageKey      string `json:"message_key"`
	PositionNumbers []int  `json:"position_numbers"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.PositionNumbers) == 0 {
		return e.MessageKey
	}
	nums := make([]string, len(e.PositionNumbers))
	for i, n := range e.PositionNumbers {
		nums[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s (positions %s)", e.MessageKey, strings.Join(nums, ", "))
}

// NewValidationError creates a validation error for the given position numbers
func NewValidationError(messageKey string, positionNumbers ...int) *ValidationError {
	return &ValidationError{
		MessageKey:      messageKey,
		PositionNumbers: positionNumbers,
	}
}
