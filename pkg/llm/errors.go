package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-faker/pkg/logging"
)

// ErrorType classifies a provider failure.
//
// Config errors come from construction (unknown provider, missing
// settings). Transport covers failed requests and absent bodies, Provider an
// error envelope returned by the API, Content a response without generated
// text and Parse generated text that is not valid JSON.
type ErrorType string

const (
	ErrorTypeNone      ErrorType = ""
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeProvider  ErrorType = "provider"
	ErrorTypeContent   ErrorType = "content"
	ErrorTypeParse     ErrorType = "parse"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Provider   string    // "openai" or "gemini"
	Model      string    // Model name if known
	Message    string    // Human-readable message
	StatusCode int       // HTTP status code if applicable
	Cause      error     // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return logging.SanitizeText(fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause))
	}
	return logging.SanitizeText(strings.Join(parts, " "))
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, provider, message string, cause error) *Error {
	return &Error{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Cause:    cause,
	}
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypeNone
	}
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

// IsErrorType reports whether err is an *Error of the given type.
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && GetErrorType(err) == errType
}
