// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Generation pipeline errors
const (
	ErrCodeLLMAuthFailed       ErrorCode = "LLM_AUTH_FAILED"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed ErrorCode = "LLM_GENERATION_FAILED"
	ErrCodeLLMRetriesExhausted ErrorCode = "LLM_RETRIES_EXHAUSTED"
	ErrCodeLLMNotConfigured    ErrorCode = "LLM_NOT_CONFIGURED"

	ErrCodeExtractionFailed       ErrorCode = "RESPONSE_EXTRACTION_FAILED"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"

	ErrCodeCustomComponentFailed ErrorCode = "CUSTOM_COMPONENT_GENERATION_FAILED"
)

// Worker-level errors
const (
	ErrCodeInputParsingFailed ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// Broker errors
const (
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata attaches a metadata entry and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewLLMAuthError is returned when the upstream rejects the credential or the request.
func NewLLMAuthError(message string, cause error) *StandardError {
	return newError(ErrCodeLLMAuthFailed, message, cause, false)
}

// NewLLMTimeoutError reports a single attempt that exceeded its deadline.
func NewLLMTimeoutError(timeout time.Duration) *StandardError {
	err := newError(ErrCodeLLMTimeout, "Request timed out", nil, true)
	err.Details = fmt.Sprintf("attempt exceeded %s", timeout)
	return err
}

// NewLLMGenerationError wraps a retryable upstream failure.
func NewLLMGenerationError(message string, cause error) *StandardError {
	return newError(ErrCodeLLMGenerationFailed, message, cause, true)
}

// NewRetriesExhaustedError is the aggregate failure after every attempt failed.
func NewRetriesExhaustedError(attempts int, last error) *StandardError {
	lastMsg := "Unknown error"
	if last != nil {
		lastMsg = MessageOf(last)
	}
	err := newError(ErrCodeLLMRetriesExhausted,
		fmt.Sprintf("Failed to generate schema after %d attempts: %s", attempts, lastMsg),
		last, true)
	return err.WithMetadata("attempts", attempts)
}

// NewNotConfiguredError is returned when no usable API credential exists.
func NewNotConfiguredError(message string) *StandardError {
	return newError(ErrCodeLLMNotConfigured, message, nil, false)
}

// NewExtractionError reports that no payload could be recovered from model text.
func NewExtractionError(message string, cause error) *StandardError {
	return newError(ErrCodeExtractionFailed, message, cause, false)
}

// NewSchemaValidationError reports a structurally invalid or empty schema.
func NewSchemaValidationError(reason string, cause error) *StandardError {
	return newError(ErrCodeSchemaValidationFailed, "Invalid schema: "+reason, cause, false)
}

// NewCustomComponentError wraps any code-artifact failure. Retryability follows the cause.
func NewCustomComponentError(cause error) *StandardError {
	retryable := false
	if stdErr, ok := AsStandardError(cause); ok {
		retryable = stdErr.Retryable
	}
	return newError(ErrCodeCustomComponentFailed,
		"Failed to generate custom component: "+MessageOf(cause), cause, retryable)
}

// NewInputParsingError reports job variables that could not be decoded.
func NewInputParsingError(cause error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", cause, false)
}

// NewInputValidationError reports job variables that failed schema validation.
func NewInputValidationError(details string) *StandardError {
	err := newError(ErrCodeValidationFailed, "Input validation failed", nil, false)
	err.Details = details
	return err
}

// NewCacheError reports an unreachable or failing result cache.
func NewCacheError(cause error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Result cache unavailable", cause, true)
}

// NewExternalServiceError wraps a transient failure of a dependency such as the broker.
func NewExternalServiceError(service string, cause error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("%s is unavailable", service), cause, true).
		WithMetadata("service", service)
}

// NewTimeoutError reports a dependency call that ran past its deadline.
func NewTimeoutError(service string, cause error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("%s request timed out", service), cause, true).
		WithMetadata("service", service)
}

// NewAuthenticationError reports rejected credentials on a dependency.
func NewAuthenticationError(message string) *StandardError {
	return newError(ErrCodeAuthentication, message, nil, false)
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(cause error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", cause, false)
}

// ==========================
// 4. Inspection Helpers
// ==========================

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether any StandardError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if stdErr, ok := err.(*StandardError); ok && stdErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// MessageOf returns the human message of a StandardError, or err.Error() otherwise.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Message
	}
	return err.Error()
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLLMAuthFailed:          "LLM_AUTH_FAILED",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
	ErrCodeLLMGenerationFailed:    "LLM_GENERATION_FAILED",
	ErrCodeLLMRetriesExhausted:    "LLM_RETRIES_EXHAUSTED",
	ErrCodeLLMNotConfigured:       "LLM_NOT_CONFIGURED",
	ErrCodeExtractionFailed:       "RESPONSE_EXTRACTION_FAILED",
	ErrCodeSchemaValidationFailed: "SCHEMA_VALIDATION_FAILED",
	ErrCodeCustomComponentFailed:  "CUSTOM_COMPONENT_GENERATION_FAILED",
	ErrCodeInputParsingFailed:     "INPUT_PARSING_FAILED",
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeLLMGenerationFailed,
		ErrCodeCacheUnavailable,
		ErrCodeExternalService:
		return 3

	case ErrCodeLLMRetriesExhausted,
		ErrCodeCustomComponentFailed:
		return 2

	case ErrCodeLLMTimeout,
		ErrCodeTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	// The custom component wrapper reports the code of whatever failed underneath.
	if cause, ok := AsStandardError(stdErr.Cause); ok {
		vars["causeErrorCode"] = string(cause.Code)
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 6. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "SCHEMA") ||
		strings.Contains(codeStr, "EXTRACTION") ||
		strings.Contains(codeStr, "COMPONENT"):
		return "FORM"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
