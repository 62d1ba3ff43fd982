// Package errors provides the structured error type shared by the onboarding
// HTTP surface and the review workers, plus its BPMN conversion.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Onboarding session errors
const (
	ErrCodeUnauthenticated         ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidSection          ErrorCode = "INVALID_SECTION"
	ErrCodeInvalidPayload          ErrorCode = "INVALID_PAYLOAD"
	ErrCodeSectionValidationFailed ErrorCode = "SECTION_VALIDATION_FAILED"
	ErrCodeInvalidStep             ErrorCode = "INVALID_STEP"
	ErrCodeInvoiceRejected         ErrorCode = "INVOICE_REJECTED"
	ErrCodeIndexOutOfRange         ErrorCode = "INDEX_OUT_OF_RANGE"

	ErrCodeDraftPersistFailed ErrorCode = "DRAFT_PERSIST_FAILED"
	ErrCodeBankConnectFailed  ErrorCode = "BANK_CONNECT_FAILED"
	ErrCodeUnknownBankPartner ErrorCode = "UNKNOWN_BANK_PARTNER"

	ErrCodeSubmissionFailed   ErrorCode = "SUBMISSION_FAILED"
	ErrCodeReviewStartFailed  ErrorCode = "REVIEW_START_FAILED"
	ErrCodeApplicationMissing ErrorCode = "APPLICATION_NOT_FOUND"
)

// Review pipeline errors
const (
	ErrCodeApplicationValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"
	ErrCodeInvalidStatusTransition     ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeDatabaseConnectionFailed    ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseUpdateFailed        ErrorCode = "DATABASE_UPDATE_FAILED"
	ErrCodeIndexFailed                 ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationSendFailed      ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error's metadata and returns the error.
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnauthenticatedError(details string) *StandardError {
	return newError(ErrCodeUnauthenticated, "Authentication required", details, false)
}

func NewInvalidSectionError(section string) *StandardError {
	return newError(ErrCodeInvalidSection, "Unknown draft section", fmt.Sprintf("section: %s", section), false)
}

func NewInvalidPayloadError(details string) *StandardError {
	return newError(ErrCodeInvalidPayload, "Request payload is malformed", details, false)
}

// NewSectionValidationError carries the field error map in Metadata["fieldErrors"].
func NewSectionValidationError(section string, fieldErrors map[string]string) *StandardError {
	e := newError(ErrCodeSectionValidationFailed, "Section validation failed", fmt.Sprintf("section: %s", section), false)
	return e.WithMetadata("fieldErrors", fieldErrors)
}

func NewInvalidStepError(step string) *StandardError {
	return newError(ErrCodeInvalidStep, "Step cannot be edited from the current position", fmt.Sprintf("step: %s", step), false)
}

func NewInvoiceRejectedError(name, reason string) *StandardError {
	return newError(ErrCodeInvoiceRejected, "Invoice upload rejected", fmt.Sprintf("file: %s, reason: %s", name, reason), false)
}

func NewIndexOutOfRangeError(list string, index, length int) *StandardError {
	return newError(ErrCodeIndexOutOfRange, "List index out of range", fmt.Sprintf("%s: index %d, length %d", list, index, length), false)
}

func NewDraftPersistFailedError(err error) *StandardError {
	return newError(ErrCodeDraftPersistFailed, "Draft could not be persisted", err.Error(), true)
}

// NewBankConnectFailedError is retryable: the applicant may reattempt indefinitely.
func NewBankConnectFailedError(bankID, details string) *StandardError {
	return newError(ErrCodeBankConnectFailed, "Bank connection failed", fmt.Sprintf("bankId: %s, %s", bankID, details), true)
}

func NewUnknownBankPartnerError(bankID string) *StandardError {
	return newError(ErrCodeUnknownBankPartner, "Unknown bank partner", fmt.Sprintf("bankId: %s", bankID), false)
}

func NewSubmissionFailedError(err error) *StandardError {
	return newError(ErrCodeSubmissionFailed, "Application submission could not be persisted", err.Error(), true)
}

func NewReviewStartFailedError(err error) *StandardError {
	return newError(ErrCodeReviewStartFailed, "Review process could not be started", err.Error(), true)
}

func NewApplicationNotFoundError(userEmail string) *StandardError {
	return newError(ErrCodeApplicationMissing, "No submitted application", fmt.Sprintf("user: %s", userEmail), false)
}

func NewApplicationValidationFailedError(details string) *StandardError {
	return newError(ErrCodeApplicationValidationFailed, "Application data validation failed", details, false)
}

func NewInvalidStatusTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStatusTransition, "Application status transition not allowed", fmt.Sprintf("from: %s, to: %s", from, to), false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewDatabaseUpdateFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseUpdateFailed, "Database update failed", err.Error(), true)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Search indexing failed", fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseUpdateFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeReviewStartFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError if one is in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeInvalidSection, ErrCodeInvalidPayload, ErrCodeInvalidStep,
		ErrCodeIndexOutOfRange, ErrCodeUnknownBankPartner:
		return http.StatusBadRequest
	case ErrCodeSectionValidationFailed, ErrCodeInvoiceRejected,
		ErrCodeInvalidStatusTransition, ErrCodeApplicationValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeApplicationMissing:
		return http.StatusNotFound
	case ErrCodeBankConnectFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX_FAILED"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BANK"):
		return "BANK"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "REJECTED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
