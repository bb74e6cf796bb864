// Package errors provides the standardized error taxonomy used by the automation cycle.
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

// UI automation errors
const (
	ErrCodeTransientUI        ErrorCode = "TRANSIENT_UI_ERROR"
	ErrCodeChallengeDetected  ErrorCode = "CHALLENGE_DETECTED"
	ErrCodeExternalRedirect   ErrorCode = "EXTERNAL_REDIRECT"
	ErrCodeStepBudgetExceeded ErrorCode = "STEP_BUDGET_EXCEEDED"
	ErrCodeUnhandledException ErrorCode = "UNHANDLED_EXCEPTION"
	ErrCodeBrowserStartFailed ErrorCode = "BROWSER_START_FAILED"
)

// Phase errors, raised once the retry budget of a phase is spent
const (
	ErrCodeLoginFailed  ErrorCode = "LOGIN_FAILED"
	ErrCodeFilterFailed ErrorCode = "FILTER_FAILED"
	ErrCodeSearchFailed ErrorCode = "SEARCH_FAILED"
)

// Persistence / integration errors
const (
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
	ErrCodeLedgerWriteFailed      ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeAppliedSetFailed       ErrorCode = "APPLIED_SET_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any StandardError carrying the same code, so callers can write
// errors.Is(err, &StandardError{Code: ErrCodeChallengeDetected}).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
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

// NewTransientUIError wraps a timeout or missing element. Retryable.
func NewTransientUIError(operation string, err error) *StandardError {
	return newError(ErrCodeTransientUI, "UI element not available", fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewChallengeDetectedError reports a verification challenge after login.
func NewChallengeDetectedError(url string) *StandardError {
	e := newError(ErrCodeChallengeDetected, "Verification challenge detected", fmt.Sprintf("url: %s", url), false, nil)
	e.Metadata = map[string]interface{}{"url": url}
	return e
}

// NewExternalRedirectError reports an apply button that left the platform.
func NewExternalRedirectError(url string) *StandardError {
	e := newError(ErrCodeExternalRedirect, "Application redirected to external site", fmt.Sprintf("url: %s", url), false, nil)
	e.Metadata = map[string]interface{}{"url": url}
	return e
}

// NewStepBudgetExceededError reports a form that needed more advances than allowed.
func NewStepBudgetExceededError(advances int) *StandardError {
	return newError(ErrCodeStepBudgetExceeded, "Application step budget exceeded", fmt.Sprintf("advances: %d", advances), false, nil)
}

// NewUnhandledExceptionError wraps anything that escaped to the cycle boundary.
func NewUnhandledExceptionError(err error) *StandardError {
	return newError(ErrCodeUnhandledException, "Unhandled error in job search cycle", err.Error(), false, err)
}

func NewBrowserStartFailedError(err error) *StandardError {
	return newError(ErrCodeBrowserStartFailed, "Browser session could not be started", err.Error(), true, err)
}

func NewLoginFailedError(attempts int, err error) *StandardError {
	return newError(ErrCodeLoginFailed, "Login failed", fmt.Sprintf("attempts: %d, error: %v", attempts, err), false, err)
}

func NewFilterFailedError(err error) *StandardError {
	return newError(ErrCodeFilterFailed, "Search filters could not be applied", err.Error(), false, err)
}

func NewSearchFailedError(keyword string, err error) *StandardError {
	e := newError(ErrCodeSearchFailed, "Keyword search failed", fmt.Sprintf("keyword: %s, error: %v", keyword, err), false, err)
	e.Metadata = map[string]interface{}{"keyword": keyword}
	return e
}

func NewConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeConfigInvalid, "Configuration is invalid", details, false, nil)
}

// NewLedgerWriteFailedError creates a retryable ledger persistence error.
func NewLedgerWriteFailedError(sink string, err error) *StandardError {
	return newError(ErrCodeLedgerWriteFailed, "Job ledger write failed", fmt.Sprintf("sink: %s, error: %v", sink, err), true, err)
}

func NewAppliedSetFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeAppliedSetFailed, "Applied job set operation failed", fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewNotificationSendFailedError creates a notification error. Callers log it; it is never retried.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %v", channel, err), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTransientUI:            "TRANSIENT_UI_ERROR",
	ErrCodeChallengeDetected:      "CHALLENGE_DETECTED",
	ErrCodeExternalRedirect:       "EXTERNAL_REDIRECT",
	ErrCodeStepBudgetExceeded:     "STEP_BUDGET_EXCEEDED",
	ErrCodeUnhandledException:     "CYCLE_FAILED",
	ErrCodeBrowserStartFailed:     "BROWSER_START_FAILED",
	ErrCodeLoginFailed:            "LOGIN_FAILED",
	ErrCodeFilterFailed:           "CYCLE_FAILED",
	ErrCodeConfigInvalid:          "CONFIG_INVALID",
	ErrCodeLedgerWriteFailed:      "LEDGER_WRITE_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransientUI,
		ErrCodeLedgerWriteFailed,
		ErrCodeAppliedSetFailed:
		return 3

	case ErrCodeBrowserStartFailed:
		return 2

	default:
		return 0 // challenge, redirect, budget and phase failures need a human or a new cycle
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

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &StandardError{Code: code})
}

// IsTransient reports whether err is a timeout-class UI failure.
func IsTransient(err error) bool {
	return HasCode(err, ErrCodeTransientUI)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UI") || strings.Contains(codeStr, "BROWSER"):
		return "BROWSER"
	case strings.Contains(codeStr, "CHALLENGE") || strings.Contains(codeStr, "LOGIN"):
		return "SESSION"
	case strings.Contains(codeStr, "REDIRECT") || strings.Contains(codeStr, "STEP"):
		return "APPLICATION"
	case strings.Contains(codeStr, "FILTER") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "LEDGER") || strings.Contains(codeStr, "APPLIED"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CONFIG"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
