package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryClass indicates whether an error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"     // Definitely retry
	RetryClassMaybe        RetryClass = "maybe"         // Retry with caution (limited attempts)
	RetryClassNonRetryable RetryClass = "non_retryable" // Never retry
)

// EngineError wraps errors with classification metadata.
type EngineError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int    // HTTP status code if applicable
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool   // True if this is a rate limit error
	IsTimeout   bool   // True if this is a timeout error
	IsNetwork   bool   // True if this is a network error
	IsAuth      bool   // True if this is an authentication error
	IsQuota     bool   // True if this is a quota exhaustion error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("engine error: %s", e.Class)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// classRule matches lower-cased error text against a set of fragments.
type classRule struct {
	class     RetryClass
	fragments []string
}

func (r classRule) matches(msg string) bool {
	for _, f := range r.fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

var (
	rateLimitRule = classRule{RetryClassRetryable, []string{"429", "rate limit", "too many requests"}}
	serverRule    = classRule{RetryClassRetryable, []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable", "gateway timeout"}}
	networkRule   = classRule{RetryClassRetryable, []string{"timeout", "connection reset", "connection refused", "no such host", "network", "dns", "temporary failure"}}
	deadlineRule  = classRule{RetryClassMaybe, []string{"context deadline exceeded", "deadline exceeded"}}
	overflowRule  = classRule{RetryClassMaybe, []string{"context length", "token limit", "maximum context length"}}
	authRule      = classRule{RetryClassNonRetryable, []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "authentication failed"}}
	badReqRule    = classRule{RetryClassNonRetryable, []string{"400", "bad request", "invalid request", "malformed"}}
	quotaRule     = classRule{RetryClassNonRetryable, []string{"402", "quota", "billing", "payment required"}}
	safetyRule    = classRule{RetryClassNonRetryable, []string{"content filter", "safety", "guardrail", "policy violation"}}

	// yt-dlp surfaces transient HTTP trouble as "HTTP Error 5xx" or
	// "unable to download webpage"; private or removed videos never recover.
	downloaderTransientRule = classRule{RetryClassRetryable, []string{"unable to download webpage", "http error 5", "incompleteread", "resource temporarily unavailable", "temporary"}}
	downloaderFatalRule     = classRule{RetryClassNonRetryable, []string{"video unavailable", "private video", "unsupported url", "sign in to confirm", "not found", "no such file", "permission denied", "invalid input"}}
)

// llmRules are checked in order; the first match wins.
var llmRules = []classRule{rateLimitRule, serverRule, networkRule, deadlineRule, overflowRule, authRule, badReqRule, quotaRule, safetyRule}

var toolRules = []classRule{downloaderFatalRule, networkRule, serverRule, downloaderTransientRule}

func classify(err error, rules []classRule) RetryClass {
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.matches(msg) {
			return r.class
		}
	}
	return RetryClassNonRetryable
}

// ClassifyLLMError classifies an error from an LLM provider call.
func ClassifyLLMError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Class
	}
	return classify(err, llmRules)
}

// ClassifyToolError classifies an error from a tool execution.
func ClassifyToolError(err error, toolRetryable bool) RetryClass {
	if err == nil || !toolRetryable {
		return RetryClassNonRetryable
	}
	if errors.Is(err, context.Canceled) || IsMalformedToolCall(err) {
		return RetryClassNonRetryable
	}
	return classify(err, toolRules)
}

// ExtractRetryAfter extracts the Retry-After value from an error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	var engineErr *EngineError
	if errors.As(err, &engineErr) && engineErr.RetryAfter != "" {
		if seconds, convErr := strconv.Atoi(engineErr.RetryAfter); convErr == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, parseErr := http.ParseTime(engineErr.RetryAfter); parseErr == nil {
			if d := time.Until(t); d > 0 {
				return d
			}
		}
	}

	var seconds int
	if _, scanErr := fmt.Sscanf(strings.ToLower(err.Error()), "retry after %d", &seconds); scanErr == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// WrapLLMError wraps an LLM provider error with classification metadata.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}

	return &EngineError{
		Err:         err,
		Class:       ClassifyLLMError(err),
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsNetwork:   httpStatus == 0 || httpStatus >= 500,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
		IsQuota:     httpStatus == http.StatusPaymentRequired,
	}
}

// RetryExhaustedError indicates that all retry attempts have been exhausted.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
	IsGuarded   bool // True if this was a "maybe" class error with limited retries
}

func (e *RetryExhaustedError) Error() string {
	if e.IsGuarded {
		return fmt.Sprintf("guarded retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Err
}

// NewRetryExhaustedError creates a new RetryExhaustedError.
func NewRetryExhaustedError(err error, attempts, maxAttempts int, isGuarded bool) *RetryExhaustedError {
	return &RetryExhaustedError{
		Err:         err,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		IsGuarded:   isGuarded,
	}
}

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var retryExhausted *RetryExhaustedError
	return errors.As(err, &retryExhausted)
}

// ToolValidationError indicates that tool arguments failed JSON schema validation.
type ToolValidationError struct {
	ToolName string
	Errors   []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.ToolName, strings.Join(e.Errors, "; "))
}

// ToolArgumentError indicates the model sent arguments that could not be decoded.
type ToolArgumentError struct {
	ToolName string
	Reason   string
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("tool %s received malformed arguments: %s", e.ToolName, e.Reason)
}

// IsMalformedToolCall reports whether err comes from arguments the model got
// wrong. These abort the exchange instead of being fed back to the model.
func IsMalformedToolCall(err error) bool {
	var argErr *ToolArgumentError
	var valErr *ToolValidationError
	return errors.As(err, &argErr) || errors.As(err, &valErr)
}

// StepLimitError is returned when the model keeps calling tools past the step limit.
type StepLimitError struct {
	MaxSteps int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("no final answer after %d steps", e.MaxSteps)
}

// EngineContextError wraps errors with execution context (step, tool, operation).
type EngineContextError struct {
	Err       error
	Step      int
	ToolName  string
	Operation string // "llm_call", "tool_execution"
}

func (e *EngineContextError) Error() string {
	if e.ToolName != "" {
		return fmt.Sprintf("[step=%d op=%s tool=%s] %v", e.Step, e.Operation, e.ToolName, e.Err)
	}
	return fmt.Sprintf("[step=%d op=%s] %v", e.Step, e.Operation, e.Err)
}

func (e *EngineContextError) Unwrap() error {
	return e.Err
}

// WrapWithContext wraps an error with execution context for debugging.
func WrapWithContext(err error, st *State, operation string, toolName string) error {
	if err == nil {
		return nil
	}
	return &EngineContextError{
		Err:       err,
		Step:      st.Step,
		ToolName:  toolName,
		Operation: operation,
	}
}
