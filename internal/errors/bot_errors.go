package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies engine errors by how they must be handled.
type ErrorCategory string

const (
	// Fatal at startup, never recovered.
	ErrorCategoryConfig ErrorCategory = "CONFIG"

	// Bad market data: backtest aborts the run, live surfaces a gap
	// event and skips to the next valid bar.
	ErrorCategoryData ErrorCategory = "DATA"

	// Attempted double-open, signal during emergency and similar
	// violations: reported as a warning and treated as a no-op.
	ErrorCategoryInvariant ErrorCategory = "INVARIANT"

	// Order submission failures (live only), retryable up to the
	// executor's policy.
	ErrorCategoryOrder ErrorCategory = "ORDER"

	// Transient transport/network problems.
	ErrorCategoryNetwork ErrorCategory = "NETWORK"
)

// BotError is a categorized error with component context.
type BotError struct {
	Category   ErrorCategory
	Component  string
	Message    string
	Underlying error
}

func (e *BotError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Component, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Component, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *BotError) Unwrap() error {
	return e.Underlying
}

// IsFatal reports whether the error must stop the process.
func (e *BotError) IsFatal() bool {
	return e.Category == ErrorCategoryConfig
}

// IsRetryable reports whether the failed operation may be retried.
func (e *BotError) IsRetryable() bool {
	return e.Category == ErrorCategoryOrder || e.Category == ErrorCategoryNetwork
}

// NewConfigError creates a fatal configuration error.
func NewConfigError(component, format string, args ...interface{}) *BotError {
	return &BotError{
		Category:  ErrorCategoryConfig,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewDataError creates a market-data error.
func NewDataError(component, format string, args ...interface{}) *BotError {
	return &BotError{
		Category:  ErrorCategoryData,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewInvariantError creates a state-invariant violation. Callers log it
// and continue; it is never propagated as a crash.
func NewInvariantError(component, format string, args ...interface{}) *BotError {
	return &BotError{
		Category:  ErrorCategoryInvariant,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewOrderError wraps an order submission failure.
func NewOrderError(component string, err error) *BotError {
	return &BotError{
		Category:   ErrorCategoryOrder,
		Component:  component,
		Message:    "order submission failed",
		Underlying: err,
	}
}

// WrapNetworkError wraps a transport failure.
func WrapNetworkError(component string, err error) *BotError {
	if err == nil {
		return nil
	}
	return &BotError{
		Category:   ErrorCategoryNetwork,
		Component:  component,
		Message:    "network operation failed",
		Underlying: err,
	}
}

// CategoryOf extracts the category from an error, unwrapping as needed,
// or "" when no BotError is in the chain.
func CategoryOf(err error) ErrorCategory {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.Category
	}
	return ""
}
