package services

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed or out-of-range input. Handlers map it to a
// plain 400 without a business-rule reason code.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Business-rule reason codes surfaced to API clients.
const (
	ReasonDisabled                  = "disabled"
	ReasonBelowMinimum              = "below_minimum"
	ReasonInsufficientBalance       = "insufficient_balance"
	ReasonWouldGoNegative           = "would_go_negative"
	ReasonExpiredOrInactive         = "expired_or_inactive"
	ReasonMinimumPurchaseNotMet     = "minimum_purchase_not_met"
	ReasonUsageLimitReached         = "usage_limit_reached"
	ReasonCustomerUsageLimitReached = "customer_usage_limit_reached"
)

// RuleError is a recoverable business-rule violation. Callers can retry with
// corrected input; it never indicates a system fault.
type RuleError struct {
	Reason  string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleError(reason, message string) *RuleError {
	return &RuleError{Reason: reason, Message: message}
}
