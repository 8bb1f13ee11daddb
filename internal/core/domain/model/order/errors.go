package order

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a business-rule rejection of a proposed mutation.
// Categories are stable identifiers surfaced to the conversation layer, which
// selects a clarifying question or an alternative proposal from them.
type ErrorCategory int

const (
	// CategoryUnknown is the zero value and never produced by validation.
	CategoryUnknown ErrorCategory = iota

	// CategoryItemNotFound means the referenced menu item does not exist.
	CategoryItemNotFound

	// CategoryItemUnavailable means the menu item exists but is out of stock
	// or disabled for the restaurant.
	CategoryItemUnavailable

	// CategoryInvalidQuantity means a quantity fell outside its allowed range
	// or the mutation would push the order past a configured cap.
	CategoryInvalidQuantity

	// CategoryInvalidModifier means a requested modifier is not permitted for
	// the target item.
	CategoryInvalidModifier

	// CategoryReferentUnresolved means the command's target reference could
	// not be mapped to an existing order line.
	CategoryReferentUnresolved
)

func getCategoryStrings() map[ErrorCategory]string {
	return map[ErrorCategory]string{
		CategoryUnknown:            "UNKNOWN",
		CategoryItemNotFound:       "ITEM_NOT_FOUND",
		CategoryItemUnavailable:    "ITEM_UNAVAILABLE",
		CategoryInvalidQuantity:    "INVALID_QUANTITY",
		CategoryInvalidModifier:    "INVALID_MODIFIER",
		CategoryReferentUnresolved: "REFERENT_UNRESOLVED",
	}
}

// String returns the stable identifier of the category, e.g. "ITEM_NOT_FOUND".
func (c ErrorCategory) String() string {
	if s, ok := getCategoryStrings()[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("order validation failed")

// ValidationError is a recoverable business-rule rejection of one command.
// It never aborts sibling commands in a batch; the pipeline records it in the
// batch result and continues.
type ValidationError struct {
	Category ErrorCategory
	Param    string
	Cause    error
}

// NewValidationError creates a categorized business-rule rejection.
func NewValidationError(category ErrorCategory, param string, cause error) *ValidationError {
	return &ValidationError{
		Category: category,
		Param:    param,
		Cause:    cause,
	}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (cause: %s)", ErrValidation, e.Category, e.Param, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Category, e.Param)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ErrInvariantViolation is the sentinel wrapped by every InvariantViolationError.
var ErrInvariantViolation = errors.New("order invariant violated")

// InvariantViolationError reports a broken internal contract, such as a
// negative total or a zero-quantity line surviving a mutation. It is fatal for
// the turn: the turn is aborted and persisted state rolls back to the
// pre-turn snapshot.
type InvariantViolationError struct {
	Detail string
}

// NewInvariantViolationError creates a fatal invariant report.
func NewInvariantViolationError(detail string) *InvariantViolationError {
	return &InvariantViolationError{Detail: detail}
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}
