package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation             = errors.New("validation error")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientHoldings   = errors.New("insufficient holdings")
	ErrNoSuchHolding          = errors.New("no such holding")
	ErrNotFound               = errors.New("not found")
	ErrPlanNotFound           = fmt.Errorf("plan %w", ErrNotFound)
	ErrAmountOutOfRange       = errors.New("amount out of range")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyReviewed        = fmt.Errorf("already reviewed: %w", ErrInvalidStateTransition)
	ErrPersistence            = errors.New("persistence failure")
)

// Error is a ledger failure with a user-facing message and optional details
// (for example required vs available amounts).
type Error struct {
	Kind    error
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, message string, details map[string]interface{}) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

func Validation(message string) error {
	return newError(ErrValidation, message, nil)
}

func NotFound(what string) error {
	return newError(ErrNotFound, what+" not found", nil)
}

func PlanNotFound() error {
	return newError(ErrPlanNotFound, "Investment plan not found", nil)
}

func NoSuchHolding(assetType, symbol string) error {
	return newError(ErrNoSuchHolding, "No holding found for this asset", map[string]interface{}{
		"asset_type": assetType,
		"symbol":     symbol,
	})
}

func InsufficientFunds(required, available decimal.Decimal) error {
	return newError(ErrInsufficientFunds, "Insufficient wallet balance", map[string]interface{}{
		"required":  required.StringFixed(MoneyPlaces),
		"available": available.StringFixed(MoneyPlaces),
	})
}

func InsufficientHoldings(requested, available decimal.Decimal) error {
	return newError(ErrInsufficientHoldings, "Insufficient holdings to sell", map[string]interface{}{
		"requested": requested.String(),
		"available": available.String(),
	})
}

func AmountOutOfRange(amount, min, max decimal.Decimal) error {
	return newError(ErrAmountOutOfRange, "Amount is outside the plan limits", map[string]interface{}{
		"amount": amount.StringFixed(MoneyPlaces),
		"min":    min.StringFixed(MoneyPlaces),
		"max":    max.StringFixed(MoneyPlaces),
	})
}

func InvalidTransition(message, from, to string) error {
	return newError(ErrInvalidStateTransition, message, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

func AlreadyReviewed(status string) error {
	return newError(ErrAlreadyReviewed, "Request has already been reviewed", map[string]interface{}{
		"status": status,
	})
}

// Persistence wraps a store failure. Nil stays nil.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrPersistence, Message: "Ledger store failure", Err: err}
}

// IsNotFound reports whether err is any not-found kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
