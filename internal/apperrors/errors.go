package apperrors

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrTransactionNotFound deliberately reads the same for "does not exist"
	// and "belongs to another user", so existence is never leaked across users.
	ErrTransactionNotFound = errors.New("transaction does not exist or you don't have access")

	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrInstrumentNotFound indicates that an instrument identity could not be resolved.
	ErrInstrumentNotFound = errors.New("instrument not found")
)

// Validation errors represent malformed or inconsistent submissions. All are
// rejected before any storage write.
var (
	// ErrInstrumentChoice indicates the request names neither or both of a
	// market instrument and a custom instrument.
	ErrInstrumentChoice = errors.New("transaction requires exactly one of a market instrument or a custom instrument")

	// ErrMissingProviderKey indicates an instrument payload with no usable key.
	ErrMissingProviderKey = errors.New("instrument requires a provider key")

	// ErrCashRequiresCashflowType indicates a cash-instrument transaction
	// submitted without an explicit deposit/withdrawal classification.
	ErrCashRequiresCashflowType = errors.New("cash transaction requires a cashflow type")

	// ErrUnsupportedCashCurrency indicates a settlement currency outside the allow-list.
	ErrUnsupportedCashCurrency = errors.New("unsupported cash currency")

	// ErrInvalidAmount indicates a quantity, price or fee that does not parse
	// as a decimal or violates its sign constraint.
	ErrInvalidAmount = errors.New("invalid decimal amount")
)

// FXRateError indicates a required cross-currency rate could not be resolved.
// The whole operation fails; no placeholder rate is ever written.
type FXRateError struct {
	Base  string
	Quote string
	AsOf  time.Time
}

func (e *FXRateError) Error() string {
	if e.AsOf.IsZero() {
		return fmt.Sprintf("missing FX rate for %s/%s", e.Base, e.Quote)
	}
	return fmt.Sprintf("missing FX rate for %s/%s as of %s", e.Base, e.Quote, e.AsOf.Format("2006-01-02"))
}

// OversellError indicates a sell whose quantity exceeds the position held as
// of the trade date.
type OversellError struct {
	InstrumentID string
	Available    decimal.Decimal
	Requested    decimal.Decimal
	TradeDate    time.Time
}

func (e *OversellError) Error() string {
	return fmt.Sprintf(
		"sell quantity exceeds position: %s available, %s requested as of %s",
		e.Available, e.Requested, e.TradeDate.Format("2006-01-02"),
	)
}

// InsufficientCashError indicates a withdrawal or settlement that would take
// a currency balance below zero as of the trade date.
type InsufficientCashError struct {
	Currency  string
	Available decimal.Decimal
	Required  decimal.Decimal
	Remaining decimal.Decimal
	TradeDate time.Time
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf(
		"insufficient %s cash: %s available, %s required, %s remaining as of %s; add an earlier deposit or change the transaction date",
		e.Currency, e.Available, e.Required, e.Remaining, e.TradeDate.Format("2006-01-02"),
	)
}
