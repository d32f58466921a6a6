package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/money"
)

// ValidTransactionType contains the allowed transaction side values.
var ValidTransactionType = map[string]bool{
	"BUY": true, "SELL": true,
}

// ValidCashflowType contains the cashflow types a client may submit
// directly. Settlement cashflows are derived server-side.
var ValidCashflowType = map[string]bool{
	"DEPOSIT": true, "WITHDRAWAL": true, "DIVIDEND": true,
}

// ValidateCreateTransaction validates a transaction creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - portfolioId: Must be a valid UUID
//   - clientRequestId: Must be non-empty
//   - date: Must be in YYYY-MM-DD format
//   - type: Must be BUY or SELL
//   - quantity, price: Must be positive decimal strings
//   - exactly one of instrument / customInstrument
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	if err := ValidateUUID(req.PortfolioID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.ClientRequestID) == "" {
		errors["clientRequestId"] = "clientRequestId is required"
	}

	validateCoreFields(req.Type, req.Date, req.Quantity, req.Price, req.Fee, req.FXFee, errors)

	if req.CashflowType != "" && !ValidCashflowType[req.CashflowType] {
		errors["cashflowType"] = fmt.Sprintf("invalid cashflowType: %s", req.CashflowType)
	}

	switch {
	case req.Instrument == nil && req.CustomInstrument == nil:
		errors["instrument"] = "either instrument or customInstrument is required"
	case req.Instrument != nil && req.CustomInstrument != nil:
		errors["instrument"] = "instrument and customInstrument are mutually exclusive"
	case req.Instrument != nil:
		validateInstrument(*req.Instrument, errors)
	case req.CustomInstrument != nil:
		validateCustomInstrument(*req.CustomInstrument, errors)
	}

	if req.ConsumeCash && strings.TrimSpace(req.CashCurrency) == "" {
		errors["cashCurrency"] = "cashCurrency is required when consumeCash is set"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdateTransaction validates a transaction update request.
// The same constraints apply as on create, minus instrument identity,
// which is immutable after creation.
func ValidateUpdateTransaction(req request.UpdateTransactionRequest) error {
	errors := make(map[string]string)

	validateCoreFields(req.Type, req.Date, req.Quantity, req.Price, req.Fee, req.FXFee, errors)

	if req.CashflowType != "" && !ValidCashflowType[req.CashflowType] {
		errors["cashflowType"] = fmt.Sprintf("invalid cashflowType: %s", req.CashflowType)
	}

	if req.ConsumeCash && strings.TrimSpace(req.CashCurrency) == "" {
		errors["cashCurrency"] = "cashCurrency is required when consumeCash is set"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateCreateCustomInstrument validates a standalone custom instrument
// creation request.
func ValidateCreateCustomInstrument(req request.CreateCustomInstrumentRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.ClientRequestID) == "" {
		errors["clientRequestId"] = "clientRequestId is required"
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}
	if strings.TrimSpace(req.Currency) == "" {
		errors["currency"] = "currency is required"
	}
	if !model.ValidCustomInstrumentKinds[model.CustomInstrumentKind(req.Kind)] {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	if req.AnnualRatePct != "" {
		if d, ok := money.Parse(req.AnnualRatePct); !ok || d.IsNegative() {
			errors["annualRatePct"] = "annualRatePct must be a non-negative decimal"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

func validateCoreFields(txType, date, quantity, price, fee, fxFee string, errors map[string]string) {
	if strings.TrimSpace(date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		errors["date"] = err.Error()
	}

	if strings.TrimSpace(txType) == "" {
		errors["type"] = "type is required"
	} else if !ValidTransactionType[txType] {
		errors["type"] = fmt.Sprintf("invalid type: %s", txType)
	}

	if d, ok := money.Parse(quantity); !ok || !d.IsPositive() {
		errors["quantity"] = "quantity must be a positive decimal"
	}

	if d, ok := money.Parse(price); !ok || !d.IsPositive() {
		errors["price"] = "price must be a positive decimal"
	}

	if fee != "" {
		if d, ok := money.Parse(fee); !ok || d.IsNegative() {
			errors["fee"] = "fee must be a non-negative decimal"
		}
	}

	if fxFee != "" {
		if d, ok := money.Parse(fxFee); !ok || d.IsNegative() {
			errors["fxFee"] = "fxFee must be a non-negative decimal"
		}
	}
}

func validateInstrument(inst request.InstrumentPayload, errors map[string]string) {
	if strings.TrimSpace(inst.Currency) == "" {
		errors["instrument.currency"] = "currency is required"
	}
	if strings.TrimSpace(inst.Type) == "" {
		errors["instrument.type"] = "type is required"
	}
}

func validateCustomInstrument(inst request.CustomInstrumentPayload, errors map[string]string) {
	if strings.TrimSpace(inst.Name) == "" {
		errors["customInstrument.name"] = "name is required"
	}
	if strings.TrimSpace(inst.Currency) == "" {
		errors["customInstrument.currency"] = "currency is required"
	}
	if !model.ValidCustomInstrumentKinds[model.CustomInstrumentKind(inst.Kind)] {
		errors["customInstrument.kind"] = fmt.Sprintf("invalid kind: %s", inst.Kind)
	}
}
