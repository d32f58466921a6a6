package model

import "github.com/shopspring/decimal"

// HoldingsSnapshot holds a user's positions as of a reference date, derived
// strictly from ledger legs dated on or before that date. It is recomputed
// per guard check and never persisted.
type HoldingsSnapshot struct {
	// ByInstrument maps instrument id (market or custom) to net quantity.
	ByInstrument map[string]decimal.Decimal
	// CashByCurrency maps ISO currency code to net cash quantity.
	CashByCurrency map[string]decimal.Decimal
}

// NewHoldingsSnapshot returns an empty snapshot with initialized maps.
func NewHoldingsSnapshot() *HoldingsSnapshot {
	return &HoldingsSnapshot{
		ByInstrument:   make(map[string]decimal.Decimal),
		CashByCurrency: make(map[string]decimal.Decimal),
	}
}

// InstrumentQuantity returns the held quantity for an instrument, zero when
// the instrument has never been traded.
func (s *HoldingsSnapshot) InstrumentQuantity(instrumentID string) decimal.Decimal {
	if q, ok := s.ByInstrument[instrumentID]; ok {
		return q
	}
	return decimal.Zero
}

// CashBalance returns the cash balance for a currency, zero when no cash has
// ever been recorded in it.
func (s *HoldingsSnapshot) CashBalance(currency string) decimal.Decimal {
	if q, ok := s.CashByCurrency[currency]; ok {
		return q
	}
	return decimal.Zero
}

// HoldingRow is one line of the holdings-as-of query: an instrument with its
// net quantity and its cash classification. The classification is computed in
// SQL so callers never re-derive it.
type HoldingRow struct {
	InstrumentID string
	Currency     string
	IsCash       bool
	Quantity     decimal.Decimal
}
