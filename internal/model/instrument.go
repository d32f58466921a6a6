package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentType tags the kind of market instrument.
type InstrumentType string

const (
	InstrumentEquity   InstrumentType = "EQUITY"
	InstrumentETF      InstrumentType = "ETF"
	InstrumentCrypto   InstrumentType = "CRYPTOCURRENCY"
	InstrumentCurrency InstrumentType = "CURRENCY"
	InstrumentFund     InstrumentType = "FUND"
)

// CashProvider is the synthetic provider under which cash positions are
// minted. A cash position is an instrument with provider "system" and the ISO
// currency code as its provider key.
const CashProvider = "system"

// Instrument is the canonical identity of a market instrument, keyed by
// (provider, provider_key) and shared across all users.
type Instrument struct {
	ID           string         `json:"id"`
	Provider     string         `json:"provider"`
	ProviderKey  string         `json:"providerKey"`
	Symbol       string         `json:"symbol"`
	Name         string         `json:"name"`
	Currency     string         `json:"currency"`
	Type         InstrumentType `json:"type,omitempty"`
	Exchange     string         `json:"exchange,omitempty"`
	Region       string         `json:"region,omitempty"`
	LogoURL      string         `json:"logoUrl,omitempty"`
	CreatedAt    time.Time      `json:"createdAt,omitempty"`
}

// IsCash reports whether this identity represents a cash position.
func (i Instrument) IsCash() bool {
	return i.Type == InstrumentCurrency || i.Provider == CashProvider
}

// CustomInstrumentKind enumerates the supported non-market asset kinds.
type CustomInstrumentKind string

const (
	CustomKindRealEstate    CustomInstrumentKind = "REAL_ESTATE"
	CustomKindCar           CustomInstrumentKind = "CAR"
	CustomKindComputer      CustomInstrumentKind = "COMPUTER"
	CustomKindTreasuryBonds CustomInstrumentKind = "TREASURY_BONDS"
	CustomKindTermDeposit   CustomInstrumentKind = "TERM_DEPOSIT"
	CustomKindPrivateLoan   CustomInstrumentKind = "PRIVATE_LOAN"
	CustomKindOther         CustomInstrumentKind = "OTHER"
)

// ValidCustomInstrumentKinds contains the allowed custom instrument kinds.
var ValidCustomInstrumentKinds = map[CustomInstrumentKind]bool{
	CustomKindRealEstate:    true,
	CustomKindCar:           true,
	CustomKindComputer:      true,
	CustomKindTreasuryBonds: true,
	CustomKindTermDeposit:   true,
	CustomKindPrivateLoan:   true,
	CustomKindOther:         true,
}

// ValuationMethod describes how a custom instrument's value is projected
// over time. Only compound annual growth is supported.
type ValuationMethod string

const ValuationCompoundAnnualRate ValuationMethod = "COMPOUND_ANNUAL_RATE"

// CustomInstrument is a user-private, non-market asset. Identity is
// per-insert, deduplicated by the client request id rather than shared
// globally like market instruments.
type CustomInstrument struct {
	ID              string               `json:"id"`
	UserID          string               `json:"userId"`
	Name            string               `json:"name"`
	Currency        string               `json:"currency"`
	Kind            CustomInstrumentKind `json:"kind"`
	ValuationMethod ValuationMethod      `json:"valuationMethod"`
	AnnualRatePct   string               `json:"annualRatePct"`
	ClientRequestID string               `json:"clientRequestId"`
	CreatedAt       time.Time            `json:"createdAt,omitempty"`
}

// ProjectedValue compounds a base value at the instrument's annual rate from
// the given acquisition date to asOf. Fractions of a year compound linearly
// within the year. Returns base unchanged when the rate is absent or asOf is
// not after the acquisition date.
func (c CustomInstrument) ProjectedValue(base decimal.Decimal, acquired, asOf time.Time) decimal.Decimal {
	rate, err := decimal.NewFromString(c.AnnualRatePct)
	if err != nil || rate.IsZero() || !asOf.After(acquired) {
		return base
	}
	years := decimal.NewFromFloat(asOf.Sub(acquired).Hours() / (24 * 365.25))
	growth := decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100)))

	whole := years.IntPart()
	value := base.Mul(growth.Pow(decimal.NewFromInt(whole)))

	frac := years.Sub(decimal.NewFromInt(whole))
	if !frac.IsZero() {
		value = value.Mul(decimal.NewFromInt(1).Add(growth.Sub(decimal.NewFromInt(1)).Mul(frac)))
	}
	return value
}
