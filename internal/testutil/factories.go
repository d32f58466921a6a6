package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/portfelo/ledger-backend/internal/model"
)

// TestUserID is the user every factory writes under unless overridden.
const TestUserID = "00000000-0000-4000-8000-000000000001"

// MakeID returns a fresh UUID string for test rows.
func MakeID() string {
	return uuid.New().String()
}

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Retirement").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsArchived  bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		UserID:      TestUserID,
		Name:        "Test Portfolio",
		Description: "Test description",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithUser sets the owning user.
func (b *PortfolioBuilder) WithUser(userID string) *PortfolioBuilder {
	b.UserID = userID
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Archived marks the portfolio archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build inserts the portfolio and returns the model.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, user_id, name, description, is_archived)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.UserID, b.Name, b.Description, b.IsArchived)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:          b.ID,
		UserID:      b.UserID,
		Name:        b.Name,
		Description: b.Description,
		IsArchived:  b.IsArchived,
	}
}

// InstrumentBuilder provides a fluent interface for creating test
// instruments. Defaults describe a USD equity.
type InstrumentBuilder struct {
	ID          string
	Provider    string
	ProviderKey string
	Symbol      string
	Name        string
	Currency    string
	Type        string
	Exchange    string
	Region      string
	LogoURL     string
}

// NewInstrument creates an InstrumentBuilder with sensible defaults.
func NewInstrument() *InstrumentBuilder {
	id := MakeID()
	return &InstrumentBuilder{
		ID:          id,
		Provider:    "eodhd",
		ProviderKey: "AAPL.US",
		Symbol:      "AAPL",
		Name:        "Apple Inc",
		Currency:    "USD",
		Type:        string(model.InstrumentEquity),
	}
}

// WithProviderKey sets the provider plus key natural identity.
func (b *InstrumentBuilder) WithProviderKey(provider, key string) *InstrumentBuilder {
	b.Provider = provider
	b.ProviderKey = key
	return b
}

// WithSymbol sets the display symbol.
func (b *InstrumentBuilder) WithSymbol(symbol string) *InstrumentBuilder {
	b.Symbol = symbol
	return b
}

// WithCurrency sets the trade currency.
func (b *InstrumentBuilder) WithCurrency(currency string) *InstrumentBuilder {
	b.Currency = currency
	return b
}

// AsCash turns the builder into the system-minted cash identity for a
// currency.
func (b *InstrumentBuilder) AsCash(currency string) *InstrumentBuilder {
	b.Provider = model.CashProvider
	b.ProviderKey = currency
	b.Symbol = currency
	b.Name = currency
	b.Currency = currency
	b.Type = string(model.InstrumentCurrency)
	return b
}

// Build inserts the instrument and returns the model.
func (b *InstrumentBuilder) Build(t *testing.T, db *sql.DB) model.Instrument {
	t.Helper()

	query := `
		INSERT INTO instrument (id, provider, provider_key, symbol, name, currency, instrument_type, exchange, region, logo_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Provider, b.ProviderKey, b.Symbol, b.Name, b.Currency, b.Type, b.Exchange, b.Region, b.LogoURL)
	if err != nil {
		t.Fatalf("Failed to create test instrument: %v", err)
	}

	return model.Instrument{
		ID:          b.ID,
		Provider:    b.Provider,
		ProviderKey: b.ProviderKey,
		Symbol:      b.Symbol,
		Name:        b.Name,
		Currency:    b.Currency,
		Type:        model.InstrumentType(b.Type),
	}
}

// CustomInstrumentBuilder creates user-private non-market assets.
type CustomInstrumentBuilder struct {
	ID              string
	UserID          string
	Name            string
	Currency        string
	Kind            model.CustomInstrumentKind
	AnnualRatePct   string
	ClientRequestID string
}

// NewCustomInstrument creates a CustomInstrumentBuilder with sensible defaults.
func NewCustomInstrument() *CustomInstrumentBuilder {
	return &CustomInstrumentBuilder{
		ID:              MakeID(),
		UserID:          TestUserID,
		Name:            "Apartment",
		Currency:        "PLN",
		Kind:            model.CustomKindRealEstate,
		AnnualRatePct:   "3",
		ClientRequestID: MakeID(),
	}
}

// WithUser sets the owning user.
func (b *CustomInstrumentBuilder) WithUser(userID string) *CustomInstrumentBuilder {
	b.UserID = userID
	return b
}

// WithRate sets the annual rate percentage.
func (b *CustomInstrumentBuilder) WithRate(pct string) *CustomInstrumentBuilder {
	b.AnnualRatePct = pct
	return b
}

// Build inserts the custom instrument and returns the model.
func (b *CustomInstrumentBuilder) Build(t *testing.T, db *sql.DB) model.CustomInstrument {
	t.Helper()

	query := `
		INSERT INTO custom_instrument (id, user_id, name, currency, kind, valuation_method, annual_rate_pct, client_request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.UserID, b.Name, b.Currency, string(b.Kind), string(model.ValuationCompoundAnnualRate), b.AnnualRatePct, b.ClientRequestID)
	if err != nil {
		t.Fatalf("Failed to create test custom instrument: %v", err)
	}

	return model.CustomInstrument{
		ID:              b.ID,
		UserID:          b.UserID,
		Name:            b.Name,
		Currency:        b.Currency,
		Kind:            b.Kind,
		ValuationMethod: model.ValuationCompoundAnnualRate,
		AnnualRatePct:   b.AnnualRatePct,
		ClientRequestID: b.ClientRequestID,
	}
}

// LegBuilder inserts raw ledger legs, bypassing the orchestrator, for tests
// that need a ledger in a known state.
type LegBuilder struct {
	leg model.TransactionLeg
}

// NewLeg creates a LegBuilder for an asset-role BUY leg with defaults.
func NewLeg(portfolioID, instrumentID string) *LegBuilder {
	return &LegBuilder{leg: model.TransactionLeg{
		ID:              MakeID(),
		UserID:          TestUserID,
		PortfolioID:     portfolioID,
		InstrumentID:    instrumentID,
		GroupID:         MakeID(),
		TradeDate:       time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Side:            model.SideBuy,
		Quantity:        "1",
		Price:           "100",
		Fee:             "0",
		ClientRequestID: MakeID(),
		LegRole:         model.LegRoleAsset,
		LegKey:          model.LegKeyAsset,
	}}
}

// ForCustom switches the leg to a custom instrument identity.
func (b *LegBuilder) ForCustom(customID string) *LegBuilder {
	b.leg.InstrumentID = ""
	b.leg.CustomInstrumentID = customID
	return b
}

// WithUser sets the owning user.
func (b *LegBuilder) WithUser(userID string) *LegBuilder {
	b.leg.UserID = userID
	return b
}

// WithGroup sets the group id.
func (b *LegBuilder) WithGroup(groupID string) *LegBuilder {
	b.leg.GroupID = groupID
	return b
}

// WithDate sets the trade date.
func (b *LegBuilder) WithDate(year int, month time.Month, day int) *LegBuilder {
	b.leg.TradeDate = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return b
}

// WithSide sets the leg side.
func (b *LegBuilder) WithSide(side model.Side) *LegBuilder {
	b.leg.Side = side
	return b
}

// WithQuantity sets the quantity decimal string.
func (b *LegBuilder) WithQuantity(q string) *LegBuilder {
	b.leg.Quantity = q
	return b
}

// WithPrice sets the price decimal string.
func (b *LegBuilder) WithPrice(p string) *LegBuilder {
	b.leg.Price = p
	return b
}

// WithClientRequestID sets the idempotency key.
func (b *LegBuilder) WithClientRequestID(id string) *LegBuilder {
	b.leg.ClientRequestID = id
	return b
}

// AsCashLeg switches the leg to a CASH settlement role.
func (b *LegBuilder) AsCashLeg(cashflow model.CashflowType) *LegBuilder {
	b.leg.LegRole = model.LegRoleCash
	b.leg.LegKey = model.LegKeyCashSettlement
	b.leg.CashflowType = cashflow
	b.leg.Price = "1"
	return b
}

// WithCashflow sets the cashflow classification without changing the role.
func (b *LegBuilder) WithCashflow(cashflow model.CashflowType) *LegBuilder {
	b.leg.CashflowType = cashflow
	return b
}

// Build inserts the leg and returns it.
func (b *LegBuilder) Build(t *testing.T, db *sql.DB) model.TransactionLeg {
	t.Helper()

	query := `
		INSERT INTO transaction_leg (
			id, user_id, portfolio_id, instrument_id, custom_instrument_id,
			group_id, trade_date, side, quantity, price, fee, notes,
			client_request_id, leg_role, leg_key, cashflow_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var instrumentID, customID, cashflow any
	if b.leg.InstrumentID != "" {
		instrumentID = b.leg.InstrumentID
	}
	if b.leg.CustomInstrumentID != "" {
		customID = b.leg.CustomInstrumentID
	}
	if b.leg.CashflowType != "" {
		cashflow = string(b.leg.CashflowType)
	}

	_, err := db.Exec(query,
		b.leg.ID, b.leg.UserID, b.leg.PortfolioID, instrumentID, customID,
		b.leg.GroupID, b.leg.TradeDate.Format("2006-01-02"), string(b.leg.Side),
		b.leg.Quantity, b.leg.Price, b.leg.Fee, b.leg.Notes,
		b.leg.ClientRequestID, string(b.leg.LegRole), string(b.leg.LegKey), cashflow,
	)
	if err != nil {
		t.Fatalf("Failed to create test leg: %v", err)
	}

	return b.leg
}
