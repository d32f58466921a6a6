package request

// InstrumentPayload identifies a market-listed instrument by provider key.
// Provider-sourced instruments are upserted on first use; cash instruments
// are minted from the currency and never carry a provider key.
type InstrumentPayload struct {
	Provider    string `json:"provider"`
	ProviderKey string `json:"providerKey"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Type        string `json:"type"`
	Exchange    string `json:"exchange,omitempty"`
	Region      string `json:"region,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
}

// CustomInstrumentPayload describes a user-defined, non-listed asset
// such as real estate or a private loan.
type CustomInstrumentPayload struct {
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Kind          string `json:"kind"`
	AnnualRatePct string `json:"annualRatePct,omitempty"`
}

// CreateTransactionRequest carries everything needed to record one
// transaction group. Exactly one of Instrument or CustomInstrument must
// be set. Monetary fields travel as decimal strings.
type CreateTransactionRequest struct {
	PortfolioID      string                   `json:"portfolioId"`
	ClientRequestID  string                   `json:"clientRequestId"`
	Type             string                   `json:"type"`
	Date             string                   `json:"date"`
	Quantity         string                   `json:"quantity"`
	Price            string                   `json:"price"`
	Fee              string                   `json:"fee,omitempty"`
	Notes            string                   `json:"notes,omitempty"`
	CashflowType     string                   `json:"cashflowType,omitempty"`
	ConsumeCash      bool                     `json:"consumeCash,omitempty"`
	CashCurrency     string                   `json:"cashCurrency,omitempty"`
	FXFee            string                   `json:"fxFee,omitempty"`
	Instrument       *InstrumentPayload       `json:"instrument,omitempty"`
	CustomInstrument *CustomInstrumentPayload `json:"customInstrument,omitempty"`
}

// UpdateTransactionRequest carries the editable fields of an existing
// transaction group. Instrument identity is fixed at creation and cannot
// be changed by an update.
type UpdateTransactionRequest struct {
	Type         string `json:"type"`
	Date         string `json:"date"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	Fee          string `json:"fee,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CashflowType string `json:"cashflowType,omitempty"`
	ConsumeCash  bool   `json:"consumeCash,omitempty"`
	CashCurrency string `json:"cashCurrency,omitempty"`
	FXFee        string `json:"fxFee,omitempty"`
}
