package model

import "time"

// Side is the direction of a transaction leg.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ValidSides contains the allowed leg side values.
var ValidSides = map[Side]bool{SideBuy: true, SideSell: true}

// LegRole distinguishes the single asset leg of a group from its cash legs.
type LegRole string

const (
	LegRoleAsset LegRole = "ASSET"
	LegRoleCash  LegRole = "CASH"
)

// LegKey identifies the function of a leg within its group.
type LegKey string

const (
	LegKeyAsset          LegKey = "ASSET"
	LegKeyCashSettlement LegKey = "CASH_SETTLEMENT"
	LegKeyCashFXFee      LegKey = "CASH_FX_FEE"
)

// CashflowType classifies the cash movement a leg represents.
type CashflowType string

const (
	CashflowDeposit         CashflowType = "DEPOSIT"
	CashflowWithdrawal      CashflowType = "WITHDRAWAL"
	CashflowDividend        CashflowType = "DIVIDEND"
	CashflowTradeSettlement CashflowType = "TRADE_SETTLEMENT"
	CashflowFee             CashflowType = "FEE"
)

// ValidCashflowTypes contains the allowed cashflow classification values.
var ValidCashflowTypes = map[CashflowType]bool{
	CashflowDeposit:         true,
	CashflowWithdrawal:      true,
	CashflowDividend:        true,
	CashflowTradeSettlement: true,
	CashflowFee:             true,
}

// TransactionIntent is the resolved meaning of a submitted trade. It is a
// closed set: the guard dispatcher switches exhaustively over it.
type TransactionIntent int

const (
	IntentAssetBuy TransactionIntent = iota
	IntentAssetSell
	IntentCashDeposit
	IntentCashWithdrawal
)

// String returns a readable name for log and error messages.
func (i TransactionIntent) String() string {
	switch i {
	case IntentAssetBuy:
		return "ASSET_BUY"
	case IntentAssetSell:
		return "ASSET_SELL"
	case IntentCashDeposit:
		return "CASH_DEPOSIT"
	case IntentCashWithdrawal:
		return "CASH_WITHDRAWAL"
	}
	return "UNKNOWN"
}

// FXMetadata records the rate used to convert a settlement amount into the
// cash currency. Present only on legs that went through a conversion.
type FXMetadata struct {
	Rate   string    `json:"rate"`
	AsOf   time.Time `json:"asOf"`
	Source string    `json:"source"`
}

// TransactionLeg is one row in the ledger. All legs sharing a GroupID form
// one logical transaction: exactly one ASSET-role leg plus zero or more
// CASH-role legs, all on the same user, portfolio and trade date.
//
// Quantity, Price and Fee are decimal strings; cash legs always carry
// Price "1".
type TransactionLeg struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"userId"`
	PortfolioID        string       `json:"portfolioId"`
	InstrumentID       string       `json:"instrumentId,omitempty"`
	CustomInstrumentID string       `json:"customInstrumentId,omitempty"`
	GroupID            string       `json:"groupId"`
	TradeDate          time.Time    `json:"tradeDate"`
	Side               Side         `json:"side"`
	Quantity           string       `json:"quantity"`
	Price              string       `json:"price"`
	Fee                string       `json:"fee"`
	Notes              string       `json:"notes,omitempty"`
	ClientRequestID    string       `json:"clientRequestId"`
	LegRole            LegRole      `json:"legRole"`
	LegKey             LegKey       `json:"legKey"`
	CashflowType       CashflowType `json:"cashflowType,omitempty"`
	FX                 *FXMetadata  `json:"fx,omitempty"`
	CreatedAt          time.Time    `json:"createdAt,omitempty"`
}

// SettlementLeg is the in-memory plan for one cash leg, produced by the
// settlement builder before any storage write. A zero cash delta produces no
// plan at all rather than a zero-quantity leg.
type SettlementLeg struct {
	Side         Side
	Quantity     string
	Price        string
	CashflowType CashflowType
	LegKey       LegKey
	FX           *FXMetadata
}

// CreateTransactionResult is returned by the create orchestrator.
// Deduped is true when the write hit the idempotency constraint and the
// previously stored transaction was returned instead.
type CreateTransactionResult struct {
	TransactionID      string `json:"transactionId"`
	InstrumentID       string `json:"instrumentId,omitempty"`
	CustomInstrumentID string `json:"customInstrumentId,omitempty"`
	Deduped            bool   `json:"deduped"`
}

// UpdateTransactionResult is returned by the update orchestrator. Old and new
// trade dates are both reported because the dirty range starts at the earlier
// of the two.
type UpdateTransactionResult struct {
	GroupID       string    `json:"groupId"`
	PortfolioID   string    `json:"portfolioId"`
	OldTradeDate  time.Time `json:"oldTradeDate"`
	NewTradeDate  time.Time `json:"newTradeDate"`
	ReplacedCount int       `json:"replacedCount"`
}

// DeleteTransactionResult is returned by the delete orchestrator.
type DeleteTransactionResult struct {
	DeletedCount int       `json:"deletedCount"`
	PortfolioID  string    `json:"portfolioId"`
	TradeDate    time.Time `json:"tradeDate"`
}

// TransactionListItem is an asset leg enriched with its instrument name for
// listing responses.
type TransactionListItem struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"groupId"`
	PortfolioID    string    `json:"portfolioId"`
	InstrumentName string    `json:"instrumentName"`
	Symbol         string    `json:"symbol,omitempty"`
	TradeDate      time.Time `json:"tradeDate"`
	Side           Side      `json:"side"`
	Quantity       string    `json:"quantity"`
	Price          string    `json:"price"`
	Fee            string    `json:"fee"`
	Notes          string    `json:"notes,omitempty"`
}
