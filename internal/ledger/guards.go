package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/money"
)

// GuardInput is a candidate write to be checked for solvency against a
// holdings snapshot taken as of the trade date.
type GuardInput struct {
	Intent model.TransactionIntent
	// InstrumentKey is the snapshot key of the traded instrument: the market
	// instrument id or the custom instrument id.
	InstrumentKey string
	// Quantity is the requested trade quantity as a decimal string.
	Quantity string
	// CashCurrency is the currency checked by the withdrawal and
	// cash-consumption guards.
	CashCurrency   string
	TradeDate      time.Time
	ConsumeCash    bool
	SettlementLegs []model.SettlementLeg
}

// ValidateAgainstHoldings accepts or rejects a candidate write. All checks
// consume the one snapshot passed in, so they see a single consistent view:
//
//  1. oversell: a sell may not exceed the position held on the trade date
//  2. withdrawal: a cash withdrawal may not exceed the currency balance
//  3. cash consumption: the net settlement delta may not take the cash
//     balance below zero (a remaining balance of exactly zero is accepted)
//
// Each failure is specific, carries the figures involved, and fails fast.
func ValidateAgainstHoldings(in GuardInput, snap *model.HoldingsSnapshot) error {
	requested, ok := money.Parse(in.Quantity)
	if !ok {
		return apperrors.ErrInvalidAmount
	}

	if in.Intent == model.IntentAssetSell {
		available := snap.InstrumentQuantity(in.InstrumentKey)
		if available.LessThan(requested) {
			return &apperrors.OversellError{
				InstrumentID: in.InstrumentKey,
				Available:    available,
				Requested:    requested,
				TradeDate:    in.TradeDate,
			}
		}
	}

	if in.Intent == model.IntentCashWithdrawal {
		available := snap.CashBalance(in.CashCurrency)
		if available.LessThan(requested) {
			return &apperrors.InsufficientCashError{
				Currency:  in.CashCurrency,
				Available: available,
				Required:  requested,
				Remaining: available.Sub(requested),
				TradeDate: in.TradeDate,
			}
		}
	}

	if in.ConsumeCash {
		available := snap.CashBalance(in.CashCurrency)
		net := NetCashDelta(in.SettlementLegs)
		remaining := available.Add(net)
		if remaining.IsNegative() {
			return &apperrors.InsufficientCashError{
				Currency:  in.CashCurrency,
				Available: available,
				Required:  net.Abs(),
				Remaining: remaining,
				TradeDate: in.TradeDate,
			}
		}
	}

	return nil
}

// NetCashDelta sums the settlement legs into one signed cash impact: BUY legs
// add cash, SELL legs remove it.
func NetCashDelta(legs []model.SettlementLeg) decimal.Decimal {
	net := decimal.Zero
	for _, leg := range legs {
		q := money.ParseOrZero(leg.Quantity)
		if leg.Side == model.SideBuy {
			net = net.Add(q)
		} else {
			net = net.Sub(q)
		}
	}
	return net
}
