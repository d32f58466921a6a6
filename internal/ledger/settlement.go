package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/money"
)

// FXContext carries a resolved exchange rate from the asset currency into the
// cash currency, together with its provenance.
type FXContext struct {
	Rate   string
	AsOf   time.Time
	Source string
}

// SettlementInput is a trade intent plus the FX context needed to settle it
// in the cash currency.
type SettlementInput struct {
	Side          model.Side
	Quantity      string
	Price         string
	Fee           string
	AssetCurrency string
	CashCurrency  string
	FX            *FXContext
	FXFee         string
}

// BuildSettlementLegs computes the cash legs to attach to an asset leg.
//
// The signed trade delta is -(quantity*price + fee) for a buy and
// +(quantity*price - fee) for a sell, in the asset currency. When the asset
// and cash currencies differ the delta is converted through the FX context;
// a missing or unparseable rate is a hard failure naming the pair. A delta of
// exactly zero emits no settlement leg. A non-zero FX fee always emits a
// second, independent SELL leg debiting cash, regardless of trade direction.
func BuildSettlementLegs(in SettlementInput) ([]model.SettlementLeg, error) {
	qty, ok := money.Parse(in.Quantity)
	if !ok {
		return nil, fmt.Errorf("%w: quantity %q", apperrors.ErrInvalidAmount, in.Quantity)
	}
	price, ok := money.Parse(in.Price)
	if !ok {
		return nil, fmt.Errorf("%w: price %q", apperrors.ErrInvalidAmount, in.Price)
	}
	fee := money.ParseOrZero(in.Fee)

	gross := qty.Mul(price)
	var delta decimal.Decimal
	if in.Side == model.SideBuy {
		delta = gross.Add(fee).Neg()
	} else {
		delta = gross.Sub(fee)
	}

	var fx *model.FXMetadata
	if in.AssetCurrency != in.CashCurrency {
		if in.FX == nil {
			return nil, &apperrors.FXRateError{Base: in.AssetCurrency, Quote: in.CashCurrency}
		}
		rate, ok := money.Parse(in.FX.Rate)
		if !ok {
			return nil, &apperrors.FXRateError{Base: in.AssetCurrency, Quote: in.CashCurrency, AsOf: in.FX.AsOf}
		}
		delta = delta.Mul(rate)
		fx = &model.FXMetadata{Rate: in.FX.Rate, AsOf: in.FX.AsOf, Source: in.FX.Source}
	}

	var legs []model.SettlementLeg

	if !delta.IsZero() {
		side := model.SideSell
		if delta.IsPositive() {
			side = model.SideBuy
		}
		legs = append(legs, model.SettlementLeg{
			Side:         side,
			Quantity:     delta.Abs().String(),
			Price:        "1",
			CashflowType: model.CashflowTradeSettlement,
			LegKey:       model.LegKeyCashSettlement,
			FX:           fx,
		})
	}

	if fxFee := money.ParseOrZero(in.FXFee); !fxFee.IsZero() {
		legs = append(legs, model.SettlementLeg{
			Side:         model.SideSell,
			Quantity:     fxFee.Abs().String(),
			Price:        "1",
			CashflowType: model.CashflowFee,
			LegKey:       model.LegKeyCashFXFee,
		})
	}

	return legs, nil
}
