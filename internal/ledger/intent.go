// Package ledger contains the pure settlement core: intent resolution, the
// settlement-leg builder, instrument normalization and the pre-write solvency
// guards. Nothing in this package touches storage; orchestration lives in the
// service layer.
package ledger

import "github.com/portfelo/ledger-backend/internal/model"

// ResolveTransactionIntent classifies a submission from the instrument's cash
// classification and the requested side. A buy of a cash instrument is a
// deposit, a sell of one is a withdrawal.
func ResolveTransactionIntent(isCash bool, side model.Side) model.TransactionIntent {
	if isCash {
		if side == model.SideBuy {
			return model.IntentCashDeposit
		}
		return model.IntentCashWithdrawal
	}
	if side == model.SideBuy {
		return model.IntentAssetBuy
	}
	return model.IntentAssetSell
}

// NeedsHoldingsSnapshot reports whether the guards need a point-in-time
// holdings read for this operation. Pure buys and deposits that don't consume
// existing cash skip the read entirely.
func NeedsHoldingsSnapshot(intent model.TransactionIntent, consumeCash bool) bool {
	if consumeCash {
		return true
	}
	switch intent {
	case model.IntentAssetSell, model.IntentCashWithdrawal:
		return true
	case model.IntentAssetBuy, model.IntentCashDeposit:
		return false
	}
	return false
}
