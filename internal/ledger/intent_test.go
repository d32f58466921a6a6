package ledger

import (
	"testing"

	"github.com/portfelo/ledger-backend/internal/model"
)

func TestResolveTransactionIntent(t *testing.T) {
	cases := []struct {
		name   string
		isCash bool
		side   model.Side
		want   model.TransactionIntent
	}{
		{"buy of asset", false, model.SideBuy, model.IntentAssetBuy},
		{"sell of asset", false, model.SideSell, model.IntentAssetSell},
		{"buy of cash is a deposit", true, model.SideBuy, model.IntentCashDeposit},
		{"sell of cash is a withdrawal", true, model.SideSell, model.IntentCashWithdrawal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ResolveTransactionIntent(c.isCash, c.side); got != c.want {
				t.Errorf("Expected %s, got %s", c.want, got)
			}
		})
	}
}

func TestNeedsHoldingsSnapshot(t *testing.T) {
	cases := []struct {
		name        string
		intent      model.TransactionIntent
		consumeCash bool
		want        bool
	}{
		{"asset sell always reads", model.IntentAssetSell, false, true},
		{"withdrawal always reads", model.IntentCashWithdrawal, false, true},
		{"pure buy skips the read", model.IntentAssetBuy, false, false},
		{"deposit skips the read", model.IntentCashDeposit, false, false},
		{"cash-consuming buy reads", model.IntentAssetBuy, true, true},
		{"cash-consuming deposit reads", model.IntentCashDeposit, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NeedsHoldingsSnapshot(c.intent, c.consumeCash); got != c.want {
				t.Errorf("Expected %v, got %v", c.want, got)
			}
		})
	}
}
