package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/service"
	"github.com/portfelo/ledger-backend/internal/testutil"
)

func buyRequest(portfolioID string) request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		PortfolioID:     portfolioID,
		ClientRequestID: testutil.MakeID(),
		Type:            "BUY",
		Date:            "2026-01-10",
		Quantity:        "2",
		Price:           "100",
		Fee:             "1",
		Instrument: &request.InstrumentPayload{
			Provider:    "eodhd",
			ProviderKey: "AAPL.US",
			Symbol:      "AAPL",
			Name:        "Apple Inc",
			Currency:    "USD",
			Type:        "EQUITY",
		},
	}
}

func depositRequest(portfolioID, currency, amount string) request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		PortfolioID:     portfolioID,
		ClientRequestID: testutil.MakeID(),
		Type:            "BUY",
		Date:            "2026-01-05",
		Quantity:        amount,
		Price:           "1",
		CashflowType:    "DEPOSIT",
		Instrument: &request.InstrumentPayload{
			Provider: "system",
			Currency: currency,
			Type:     "CURRENCY",
		},
	}
}

func countLegs(t *testing.T, db *sql.DB, groupFilter string, args ...any) int {
	t.Helper()
	var n int
	query := "SELECT COUNT(*) FROM transaction_leg"
	if groupFilter != "" {
		query += " WHERE " + groupFilter
	}
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count legs: %v", err)
	}
	return n
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("records asset buy with a settlement leg", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		// Fund the cash balance first
		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "USD", "1000")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		req := buyRequest(portfolio.ID)
		req.ConsumeCash = true
		req.CashCurrency = "USD"

		result, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if result.Deduped {
			t.Error("Expected a fresh write, got deduped")
		}
		if result.TransactionID == "" || result.InstrumentID == "" {
			t.Errorf("Expected ids to be populated, got %+v", result)
		}

		legs, err := svc.GetTransaction(ctx, testutil.TestUserID, result.TransactionID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if len(legs) != 2 {
			t.Fatalf("Expected 2 legs (asset + settlement), got %d", len(legs))
		}

		var cash model.TransactionLeg
		for _, leg := range legs {
			if leg.LegRole == model.LegRoleCash {
				cash = leg
			}
		}
		if cash.Side != model.SideSell {
			t.Errorf("Expected settlement leg to debit cash, got side %s", cash.Side)
		}
		// 2 * 100 + 1 fee
		if cash.Quantity != "201" {
			t.Errorf("Expected settlement quantity 201, got %s", cash.Quantity)
		}
		if cash.CashflowType != model.CashflowTradeSettlement {
			t.Errorf("Expected TRADE_SETTLEMENT, got %s", cash.CashflowType)
		}
	})

	t.Run("stores the instrument symbol from the payload", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		result, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID))
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		var symbol string
		if err := db.QueryRow(`SELECT symbol FROM instrument WHERE id = ?`, result.InstrumentID).Scan(&symbol); err != nil {
			t.Fatalf("Failed to read instrument: %v", err)
		}
		if symbol != "AAPL" {
			t.Errorf("Expected symbol AAPL, got %q", symbol)
		}
	})

	t.Run("same clientRequestId returns original transaction deduped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)

		first, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("First create failed: %v", err)
		}

		second, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("Second create failed: %v", err)
		}

		if !second.Deduped {
			t.Error("Expected second submission to be deduped")
		}
		if second.TransactionID != first.TransactionID {
			t.Errorf("Expected transaction id %s, got %s", first.TransactionID, second.TransactionID)
		}
		if n := countLegs(t, db, "leg_role = 'ASSET'"); n != 1 {
			t.Errorf("Expected 1 asset leg in ledger, got %d", n)
		}
	})

	t.Run("rejects sell exceeding position", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID)); err != nil {
			t.Fatalf("Failed to create buy: %v", err)
		}

		sell := buyRequest(portfolio.ID)
		sell.ClientRequestID = testutil.MakeID()
		sell.Type = "SELL"
		sell.Date = "2026-02-01"
		sell.Quantity = "3"

		_, err := svc.CreateTransaction(ctx, testutil.TestUserID, sell)
		var oversell *apperrors.OversellError
		if !errors.As(err, &oversell) {
			t.Fatalf("Expected OversellError, got %v", err)
		}
		if oversell.Available.String() != "2" || oversell.Requested.String() != "3" {
			t.Errorf("Expected available 2 requested 3, got %+v", oversell)
		}
	})

	t.Run("sell dated before the buy sees no position", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID)); err != nil {
			t.Fatalf("Failed to create buy: %v", err)
		}

		sell := buyRequest(portfolio.ID)
		sell.ClientRequestID = testutil.MakeID()
		sell.Type = "SELL"
		sell.Date = "2026-01-05"
		sell.Quantity = "1"

		_, err := svc.CreateTransaction(ctx, testutil.TestUserID, sell)
		var oversell *apperrors.OversellError
		if !errors.As(err, &oversell) {
			t.Fatalf("Expected OversellError for back-dated sell, got %v", err)
		}
	})

	t.Run("rejects withdrawal exceeding cash balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "PLN", "20")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		withdrawal := depositRequest(portfolio.ID, "PLN", "25")
		withdrawal.Type = "SELL"
		withdrawal.Date = "2026-01-06"
		withdrawal.CashflowType = "WITHDRAWAL"

		_, err := svc.CreateTransaction(ctx, testutil.TestUserID, withdrawal)
		var insufficient *apperrors.InsufficientCashError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Expected InsufficientCashError, got %v", err)
		}
		if insufficient.Currency != "PLN" {
			t.Errorf("Expected currency PLN, got %s", insufficient.Currency)
		}
	})

	t.Run("accepts settlement leaving exactly zero cash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "USD", "201")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		req := buyRequest(portfolio.ID) // costs exactly 201
		req.ConsumeCash = true
		req.CashCurrency = "USD"

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, req); err != nil {
			t.Errorf("Expected zero-remaining settlement to be accepted, got %v", err)
		}
	})

	t.Run("rejects settlement overdrawing cash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "USD", "200")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		req := buyRequest(portfolio.ID) // costs 201
		req.ConsumeCash = true
		req.CashCurrency = "USD"

		_, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		var insufficient *apperrors.InsufficientCashError
		if !errors.As(err, &insufficient) {
			t.Fatalf("Expected InsufficientCashError, got %v", err)
		}
	})

	t.Run("deposit skips the holdings snapshot entirely", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, holdings := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "EUR", "100")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}
		if holdings.Calls != 0 {
			t.Errorf("Expected no snapshot reads for a deposit, got %d", holdings.Calls)
		}
	})

	t.Run("buy without cash consumption skips the snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, holdings := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID)); err != nil {
			t.Fatalf("Failed to create buy: %v", err)
		}
		if holdings.Calls != 0 {
			t.Errorf("Expected no snapshot reads, got %d", holdings.Calls)
		}
	})

	t.Run("cross-currency settlement converts through the FX rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionServiceWithFX(t, db, testutil.NewStaticFXSource("4"))
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "PLN", "1000")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		req := buyRequest(portfolio.ID)
		req.Fee = ""
		req.ConsumeCash = true
		req.CashCurrency = "PLN"

		result, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		legs, err := svc.GetTransaction(ctx, testutil.TestUserID, result.TransactionID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		for _, leg := range legs {
			if leg.LegRole != model.LegRoleCash {
				continue
			}
			// 2 * 100 USD at rate 4
			if leg.Quantity != "800" {
				t.Errorf("Expected converted quantity 800, got %s", leg.Quantity)
			}
			if leg.FX == nil || leg.FX.Rate != "4" {
				t.Errorf("Expected FX metadata with rate 4, got %+v", leg.FX)
			}
		}
	})

	t.Run("missing FX rate names the pair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionServiceWithFX(t, db, &testutil.StaticFXSource{})
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)
		req.ConsumeCash = true
		req.CashCurrency = "PLN"

		_, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		var fxErr *apperrors.FXRateError
		if !errors.As(err, &fxErr) {
			t.Fatalf("Expected FXRateError, got %v", err)
		}
		if fxErr.Base != "USD" || fxErr.Quote != "PLN" {
			t.Errorf("Expected USD/PLN in error, got %s/%s", fxErr.Base, fxErr.Quote)
		}
	})

	t.Run("rejects unsupported cash currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)
		req.ConsumeCash = true
		req.CashCurrency = "JPY"

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, req); !errors.Is(err, apperrors.ErrUnsupportedCashCurrency) {
			t.Errorf("Expected ErrUnsupportedCashCurrency, got %v", err)
		}
	})

	t.Run("rejects both instrument and customInstrument", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)
		req.CustomInstrument = &request.CustomInstrumentPayload{
			Name: "Apartment", Currency: "PLN", Kind: "REAL_ESTATE",
		}

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, req); err == nil {
			t.Error("Expected validation failure, got nil")
		}
	})

	t.Run("records custom instrument acquisition", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := request.CreateTransactionRequest{
			PortfolioID:     portfolio.ID,
			ClientRequestID: testutil.MakeID(),
			Type:            "BUY",
			Date:            "2026-01-10",
			Quantity:        "1",
			Price:           "500000",
			CustomInstrument: &request.CustomInstrumentPayload{
				Name:          "Apartment",
				Currency:      "PLN",
				Kind:          "REAL_ESTATE",
				AnnualRatePct: "3",
			},
		}

		result, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if result.CustomInstrumentID == "" {
			t.Error("Expected custom instrument id to be populated")
		}
		if result.InstrumentID != "" {
			t.Error("Expected no market instrument id for a custom asset")
		}
	})

	t.Run("unknown portfolio is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)

		req := buyRequest(testutil.MakeID())
		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, req); !errors.Is(err, apperrors.ErrPortfolioNotFound) {
			t.Errorf("Expected ErrPortfolioNotFound, got %v", err)
		}
	})
}

func TestTransactionService_UpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the group and reports both trade dates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		created, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID))
		if err != nil {
			t.Fatalf("Failed to create: %v", err)
		}

		result, err := svc.UpdateTransaction(ctx, testutil.TestUserID, created.TransactionID, request.UpdateTransactionRequest{
			Type:     "BUY",
			Date:     "2026-02-10",
			Quantity: "5",
			Price:    "90",
		})
		if err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}

		wantOld := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
		wantNew := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
		if !result.OldTradeDate.Equal(wantOld) {
			t.Errorf("Expected old trade date %s, got %s", wantOld, result.OldTradeDate)
		}
		if !result.NewTradeDate.Equal(wantNew) {
			t.Errorf("Expected new trade date %s, got %s", wantNew, result.NewTradeDate)
		}
		if result.ReplacedCount != 1 {
			t.Errorf("Expected 1 replaced leg, got %d", result.ReplacedCount)
		}

		legs, err := svc.GetTransaction(ctx, testutil.TestUserID, created.TransactionID)
		if err != nil {
			t.Fatalf("GetTransaction after update failed: %v", err)
		}
		if legs[0].Quantity != "5" || legs[0].Price != "90" {
			t.Errorf("Expected updated quantity/price, got %s/%s", legs[0].Quantity, legs[0].Price)
		}
	})

	t.Run("guard ignores the group being replaced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "USD", "50")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}

		buy := buyRequest(portfolio.ID)
		buy.Fee = ""
		buy.Quantity = "1"
		buy.Price = "50"
		buy.ConsumeCash = true
		buy.CashCurrency = "USD"
		created, err := svc.CreateTransaction(ctx, testutil.TestUserID, buy)
		if err != nil {
			t.Fatalf("Failed to create buy: %v", err)
		}

		// Without excluding the old group the balance would already be zero
		// and any edit would be rejected.
		if _, err := svc.UpdateTransaction(ctx, testutil.TestUserID, created.TransactionID, request.UpdateTransactionRequest{
			Type:         "BUY",
			Date:         "2026-01-10",
			Quantity:     "1",
			Price:        "40",
			ConsumeCash:  true,
			CashCurrency: "USD",
		}); err != nil {
			t.Errorf("Expected edit within the freed balance to pass, got %v", err)
		}
	})

	t.Run("unknown transaction returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)

		_, err := svc.UpdateTransaction(ctx, testutil.TestUserID, testutil.MakeID(), request.UpdateTransactionRequest{
			Type: "BUY", Date: "2026-01-10", Quantity: "1", Price: "1",
		})
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("another user's transaction is invisible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		created, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID))
		if err != nil {
			t.Fatalf("Failed to create: %v", err)
		}

		otherUser := testutil.MakeID()
		_, err = svc.UpdateTransaction(ctx, otherUser, created.TransactionID, request.UpdateTransactionRequest{
			Type: "BUY", Date: "2026-01-10", Quantity: "1", Price: "1",
		})
		if !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound for foreign user, got %v", err)
		}
	})
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("removes every leg of the group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, depositRequest(portfolio.ID, "USD", "1000")); err != nil {
			t.Fatalf("Failed to create deposit: %v", err)
		}
		buy := buyRequest(portfolio.ID)
		buy.ConsumeCash = true
		buy.CashCurrency = "USD"
		created, err := svc.CreateTransaction(ctx, testutil.TestUserID, buy)
		if err != nil {
			t.Fatalf("Failed to create buy: %v", err)
		}

		result, err := svc.DeleteTransaction(ctx, testutil.TestUserID, created.TransactionID)
		if err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}
		if result.DeletedCount != 2 {
			t.Errorf("Expected 2 deleted legs, got %d", result.DeletedCount)
		}
		if result.PortfolioID != portfolio.ID {
			t.Errorf("Expected portfolio %s, got %s", portfolio.ID, result.PortfolioID)
		}

		if _, err := svc.GetTransaction(ctx, testutil.TestUserID, created.TransactionID); !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected transaction to be gone, got %v", err)
		}
	})

	t.Run("unknown transaction returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)

		if _, err := svc.DeleteTransaction(ctx, testutil.TestUserID, testutil.MakeID()); !errors.Is(err, apperrors.ErrTransactionNotFound) {
			t.Errorf("Expected ErrTransactionNotFound, got %v", err)
		}
	})
}

func TestTransactionService_DirtyMarking(t *testing.T) {
	ctx := context.Background()

	dirtyFrom := func(t *testing.T, db *sql.DB, portfolioID string, scope model.SnapshotScope) (string, bool) {
		t.Helper()
		var from string
		err := db.QueryRow(
			"SELECT dirty_from FROM snapshot_dirty WHERE user_id = ? AND portfolio_id = ? AND scope = ?",
			testutil.TestUserID, portfolioID, string(scope),
		).Scan(&from)
		if errors.Is(err, sql.ErrNoRows) {
			return "", false
		}
		if err != nil {
			t.Fatalf("Failed to read dirty marker: %v", err)
		}
		return from, true
	}

	t.Run("create marks portfolio and aggregate dirty from the trade date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, buyRequest(portfolio.ID)); err != nil {
			t.Fatalf("Failed to create: %v", err)
		}

		for _, pid := range []string{portfolio.ID, model.AllPortfolios} {
			from, ok := dirtyFrom(t, db, pid, model.ScopeHoldings)
			if !ok {
				t.Fatalf("Expected dirty marker for %s", pid)
			}
			if from[:10] != "2026-01-10" {
				t.Errorf("Expected dirty from 2026-01-10 for %s, got %s", pid, from)
			}
		}
	})

	t.Run("moving a transaction earlier extends the dirty range backwards", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)
		req.Date = "2026-02-10"
		created, err := svc.CreateTransaction(ctx, testutil.TestUserID, req)
		if err != nil {
			t.Fatalf("Failed to create: %v", err)
		}

		if _, err := svc.UpdateTransaction(ctx, testutil.TestUserID, created.TransactionID, request.UpdateTransactionRequest{
			Type:     "BUY",
			Date:     "2026-01-15",
			Quantity: "2",
			Price:    "100",
		}); err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}

		from, ok := dirtyFrom(t, db, portfolio.ID, model.ScopeHoldings)
		if !ok {
			t.Fatal("Expected dirty marker after update")
		}
		if from[:10] != "2026-01-15" {
			t.Errorf("Expected dirty range to start at the earlier date 2026-01-15, got %s", from)
		}
	})

	t.Run("future-dated create leaves no dirty marker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc, _ := testutil.NewTestTransactionService(t, db)
		portfolio := testutil.NewPortfolio().Build(t, db)

		req := buyRequest(portfolio.ID)
		req.Date = time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")

		if _, err := svc.CreateTransaction(ctx, testutil.TestUserID, req); err != nil {
			t.Fatalf("Failed to create: %v", err)
		}

		if _, ok := dirtyFrom(t, db, portfolio.ID, model.ScopeHoldings); ok {
			t.Error("Expected no dirty marker for a future-dated transaction")
		}
	})
}

var _ service.HoldingsReader = (*testutil.CountingHoldings)(nil)
