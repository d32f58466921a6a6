package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/ledger"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/testutil"
)

func TestInstrumentRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	payload := func() ledger.InstrumentUpsertPayload {
		inst, err := ledger.NormalizeInstrument(ledger.InstrumentPayload{
			Provider:    "EODHD",
			ProviderKey: "AAPL.US",
			Symbol:      "AAPL",
			Name:        "Apple Inc",
			Currency:    "usd",
			Type:        "EQUITY",
			LogoURL:     "https://example.com/aapl.png",
		})
		if err != nil {
			t.Fatalf("NormalizeInstrument failed: %v", err)
		}
		return ledger.BuildInstrumentUpsertPayload(inst)
	}

	t.Run("repeated upserts return the same stable id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		first, err := repo.Upsert(ctx, payload())
		if err != nil {
			t.Fatalf("First upsert failed: %v", err)
		}
		second, err := repo.Upsert(ctx, payload())
		if err != nil {
			t.Fatalf("Second upsert failed: %v", err)
		}

		if first != second {
			t.Errorf("Expected stable id, got %s then %s", first, second)
		}
	})

	t.Run("a later write with less data never clobbers known fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		id, err := repo.Upsert(ctx, payload())
		if err != nil {
			t.Fatalf("First upsert failed: %v", err)
		}

		// Same identity, no logo and no type this time
		sparse := payload()
		sparse.LogoURL = nil
		sparse.Type = nil
		if _, err := repo.Upsert(ctx, sparse); err != nil {
			t.Fatalf("Sparse upsert failed: %v", err)
		}

		inst, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if inst.LogoURL != "https://example.com/aapl.png" {
			t.Errorf("Expected logo to survive the sparse write, got %q", inst.LogoURL)
		}
		if inst.Type != model.InstrumentEquity {
			t.Errorf("Expected type to survive the sparse write, got %q", inst.Type)
		}
	})

	t.Run("richer write fills previously unknown fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		sparse := payload()
		sparse.LogoURL = nil
		id, err := repo.Upsert(ctx, sparse)
		if err != nil {
			t.Fatalf("Sparse upsert failed: %v", err)
		}

		if _, err := repo.Upsert(ctx, payload()); err != nil {
			t.Fatalf("Rich upsert failed: %v", err)
		}

		inst, err := repo.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if inst.LogoURL == "" {
			t.Error("Expected logo to be filled by the richer write")
		}
	})

	t.Run("unknown id returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		if _, err := repo.GetByID(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrInstrumentNotFound) {
			t.Errorf("Expected ErrInstrumentNotFound, got %v", err)
		}
	})
}

func TestInstrumentRepository_InsertOrReuseCustom(t *testing.T) {
	ctx := context.Background()

	custom := func(clientRequestID string) model.CustomInstrument {
		return model.CustomInstrument{
			UserID:          testutil.TestUserID,
			Name:            "Apartment",
			Currency:        "PLN",
			Kind:            model.CustomKindRealEstate,
			ValuationMethod: model.ValuationCompoundAnnualRate,
			AnnualRatePct:   "3",
			ClientRequestID: clientRequestID,
		}
	}

	t.Run("same client request id reuses the existing row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		requestID := testutil.MakeID()

		first, err := repo.InsertOrReuseCustom(ctx, custom(requestID))
		if err != nil {
			t.Fatalf("First insert failed: %v", err)
		}
		second, err := repo.InsertOrReuseCustom(ctx, custom(requestID))
		if err != nil {
			t.Fatalf("Second insert failed: %v", err)
		}

		if first.ID != second.ID {
			t.Errorf("Expected the same row, got %s then %s", first.ID, second.ID)
		}
	})

	t.Run("different users may share a client request id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		requestID := testutil.MakeID()

		mine, err := repo.InsertOrReuseCustom(ctx, custom(requestID))
		if err != nil {
			t.Fatalf("First insert failed: %v", err)
		}

		other := custom(requestID)
		other.UserID = testutil.MakeID()
		theirs, err := repo.InsertOrReuseCustom(ctx, other)
		if err != nil {
			t.Fatalf("Second insert failed: %v", err)
		}

		if mine.ID == theirs.ID {
			t.Error("Expected distinct rows for distinct users")
		}
	})

	t.Run("custom lookup is scoped to the owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		stored, err := repo.InsertOrReuseCustom(ctx, custom(testutil.MakeID()))
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		if _, err := repo.GetCustomByID(ctx, testutil.MakeID(), stored.ID); !errors.Is(err, apperrors.ErrInstrumentNotFound) {
			t.Errorf("Expected ErrInstrumentNotFound for foreign user, got %v", err)
		}
	})
}
