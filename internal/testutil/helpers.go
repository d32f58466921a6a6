package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfelo/ledger-backend/internal/fxrate"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/service"
)

// StaticFXSource returns the same rate for every pair. A nil rate simulates
// an unpublished pair.
type StaticFXSource struct {
	Rate  *fxrate.Rate
	Calls int
}

// GetRate implements fxrate.Source.
func (s *StaticFXSource) GetRate(_ context.Context, _, _ string, _ time.Time) (*fxrate.Rate, error) {
	s.Calls++
	return s.Rate, nil
}

// NewStaticFXSource returns a source resolving every pair at the given rate.
func NewStaticFXSource(rate string) *StaticFXSource {
	d, err := decimal.NewFromString(rate)
	if err != nil {
		panic(err)
	}
	return &StaticFXSource{Rate: &fxrate.Rate{
		Rate:   d,
		AsOf:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Source: "test",
	}}
}

// CountingHoldings wraps a holdings reader and counts snapshot reads, used to
// assert which code paths hit storage.
type CountingHoldings struct {
	Inner service.HoldingsReader
	Calls int
}

// HoldingsAsOf implements service.HoldingsReader.
func (c *CountingHoldings) HoldingsAsOf(ctx context.Context, q repository.HoldingsQuery) (*model.HoldingsSnapshot, error) {
	c.Calls++
	return c.Inner.HoldingsAsOf(ctx, q)
}

// NewTestTransactionService wires a TransactionService against the given
// database with a static 1:1 FX source. The returned CountingHoldings
// records every snapshot read the service performs.
func NewTestTransactionService(t *testing.T, db *sql.DB) (*service.TransactionService, *CountingHoldings) {
	t.Helper()
	return NewTestTransactionServiceWithFX(t, db, NewStaticFXSource("1"))
}

// NewTestTransactionServiceWithFX is NewTestTransactionService with a caller
// supplied FX source.
func NewTestTransactionServiceWithFX(t *testing.T, db *sql.DB, fx fxrate.Source) (*service.TransactionService, *CountingHoldings) {
	t.Helper()

	holdings := &CountingHoldings{Inner: repository.NewHoldingsRepository(db)}
	svc := service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewInstrumentRepository(db),
		repository.NewPortfolioRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewProfileRepository(db),
		holdings,
		fx,
	)
	return svc, holdings
}

// NewTestSystemService wires a SystemService against the given database.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// NewTestHoldingsService wires a HoldingsService against the given database.
func NewTestHoldingsService(t *testing.T, db *sql.DB) *service.HoldingsService {
	t.Helper()
	return service.NewHoldingsService(repository.NewHoldingsRepository(db))
}
