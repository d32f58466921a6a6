package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/portfelo/ledger-backend/internal/fxrate"
	"github.com/portfelo/ledger-backend/internal/repository"
)

// fxPrewarmConcurrency caps parallel upstream rate fetches.
const fxPrewarmConcurrency = 4

// FXPrewarmService warms the FX rate cache for every currency pair the
// ledger currently references, so that transaction writes rarely block on
// the upstream rate provider.
type FXPrewarmService struct {
	holdingsRepo *repository.HoldingsRepository
	fx           fxrate.Source
}

// NewFXPrewarmService creates a new FXPrewarmService.
func NewFXPrewarmService(holdingsRepo *repository.HoldingsRepository, fx fxrate.Source) *FXPrewarmService {
	return &FXPrewarmService{holdingsRepo: holdingsRepo, fx: fx}
}

// Prewarm fetches today's rate for every distinct asset/cash currency pair
// in the ledger. Individual pair failures are logged and do not abort the
// remaining fetches.
func (s *FXPrewarmService) Prewarm(ctx context.Context) error {
	pairs, err := s.holdingsRepo.DistinctCurrencyPairs(ctx)
	if err != nil {
		return err
	}

	today := time.Now().UTC()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fxPrewarmConcurrency)
	for _, pair := range pairs {
		base, quote := pair[0], pair[1]
		if base == quote {
			continue
		}
		g.Go(func() error {
			rate, err := s.fx.GetRate(ctx, base, quote, today)
			if err != nil {
				log.Printf("fx prewarm: %s/%s: %v", base, quote, err)
				return nil
			}
			if rate == nil {
				log.Printf("fx prewarm: %s/%s: no rate published", base, quote)
			}
			return nil
		})
	}
	return g.Wait()
}

// Schedule registers the daily prewarm run. ECB reference rates are
// published around 16:00 CET, so the job runs shortly after.
func (s *FXPrewarmService) Schedule(c *cron.Cron) error {
	_, err := c.AddFunc("15 16 * * 1-5", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.Prewarm(ctx); err != nil {
			log.Printf("fx prewarm run failed: %v", err)
		}
	})
	return err
}
