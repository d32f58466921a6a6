package service

import (
	"context"
	"time"

	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/validation"
)

// HoldingsService exposes point-in-time holdings reads.
type HoldingsService struct {
	holdings HoldingsReader
}

// NewHoldingsService creates a new HoldingsService.
func NewHoldingsService(holdings HoldingsReader) *HoldingsService {
	return &HoldingsService{holdings: holdings}
}

// Snapshot returns the user's net positions as of the given date. An empty
// portfolio id aggregates across all portfolios.
func (s *HoldingsService) Snapshot(ctx context.Context, userID, portfolioID string, asOf time.Time) (*model.HoldingsSnapshot, error) {
	if portfolioID != "" && portfolioID != model.AllPortfolios {
		if err := validation.ValidateUUID(portfolioID); err != nil {
			return nil, err
		}
	}
	if portfolioID == model.AllPortfolios {
		portfolioID = ""
	}
	return s.holdings.HoldingsAsOf(ctx, repository.HoldingsQuery{
		UserID:      userID,
		PortfolioID: portfolioID,
		AsOf:        asOf,
	})
}
