package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/fxrate"
	"github.com/portfelo/ledger-backend/internal/ledger"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/validation"
)

// SupportedCashCurrencies is the allow-list for cash balances. Settlement and
// withdrawal requests in any other currency are rejected up front.
var SupportedCashCurrencies = map[string]bool{
	"PLN": true, "USD": true, "EUR": true, "GBP": true, "CHF": true,
}

// HoldingsReader is the snapshot dependency of the transaction guards.
// Satisfied by repository.HoldingsRepository.
type HoldingsReader interface {
	HoldingsAsOf(ctx context.Context, q repository.HoldingsQuery) (*model.HoldingsSnapshot, error)
}

// TransactionService orchestrates ledger writes: it normalizes instrument
// identities, plans settlement legs, checks solvency guards against a
// holdings snapshot and persists the resulting leg group atomically.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	instrumentRepo  *repository.InstrumentRepository
	portfolioRepo   *repository.PortfolioRepository
	snapshotRepo    *repository.SnapshotRepository
	profileRepo     *repository.ProfileRepository
	holdings        HoldingsReader
	fx              fxrate.Source
	now             func() time.Time
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	instrumentRepo *repository.InstrumentRepository,
	portfolioRepo *repository.PortfolioRepository,
	snapshotRepo *repository.SnapshotRepository,
	profileRepo *repository.ProfileRepository,
	holdings HoldingsReader,
	fx fxrate.Source,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		instrumentRepo:  instrumentRepo,
		portfolioRepo:   portfolioRepo,
		snapshotRepo:    snapshotRepo,
		profileRepo:     profileRepo,
		holdings:        holdings,
		fx:              fx,
		now:             time.Now,
	}
}

// resolvedIdentity is the instrument side of a transaction after
// normalization and storage upsert.
type resolvedIdentity struct {
	instrumentID string
	customID     string
	currency     string
	isCash       bool
}

func (r resolvedIdentity) snapshotKey() string {
	if r.instrumentID != "" {
		return r.instrumentID
	}
	return r.customID
}

// CreateTransaction records one transaction group. Duplicate submissions
// under the same client request id return the originally stored transaction
// with Deduped set instead of writing a second group.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, req request.CreateTransactionRequest) (model.CreateTransactionResult, error) {
	var zero model.CreateTransactionResult

	if err := validation.ValidateCreateTransaction(req); err != nil {
		return zero, err
	}

	tradeDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return zero, err
	}
	side := model.Side(req.Type)

	if _, err := s.portfolioRepo.Get(ctx, userID, req.PortfolioID); err != nil {
		return zero, err
	}

	identity, err := s.resolveIdentity(ctx, userID, req)
	if err != nil {
		return zero, err
	}

	intent := ledger.ResolveTransactionIntent(identity.isCash, side)

	groupID := uuid.New().String()
	assetLeg := model.TransactionLeg{
		ID:                 uuid.New().String(),
		UserID:             userID,
		PortfolioID:        req.PortfolioID,
		InstrumentID:       identity.instrumentID,
		CustomInstrumentID: identity.customID,
		GroupID:            groupID,
		TradeDate:          tradeDate,
		Side:               side,
		Quantity:           req.Quantity,
		Price:              req.Price,
		Fee:                orZero(req.Fee),
		Notes:              req.Notes,
		ClientRequestID:    req.ClientRequestID,
		LegRole:            model.LegRoleAsset,
		LegKey:             model.LegKeyAsset,
	}
	if req.CashflowType != "" {
		assetLeg.CashflowType = model.CashflowType(req.CashflowType)
	}

	legs, plans, err := s.planGroup(ctx, assetLeg, identity, settlementParams{
		consumeCash:  req.ConsumeCash,
		cashCurrency: req.CashCurrency,
		fxFee:        req.FXFee,
	})
	if err != nil {
		return zero, err
	}

	if err := s.runGuards(ctx, guardScope{}, userID, req.PortfolioID, tradeDate, intent, identity, req.Quantity, req.ConsumeCash, req.CashCurrency, plans); err != nil {
		return zero, err
	}

	if err := s.transactionRepo.InsertLegGroup(ctx, legs); err != nil {
		if repository.IsUniqueViolation(err) {
			existing, lookupErr := s.transactionRepo.GetAssetLegByClientRequestID(ctx, userID, req.ClientRequestID)
			if lookupErr != nil {
				return zero, lookupErr
			}
			return model.CreateTransactionResult{
				TransactionID:      existing.ID,
				InstrumentID:       existing.InstrumentID,
				CustomInstrumentID: existing.CustomInstrumentID,
				Deduped:            true,
			}, nil
		}
		return zero, fmt.Errorf("failed to record transaction: %w", err)
	}

	s.afterCommit(ctx, "create transaction", userID, req.PortfolioID, tradeDate)

	return model.CreateTransactionResult{
		TransactionID:      assetLeg.ID,
		InstrumentID:       identity.instrumentID,
		CustomInstrumentID: identity.customID,
	}, nil
}

// UpdateTransaction replaces an entire leg group in place. Instrument
// identity, group id, asset leg id and client request id all survive the
// edit; everything else is rebuilt from the request as if created fresh.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, req request.UpdateTransactionRequest) (model.UpdateTransactionResult, error) {
	var zero model.UpdateTransactionResult

	if err := validation.ValidateUUID(transactionID); err != nil {
		return zero, err
	}
	if err := validation.ValidateUpdateTransaction(req); err != nil {
		return zero, err
	}

	group, err := s.transactionRepo.GetGroupByTransactionID(ctx, userID, transactionID)
	if err != nil {
		return zero, err
	}
	asset, ok := findAssetLeg(group)
	if !ok {
		// A group without an asset leg is unreachable through the API; treat
		// it the same as a missing transaction.
		return zero, apperrors.ErrTransactionNotFound
	}

	tradeDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return zero, err
	}
	side := model.Side(req.Type)

	identity, err := s.loadIdentity(ctx, userID, asset)
	if err != nil {
		return zero, err
	}
	if identity.isCash && req.CashflowType == "" {
		return zero, apperrors.ErrCashRequiresCashflowType
	}

	intent := ledger.ResolveTransactionIntent(identity.isCash, side)

	newAsset := asset
	newAsset.TradeDate = tradeDate
	newAsset.Side = side
	newAsset.Quantity = req.Quantity
	newAsset.Price = req.Price
	newAsset.Fee = orZero(req.Fee)
	newAsset.Notes = req.Notes
	newAsset.CashflowType = model.CashflowType(req.CashflowType)
	newAsset.FX = nil

	legs, plans, err := s.planGroup(ctx, newAsset, identity, settlementParams{
		consumeCash:  req.ConsumeCash,
		cashCurrency: req.CashCurrency,
		fxFee:        req.FXFee,
	})
	if err != nil {
		return zero, err
	}

	// The snapshot excludes the group being replaced so the edit is judged
	// against the ledger as it will look after the old legs are gone.
	scope := guardScope{excludeGroupID: asset.GroupID}
	if err := s.runGuards(ctx, scope, userID, asset.PortfolioID, tradeDate, intent, identity, req.Quantity, req.ConsumeCash, req.CashCurrency, plans); err != nil {
		return zero, err
	}

	res, err := s.transactionRepo.ReplaceGroup(ctx, asset.GroupID, legs)
	if err != nil {
		return zero, err
	}

	s.afterCommit(ctx, "update transaction", userID, res.PortfolioID, earlierDate(res.OldTradeDate, res.NewTradeDate))

	return model.UpdateTransactionResult{
		GroupID:       asset.GroupID,
		PortfolioID:   res.PortfolioID,
		OldTradeDate:  res.OldTradeDate,
		NewTradeDate:  res.NewTradeDate,
		ReplacedCount: res.ReplacedCount,
	}, nil
}

// DeleteTransaction removes a leg group identified by its asset leg id.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) (model.DeleteTransactionResult, error) {
	var zero model.DeleteTransactionResult

	if err := validation.ValidateUUID(transactionID); err != nil {
		return zero, err
	}

	res, err := s.transactionRepo.DeleteGroup(ctx, userID, transactionID)
	if err != nil {
		return zero, err
	}

	s.afterCommit(ctx, "delete transaction", userID, res.PortfolioID, res.TradeDate)

	return res, nil
}

// GetTransaction returns all legs of the group the asset leg id belongs to.
func (s *TransactionService) GetTransaction(ctx context.Context, userID, transactionID string) ([]model.TransactionLeg, error) {
	if err := validation.ValidateUUID(transactionID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetGroupByTransactionID(ctx, userID, transactionID)
}

// ListTransactions returns asset legs matching the filters, enriched with
// instrument names.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filters model.TransactionFilters) ([]model.TransactionListItem, error) {
	return s.transactionRepo.ListAssetLegs(ctx, userID, filters)
}

// resolveIdentity normalizes the instrument side of a create request and
// persists it: market instruments are upserted globally, custom instruments
// inserted per user, and cash identities minted from the currency alone.
func (s *TransactionService) resolveIdentity(ctx context.Context, userID string, req request.CreateTransactionRequest) (resolvedIdentity, error) {
	var zero resolvedIdentity

	switch {
	case req.Instrument != nil && req.CustomInstrument != nil,
		req.Instrument == nil && req.CustomInstrument == nil:
		return zero, apperrors.ErrInstrumentChoice

	case req.Instrument != nil:
		p := *req.Instrument
		var inst model.Instrument
		isCash := strings.EqualFold(p.Type, string(model.InstrumentCurrency)) ||
			strings.EqualFold(p.Provider, model.CashProvider)
		if isCash {
			if req.CashflowType == "" {
				return zero, apperrors.ErrCashRequiresCashflowType
			}
			inst = ledger.BuildCashInstrument(p.Currency)
			if !SupportedCashCurrencies[inst.Currency] {
				return zero, apperrors.ErrUnsupportedCashCurrency
			}
		} else {
			var err error
			inst, err = ledger.NormalizeInstrument(ledger.InstrumentPayload{
				Provider:    p.Provider,
				ProviderKey: p.ProviderKey,
				Symbol:      p.Symbol,
				Name:        p.Name,
				Currency:    p.Currency,
				Type:        p.Type,
				Exchange:    p.Exchange,
				Region:      p.Region,
				LogoURL:     p.LogoURL,
			})
			if err != nil {
				return zero, err
			}
		}
		id, err := s.instrumentRepo.Upsert(ctx, ledger.BuildInstrumentUpsertPayload(inst))
		if err != nil {
			return zero, err
		}
		return resolvedIdentity{instrumentID: id, currency: inst.Currency, isCash: isCash}, nil

	default:
		c := *req.CustomInstrument
		stored, err := s.instrumentRepo.InsertOrReuseCustom(ctx, model.CustomInstrument{
			UserID:          userID,
			Name:            strings.TrimSpace(c.Name),
			Currency:        strings.ToUpper(strings.TrimSpace(c.Currency)),
			Kind:            model.CustomInstrumentKind(c.Kind),
			ValuationMethod: model.ValuationCompoundAnnualRate,
			AnnualRatePct:   c.AnnualRatePct,
			ClientRequestID: req.ClientRequestID,
		})
		if err != nil {
			return zero, err
		}
		return resolvedIdentity{customID: stored.ID, currency: stored.Currency}, nil
	}
}

// loadIdentity re-reads the fixed instrument identity of an existing asset
// leg, used by updates where the identity is immutable.
func (s *TransactionService) loadIdentity(ctx context.Context, userID string, asset model.TransactionLeg) (resolvedIdentity, error) {
	if asset.InstrumentID != "" {
		inst, err := s.instrumentRepo.GetByID(ctx, asset.InstrumentID)
		if err != nil {
			return resolvedIdentity{}, err
		}
		return resolvedIdentity{instrumentID: inst.ID, currency: inst.Currency, isCash: inst.IsCash()}, nil
	}
	custom, err := s.instrumentRepo.GetCustomByID(ctx, userID, asset.CustomInstrumentID)
	if err != nil {
		return resolvedIdentity{}, err
	}
	return resolvedIdentity{customID: custom.ID, currency: custom.Currency}, nil
}

type settlementParams struct {
	consumeCash  bool
	cashCurrency string
	fxFee        string
}

// planGroup expands an asset leg into the full leg group to be written. Cash
// settlement legs are only planned for non-cash trades that consume cash.
func (s *TransactionService) planGroup(ctx context.Context, asset model.TransactionLeg, identity resolvedIdentity, p settlementParams) ([]model.TransactionLeg, []model.SettlementLeg, error) {
	legs := []model.TransactionLeg{asset}

	if !p.consumeCash || identity.isCash {
		return legs, nil, nil
	}

	cashCurrency := strings.ToUpper(strings.TrimSpace(p.cashCurrency))
	if !SupportedCashCurrencies[cashCurrency] {
		return nil, nil, apperrors.ErrUnsupportedCashCurrency
	}

	cashInstrumentID, err := s.instrumentRepo.Upsert(ctx, ledger.BuildInstrumentUpsertPayload(ledger.BuildCashInstrument(cashCurrency)))
	if err != nil {
		return nil, nil, err
	}

	var fxCtx *ledger.FXContext
	if identity.currency != cashCurrency {
		rate, err := s.fx.GetRate(ctx, identity.currency, cashCurrency, asset.TradeDate)
		if err != nil {
			return nil, nil, err
		}
		if rate == nil {
			return nil, nil, &apperrors.FXRateError{Base: identity.currency, Quote: cashCurrency, AsOf: asset.TradeDate}
		}
		fxCtx = &ledger.FXContext{Rate: rate.Rate.String(), AsOf: rate.AsOf, Source: rate.Source}
	}

	plans, err := ledger.BuildSettlementLegs(ledger.SettlementInput{
		Side:          asset.Side,
		Quantity:      asset.Quantity,
		Price:         asset.Price,
		Fee:           asset.Fee,
		AssetCurrency: identity.currency,
		CashCurrency:  cashCurrency,
		FX:            fxCtx,
		FXFee:         p.fxFee,
	})
	if err != nil {
		return nil, nil, err
	}

	for _, plan := range plans {
		legs = append(legs, model.TransactionLeg{
			ID:              uuid.New().String(),
			UserID:          asset.UserID,
			PortfolioID:     asset.PortfolioID,
			InstrumentID:    cashInstrumentID,
			GroupID:         asset.GroupID,
			TradeDate:       asset.TradeDate,
			Side:            plan.Side,
			Quantity:        plan.Quantity,
			Price:           plan.Price,
			Fee:             "0",
			ClientRequestID: asset.ClientRequestID,
			LegRole:         model.LegRoleCash,
			LegKey:          plan.LegKey,
			CashflowType:    plan.CashflowType,
			FX:              plan.FX,
		})
	}

	return legs, plans, nil
}

type guardScope struct {
	excludeGroupID string
}

// runGuards fetches one holdings snapshot and runs all solvency checks
// against it. Intents that cannot fail a guard skip the snapshot read
// entirely.
func (s *TransactionService) runGuards(ctx context.Context, scope guardScope, userID, portfolioID string, tradeDate time.Time, intent model.TransactionIntent, identity resolvedIdentity, quantity string, consumeCash bool, cashCurrency string, plans []model.SettlementLeg) error {
	if identity.isCash {
		consumeCash = false
	}
	if !ledger.NeedsHoldingsSnapshot(intent, consumeCash) {
		return nil
	}

	snap, err := s.holdings.HoldingsAsOf(ctx, repository.HoldingsQuery{
		UserID:         userID,
		PortfolioID:    portfolioID,
		AsOf:           tradeDate,
		ExcludeGroupID: scope.excludeGroupID,
	})
	if err != nil {
		return err
	}

	guardCurrency := strings.ToUpper(strings.TrimSpace(cashCurrency))
	if intent == model.IntentCashWithdrawal {
		guardCurrency = identity.currency
	}

	return ledger.ValidateAgainstHoldings(ledger.GuardInput{
		Intent:         intent,
		InstrumentKey:  identity.snapshotKey(),
		Quantity:       quantity,
		CashCurrency:   guardCurrency,
		TradeDate:      tradeDate,
		ConsumeCash:    consumeCash,
		SettlementLegs: plans,
	}, snap)
}

// afterCommit runs the post-commit side effects of a ledger write: the
// user profile's activity timestamp and the dirty marks that schedule
// snapshot recomputation from the affected date forward. Future-dated
// writes do not dirty anything yet.
func (s *TransactionService) afterCommit(ctx context.Context, op, userID, portfolioID string, from time.Time) {
	hooks := []postCommitHook{
		{name: "touch profile activity", run: func(ctx context.Context) error {
			return s.profileRepo.TouchLastActive(ctx, userID, s.now())
		}},
	}

	if !from.After(s.now()) {
		for _, pid := range []string{portfolioID, model.AllPortfolios} {
			for _, sc := range []model.SnapshotScope{model.ScopeHoldings, model.ScopePerformance} {
				hooks = append(hooks, postCommitHook{
					name: fmt.Sprintf("mark %s/%s dirty", pid, sc),
					run: func(ctx context.Context) error {
						return s.snapshotRepo.MarkDirty(ctx, userID, pid, sc, from)
					},
				})
			}
		}
	}

	runPostCommitHooks(ctx, op, hooks)
}

func findAssetLeg(legs []model.TransactionLeg) (model.TransactionLeg, bool) {
	for _, leg := range legs {
		if leg.LegRole == model.LegRoleAsset {
			return leg, true
		}
	}
	return model.TransactionLeg{}, false
}

func earlierDate(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func orZero(amount string) string {
	if strings.TrimSpace(amount) == "" {
		return "0"
	}
	return amount
}
