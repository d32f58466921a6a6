package service

import (
	"context"
	"strings"
	"time"

	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/money"
	"github.com/portfelo/ledger-backend/internal/repository"
	"github.com/portfelo/ledger-backend/internal/validation"
)

// InstrumentService exposes instrument reads and custom-asset valuation.
type InstrumentService struct {
	instrumentRepo *repository.InstrumentRepository
}

// NewInstrumentService creates a new InstrumentService.
func NewInstrumentService(instrumentRepo *repository.InstrumentRepository) *InstrumentService {
	return &InstrumentService{instrumentRepo: instrumentRepo}
}

// CreateCustomInstrument registers a custom instrument for a user without
// recording a transaction against it. Re-submitting the same client request
// id returns the instrument created by the first submission.
func (s *InstrumentService) CreateCustomInstrument(ctx context.Context, userID string, req request.CreateCustomInstrumentRequest) (model.CustomInstrument, error) {
	if err := validation.ValidateCreateCustomInstrument(req); err != nil {
		return model.CustomInstrument{}, err
	}

	return s.instrumentRepo.InsertOrReuseCustom(ctx, model.CustomInstrument{
		UserID:          userID,
		Name:            strings.TrimSpace(req.Name),
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Kind:            model.CustomInstrumentKind(req.Kind),
		ValuationMethod: model.ValuationCompoundAnnualRate,
		AnnualRatePct:   req.AnnualRatePct,
		ClientRequestID: req.ClientRequestID,
	})
}

// GetInstrument returns a market instrument by id.
func (s *InstrumentService) GetInstrument(ctx context.Context, id string) (model.Instrument, error) {
	if err := validation.ValidateUUID(id); err != nil {
		return model.Instrument{}, err
	}
	return s.instrumentRepo.GetByID(ctx, id)
}

// CustomInstrumentProjection is the valuation of a custom asset at a date.
type CustomInstrumentProjection struct {
	Instrument model.CustomInstrument `json:"instrument"`
	AsOf       time.Time              `json:"asOf"`
	Value      string                 `json:"value"`
}

// ProjectCustomValue compounds a custom instrument's base value at its annual
// rate from the acquisition date to asOf.
func (s *InstrumentService) ProjectCustomValue(ctx context.Context, userID, customID, baseValue string, acquired, asOf time.Time) (CustomInstrumentProjection, error) {
	if err := validation.ValidateUUID(customID); err != nil {
		return CustomInstrumentProjection{}, err
	}
	base, ok := money.Parse(baseValue)
	if !ok {
		return CustomInstrumentProjection{}, apperrors.ErrInvalidAmount
	}

	custom, err := s.instrumentRepo.GetCustomByID(ctx, userID, customID)
	if err != nil {
		return CustomInstrumentProjection{}, err
	}

	return CustomInstrumentProjection{
		Instrument: custom,
		AsOf:       asOf,
		Value:      custom.ProjectedValue(base, acquired, asOf).String(),
	}, nil
}
