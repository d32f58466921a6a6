package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/ledger"
	"github.com/portfelo/ledger-backend/internal/model"
)

// InstrumentRepository provides data access methods for market instrument
// identities and user-private custom instruments. Market identities are
// global, deduplicated by the unique (provider, provider_key) index rather
// than by any in-process cache.
type InstrumentRepository struct {
	db *sql.DB
}

// NewInstrumentRepository creates a new InstrumentRepository with the provided database connection.
func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

// Upsert writes an instrument identity by its natural key and returns the
// stable id. Optional fields absent from the payload are left untouched on
// conflict, so a write with less data never clobbers a previously known
// logo, type, exchange or region.
func (r *InstrumentRepository) Upsert(ctx context.Context, p ledger.InstrumentUpsertPayload) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO instrument (id, provider, provider_key, symbol, name, currency, instrument_type, exchange, region, logo_url)
		VALUES (?, ?, ?, ?, ?, ?, COALESCE(?, ''), COALESCE(?, ''), COALESCE(?, ''), COALESCE(?, ''))
		ON CONFLICT(provider, provider_key) DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			currency = excluded.currency,
			instrument_type = COALESCE(?, instrument.instrument_type),
			exchange = COALESCE(?, instrument.exchange),
			region = COALESCE(?, instrument.region),
			logo_url = COALESCE(?, instrument.logo_url)`

	_, err := r.db.ExecContext(ctx, query,
		id, p.Provider, p.ProviderKey, p.Symbol, p.Name, p.Currency,
		p.Type, p.Exchange, p.Region, p.LogoURL,
		p.Type, p.Exchange, p.Region, p.LogoURL,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert instrument %s/%s: %w", p.Provider, p.ProviderKey, err)
	}

	// The insert id is discarded on conflict; read the stable one back.
	var stableID string
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM instrument WHERE provider = ? AND provider_key = ?`,
		p.Provider, p.ProviderKey,
	).Scan(&stableID)
	if err != nil {
		return "", fmt.Errorf("failed to read back instrument id: %w", err)
	}

	return stableID, nil
}

// GetByID retrieves an instrument identity by its id.
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (model.Instrument, error) {
	var inst model.Instrument
	var createdAt sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_key, symbol, name, currency, instrument_type, exchange, region, logo_url, created_at
		FROM instrument WHERE id = ?`, id,
	).Scan(
		&inst.ID, &inst.Provider, &inst.ProviderKey, &inst.Symbol, &inst.Name,
		&inst.Currency, &inst.Type, &inst.Exchange, &inst.Region, &inst.LogoURL, &createdAt,
	)
	if err == sql.ErrNoRows {
		return model.Instrument{}, apperrors.ErrInstrumentNotFound
	}
	if err != nil {
		return model.Instrument{}, fmt.Errorf("failed to read instrument %s: %w", id, err)
	}
	return inst, nil
}

// InsertOrReuseCustom inserts a custom instrument, using the client request
// id as the idempotency key: on a unique-constraint collision the existing
// row is read back and returned instead of erroring.
func (r *InstrumentRepository) InsertOrReuseCustom(ctx context.Context, c model.CustomInstrument) (model.CustomInstrument, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO custom_instrument (id, user_id, name, currency, kind, valuation_method, annual_rate_pct, client_request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Currency, string(c.Kind), string(c.ValuationMethod), c.AnnualRatePct, c.ClientRequestID,
	)
	if err == nil {
		return c, nil
	}
	if !IsUniqueViolation(err) {
		return model.CustomInstrument{}, fmt.Errorf("failed to insert custom instrument: %w", err)
	}

	existing, err := r.getCustomByRequestID(ctx, c.UserID, c.ClientRequestID)
	if err != nil {
		return model.CustomInstrument{}, err
	}
	return existing, nil
}

func (r *InstrumentRepository) getCustomByRequestID(ctx context.Context, userID, clientRequestID string) (model.CustomInstrument, error) {
	var c model.CustomInstrument
	var kind, method string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, currency, kind, valuation_method, annual_rate_pct, client_request_id
		FROM custom_instrument WHERE user_id = ? AND client_request_id = ?`,
		userID, clientRequestID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Currency, &kind, &method, &c.AnnualRatePct, &c.ClientRequestID)
	if err != nil {
		return model.CustomInstrument{}, fmt.Errorf("failed to read back custom instrument: %w", err)
	}
	c.Kind = model.CustomInstrumentKind(kind)
	c.ValuationMethod = model.ValuationMethod(method)
	return c, nil
}

// GetCustomByID retrieves a custom instrument scoped to its owning user.
func (r *InstrumentRepository) GetCustomByID(ctx context.Context, userID, id string) (model.CustomInstrument, error) {
	var c model.CustomInstrument
	var kind, method string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, currency, kind, valuation_method, annual_rate_pct, client_request_id
		FROM custom_instrument WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&c.ID, &c.UserID, &c.Name, &c.Currency, &kind, &method, &c.AnnualRatePct, &c.ClientRequestID)
	if err == sql.ErrNoRows {
		return model.CustomInstrument{}, apperrors.ErrInstrumentNotFound
	}
	if err != nil {
		return model.CustomInstrument{}, fmt.Errorf("failed to read custom instrument %s: %w", id, err)
	}
	c.Kind = model.CustomInstrumentKind(kind)
	c.ValuationMethod = model.ValuationMethod(method)
	return c, nil
}
