package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/portfelo/ledger-backend/internal/model"
	"github.com/portfelo/ledger-backend/internal/money"
)

// HoldingsRepository computes point-in-time holdings from the ledger. The
// "as of" semantics, including the cash classification, live in this one
// query; the guards only consume the resulting maps.
type HoldingsRepository struct {
	db *sql.DB
}

// NewHoldingsRepository creates a new HoldingsRepository with the provided database connection.
func NewHoldingsRepository(db *sql.DB) *HoldingsRepository {
	return &HoldingsRepository{db: db}
}

// HoldingsQuery scopes a snapshot read. ExcludeGroupID removes one leg group
// from the computation, used when validating an edit that will replace that
// group.
type HoldingsQuery struct {
	UserID         string
	PortfolioID    string // empty means all portfolios
	AsOf           time.Time
	ExcludeGroupID string
}

// HoldingsAsOf returns a user's net positions derived strictly from ledger
// legs dated on or before the reference date. BUY legs add quantity, SELL
// legs subtract it; summing is done in exact decimal, never floating point.
// Cash positions are identified by the system provider or the CURRENCY
// instrument type; custom instruments are keyed by their own id and are
// never cash.
func (r *HoldingsRepository) HoldingsAsOf(ctx context.Context, q HoldingsQuery) (*model.HoldingsSnapshot, error) {
	query := `
		SELECT
			COALESCE(t.instrument_id, t.custom_instrument_id) AS position_key,
			COALESCE(i.currency, c.currency, '') AS currency,
			CASE WHEN i.provider = ? OR i.instrument_type = ? THEN 1 ELSE 0 END AS is_cash,
			t.side,
			t.quantity
		FROM transaction_leg t
		LEFT JOIN instrument i ON t.instrument_id = i.id
		LEFT JOIN custom_instrument c ON t.custom_instrument_id = c.id
		WHERE t.user_id = ?
		AND t.trade_date <= ?`

	args := []any{model.CashProvider, string(model.InstrumentCurrency), q.UserID, q.AsOf.Format("2006-01-02")}

	if q.PortfolioID != "" {
		query += ` AND t.portfolio_id = ?`
		args = append(args, q.PortfolioID)
	}
	if q.ExcludeGroupID != "" {
		query += ` AND t.group_id != ?`
		args = append(args, q.ExcludeGroupID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings as of %s: %w", q.AsOf.Format("2006-01-02"), err)
	}
	defer rows.Close()

	snap := model.NewHoldingsSnapshot()
	for rows.Next() {
		var positionKey, currency, side, quantity string
		var isCash int
		if err := rows.Scan(&positionKey, &currency, &isCash, &side, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan holdings row: %w", err)
		}

		qty, ok := money.Parse(quantity)
		if !ok {
			return nil, fmt.Errorf("malformed quantity %q in ledger", quantity)
		}
		if model.Side(side) == model.SideSell {
			qty = qty.Neg()
		}

		if isCash == 1 {
			snap.CashByCurrency[currency] = snap.CashBalance(currency).Add(qty)
		} else {
			snap.ByInstrument[positionKey] = snap.InstrumentQuantity(positionKey).Add(qty)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings rows: %w", err)
	}

	return snap, nil
}

// DistinctCurrencyPairs returns the (asset currency, cash currency) pairs
// present in the ledger where the two differ. Used by the FX prewarm job.
func (r *HoldingsRepository) DistinctCurrencyPairs(ctx context.Context) ([][2]string, error) {
	query := `
		SELECT DISTINCT i.currency, ci.currency
		FROM transaction_leg asset
		JOIN instrument i ON asset.instrument_id = i.id
		JOIN transaction_leg cash ON cash.group_id = asset.group_id AND cash.leg_role = 'CASH'
		JOIN instrument ci ON cash.instrument_id = ci.id
		WHERE asset.leg_role = 'ASSET'
		AND i.currency != ci.currency`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query currency pairs: %w", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var base, quote string
		if err := rows.Scan(&base, &quote); err != nil {
			return nil, fmt.Errorf("failed to scan currency pair: %w", err)
		}
		pairs = append(pairs, [2]string{base, quote})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency pairs: %w", err)
	}

	return pairs, nil
}
