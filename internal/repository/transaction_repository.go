package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction_leg
// table. Multi-leg writes are always all-or-nothing: creation is a single
// batched insert and editing is a delete-plus-reinsert of the whole group
// inside one database transaction, so a group can never be observed with only
// some of its legs.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const legColumns = `
	id, user_id, portfolio_id, instrument_id, custom_instrument_id, group_id,
	trade_date, side, quantity, price, fee, notes, client_request_id,
	leg_role, leg_key, cashflow_type, fx_rate, fx_as_of, fx_source, created_at`

const legInsert = `
	INSERT INTO transaction_leg (
		id, user_id, portfolio_id, instrument_id, custom_instrument_id, group_id,
		trade_date, side, quantity, price, fee, notes, client_request_id,
		leg_role, leg_key, cashflow_type, fx_rate, fx_as_of, fx_source
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ReplaceGroupResult is the return contract of ReplaceGroup. The dirty-range
// computation after an edit depends on both trade dates.
type ReplaceGroupResult struct {
	PortfolioID   string
	OldTradeDate  time.Time
	NewTradeDate  time.Time
	ReplacedCount int
}

func legInsertArgs(leg model.TransactionLeg) []any {
	var fxRate, fxSource sql.NullString
	var fxAsOf sql.NullString
	if leg.FX != nil {
		fxRate = sql.NullString{String: leg.FX.Rate, Valid: true}
		fxAsOf = sql.NullString{String: leg.FX.AsOf.UTC().Format(time.RFC3339), Valid: true}
		fxSource = sql.NullString{String: leg.FX.Source, Valid: true}
	}
	return []any{
		leg.ID,
		leg.UserID,
		leg.PortfolioID,
		nullIfEmpty(leg.InstrumentID),
		nullIfEmpty(leg.CustomInstrumentID),
		leg.GroupID,
		leg.TradeDate.Format("2006-01-02"),
		string(leg.Side),
		leg.Quantity,
		leg.Price,
		leg.Fee,
		leg.Notes,
		leg.ClientRequestID,
		string(leg.LegRole),
		string(leg.LegKey),
		nullIfEmpty(string(leg.CashflowType)),
		fxRate,
		fxAsOf,
		fxSource,
	}
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// InsertLegGroup inserts all legs of one logical transaction in a single
// database transaction. A UNIQUE violation on the asset leg's idempotency
// index is returned to the caller unwrapped so the orchestrator can detect
// the duplicate submission and recover.
func (r *TransactionRepository) InsertLegGroup(ctx context.Context, legs []model.TransactionLeg) error {
	if len(legs) == 0 {
		return fmt.Errorf("cannot insert an empty leg group")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, leg := range legs {
		if _, err := tx.ExecContext(ctx, legInsert, legInsertArgs(leg)...); err != nil {
			if IsUniqueViolation(err) {
				return err
			}
			return fmt.Errorf("failed to insert transaction leg: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to commit leg group: %w", err)
	}

	return nil
}

// GetAssetLegByClientRequestID reads back the asset leg stored under an
// idempotency key. Used to resolve duplicate submissions.
func (r *TransactionRepository) GetAssetLegByClientRequestID(ctx context.Context, userID, clientRequestID string) (model.TransactionLeg, error) {
	query := `SELECT ` + legColumns + `
		FROM transaction_leg
		WHERE user_id = ? AND client_request_id = ? AND leg_role = ?`

	row := r.db.QueryRowContext(ctx, query, userID, clientRequestID, string(model.LegRoleAsset))
	leg, err := scanLegRow(row)
	if err == sql.ErrNoRows {
		return model.TransactionLeg{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.TransactionLeg{}, fmt.Errorf("failed to read asset leg by client request id: %w", err)
	}
	return leg, nil
}

// GetGroupByTransactionID loads every leg of the group whose asset leg has
// the given id, scoped to the owning user. Ownership is enforced here, at
// read time: another user's transaction id behaves exactly like a missing one.
func (r *TransactionRepository) GetGroupByTransactionID(ctx context.Context, userID, transactionID string) ([]model.TransactionLeg, error) {
	query := `SELECT ` + legColumns + `
		FROM transaction_leg
		WHERE group_id = (
			SELECT group_id FROM transaction_leg
			WHERE id = ? AND user_id = ? AND leg_role = ?
		)
		AND user_id = ?
		ORDER BY leg_role DESC, leg_key ASC`

	rows, err := r.db.QueryContext(ctx, query, transactionID, userID, string(model.LegRoleAsset), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction group: %w", err)
	}
	defer rows.Close()

	var legs []model.TransactionLeg
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction leg: %w", err)
		}
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction group: %w", err)
	}

	if len(legs) == 0 {
		return nil, apperrors.ErrTransactionNotFound
	}

	return legs, nil
}

// ReplaceGroup atomically swaps every leg of a group for a new set: delete
// plus reinsert inside one database transaction, so there is no window where
// only some legs exist. Returns the old and new trade dates, the portfolio
// and the replaced row count, which the caller's dirty marking depends on.
func (r *TransactionRepository) ReplaceGroup(ctx context.Context, groupID string, newLegs []model.TransactionLeg) (ReplaceGroupResult, error) {
	if len(newLegs) == 0 {
		return ReplaceGroupResult{}, fmt.Errorf("cannot replace a group with an empty leg set")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ReplaceGroupResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var oldDateStr, portfolioID string
	err = tx.QueryRowContext(ctx,
		`SELECT trade_date, portfolio_id FROM transaction_leg WHERE group_id = ? AND leg_role = ?`,
		groupID, string(model.LegRoleAsset),
	).Scan(&oldDateStr, &portfolioID)
	if err == sql.ErrNoRows {
		return ReplaceGroupResult{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return ReplaceGroupResult{}, fmt.Errorf("failed to read existing group: %w", err)
	}
	oldDate, err := ParseTime(oldDateStr)
	if err != nil {
		return ReplaceGroupResult{}, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM transaction_leg WHERE group_id = ?`, groupID)
	if err != nil {
		return ReplaceGroupResult{}, fmt.Errorf("failed to delete group legs: %w", err)
	}
	replaced, err := res.RowsAffected()
	if err != nil {
		return ReplaceGroupResult{}, fmt.Errorf("failed to count deleted legs: %w", err)
	}

	for _, leg := range newLegs {
		if _, err := tx.ExecContext(ctx, legInsert, legInsertArgs(leg)...); err != nil {
			return ReplaceGroupResult{}, fmt.Errorf("failed to insert replacement leg: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ReplaceGroupResult{}, fmt.Errorf("failed to commit group replacement: %w", err)
	}

	return ReplaceGroupResult{
		PortfolioID:   portfolioID,
		OldTradeDate:  oldDate,
		NewTradeDate:  newLegs[0].TradeDate,
		ReplacedCount: int(replaced),
	}, nil
}

// DeleteGroup removes every leg of the group whose asset leg has the given
// id, scoped to the owning user.
func (r *TransactionRepository) DeleteGroup(ctx context.Context, userID, transactionID string) (model.DeleteTransactionResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.DeleteTransactionResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var groupID, dateStr, portfolioID string
	err = tx.QueryRowContext(ctx,
		`SELECT group_id, trade_date, portfolio_id FROM transaction_leg
		 WHERE id = ? AND user_id = ? AND leg_role = ?`,
		transactionID, userID, string(model.LegRoleAsset),
	).Scan(&groupID, &dateStr, &portfolioID)
	if err == sql.ErrNoRows {
		return model.DeleteTransactionResult{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.DeleteTransactionResult{}, fmt.Errorf("failed to read group for deletion: %w", err)
	}
	tradeDate, err := ParseTime(dateStr)
	if err != nil {
		return model.DeleteTransactionResult{}, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM transaction_leg WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return model.DeleteTransactionResult{}, fmt.Errorf("failed to delete group legs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return model.DeleteTransactionResult{}, fmt.Errorf("failed to count deleted legs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.DeleteTransactionResult{}, fmt.Errorf("failed to commit group deletion: %w", err)
	}

	return model.DeleteTransactionResult{
		DeletedCount: int(deleted),
		PortfolioID:  portfolioID,
		TradeDate:    tradeDate,
	}, nil
}

// ListAssetLegs returns the asset legs visible to a user, enriched with
// instrument names, filtered and paged per the validated filters.
func (r *TransactionRepository) ListAssetLegs(ctx context.Context, userID string, filters model.TransactionFilters) ([]model.TransactionListItem, error) {
	query := `
		SELECT t.id, t.group_id, t.portfolio_id,
		       COALESCE(i.name, c.name, ''), COALESCE(i.symbol, ''),
		       t.trade_date, t.side, t.quantity, t.price, t.fee, t.notes
		FROM transaction_leg t
		LEFT JOIN instrument i ON t.instrument_id = i.id
		LEFT JOIN custom_instrument c ON t.custom_instrument_id = c.id
		WHERE t.user_id = ? AND t.leg_role = ?`

	args := []any{userID, string(model.LegRoleAsset)}

	if filters.PortfolioID != "" {
		query += ` AND t.portfolio_id = ?`
		args = append(args, filters.PortfolioID)
	}
	if filters.Search != "" {
		query += ` AND (i.name LIKE ? OR i.symbol LIKE ? OR c.name LIKE ?)`
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	sortColumn := map[string]string{
		"date":     "t.trade_date",
		"quantity": "CAST(t.quantity AS REAL)",
		"price":    "CAST(t.price AS REAL)",
	}[filters.SortBy]
	if sortColumn == "" {
		sortColumn = "t.trade_date"
	}
	dir := "DESC"
	if strings.EqualFold(filters.SortDir, "asc") {
		dir = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s, t.created_at DESC LIMIT ? OFFSET ?`, sortColumn, dir)
	args = append(args, filters.PerPage, (filters.Page-1)*filters.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction listing: %w", err)
	}
	defer rows.Close()

	items := []model.TransactionListItem{}
	for rows.Next() {
		var item model.TransactionListItem
		var dateStr, side string
		if err := rows.Scan(
			&item.ID, &item.GroupID, &item.PortfolioID,
			&item.InstrumentName, &item.Symbol,
			&dateStr, &side, &item.Quantity, &item.Price, &item.Fee, &item.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		item.Side = model.Side(side)
		item.TradeDate, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction listing: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLegRow(row *sql.Row) (model.TransactionLeg, error) {
	return scanLeg(row)
}

func scanLeg(s rowScanner) (model.TransactionLeg, error) {
	var leg model.TransactionLeg
	var instrumentID, customID, cashflow, fxRate, fxAsOf, fxSource, createdAt sql.NullString
	var dateStr, side, legRole, legKey string

	err := s.Scan(
		&leg.ID, &leg.UserID, &leg.PortfolioID, &instrumentID, &customID, &leg.GroupID,
		&dateStr, &side, &leg.Quantity, &leg.Price, &leg.Fee, &leg.Notes, &leg.ClientRequestID,
		&legRole, &legKey, &cashflow, &fxRate, &fxAsOf, &fxSource, &createdAt,
	)
	if err != nil {
		return model.TransactionLeg{}, err
	}

	leg.InstrumentID = instrumentID.String
	leg.CustomInstrumentID = customID.String
	leg.Side = model.Side(side)
	leg.LegRole = model.LegRole(legRole)
	leg.LegKey = model.LegKey(legKey)
	leg.CashflowType = model.CashflowType(cashflow.String)

	leg.TradeDate, err = ParseTime(dateStr)
	if err != nil {
		return model.TransactionLeg{}, err
	}
	if createdAt.Valid {
		if t, err := ParseTime(createdAt.String); err == nil {
			leg.CreatedAt = t
		}
	}
	if fxRate.Valid {
		fx := &model.FXMetadata{Rate: fxRate.String, Source: fxSource.String}
		if fxAsOf.Valid {
			if t, err := ParseTime(fxAsOf.String); err == nil {
				fx.AsOf = t
			}
		}
		leg.FX = fx
	}

	return leg, nil
}
