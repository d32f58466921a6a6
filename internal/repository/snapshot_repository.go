package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/portfelo/ledger-backend/internal/model"
)

// SnapshotRepository maintains the dirty markers consumed by the downstream
// snapshot recomputation pipeline. Marking is monotonic: a marker's
// dirty_from date only ever moves earlier, never later, so no affected date
// range is lost between recomputation runs.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// MarkDirty records that derived snapshots for (user, portfolio, scope) are
// stale from the given date forward. An existing marker is only moved if the
// new date is earlier.
func (r *SnapshotRepository) MarkDirty(ctx context.Context, userID, portfolioID string, scope model.SnapshotScope, from time.Time) error {
	query := `
		INSERT INTO snapshot_dirty (id, user_id, portfolio_id, scope, dirty_from, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, portfolio_id, scope) DO UPDATE SET
			dirty_from = MIN(snapshot_dirty.dirty_from, excluded.dirty_from),
			updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), userID, portfolioID, string(scope), from.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to mark snapshot dirty for portfolio %s: %w", portfolioID, err)
	}
	return nil
}

// DirtyMarker is one pending recomputation range.
type DirtyMarker struct {
	UserID      string
	PortfolioID string
	Scope       model.SnapshotScope
	DirtyFrom   time.Time
}

// ListDirty returns all pending markers, oldest range first.
func (r *SnapshotRepository) ListDirty(ctx context.Context) ([]DirtyMarker, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, portfolio_id, scope, dirty_from
		FROM snapshot_dirty
		ORDER BY dirty_from ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dirty markers: %w", err)
	}
	defer rows.Close()

	var markers []DirtyMarker
	for rows.Next() {
		var m DirtyMarker
		var scope, dateStr string
		if err := rows.Scan(&m.UserID, &m.PortfolioID, &scope, &dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan dirty marker: %w", err)
		}
		m.Scope = model.SnapshotScope(scope)
		m.DirtyFrom, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dirty markers: %w", err)
	}

	return markers, nil
}

// ClearDirty removes a marker once its range has been recomputed, but only
// if it has not been moved earlier in the meantime by a concurrent write.
func (r *SnapshotRepository) ClearDirty(ctx context.Context, userID, portfolioID string, scope model.SnapshotScope, processedFrom time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM snapshot_dirty
		WHERE user_id = ? AND portfolio_id = ? AND scope = ? AND dirty_from >= ?`,
		userID, portfolioID, string(scope), processedFrom.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to clear dirty marker for portfolio %s: %w", portfolioID, err)
	}
	return nil
}
