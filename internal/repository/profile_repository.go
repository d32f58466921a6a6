package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ProfileRepository provides data access methods for the user_profile table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository with the provided database connection.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// TouchLastActive upserts the user's last-active timestamp. Called
// best-effort after every successful write.
func (r *ProfileRepository) TouchLastActive(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profile (user_id, last_active_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_active_at = excluded.last_active_at`,
		userID, at.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to touch last active for user %s: %w", userID, err)
	}
	return nil
}

// GetLastActive returns the user's last-active timestamp, zero when the user
// has never written.
func (r *ProfileRepository) GetLastActive(ctx context.Context, userID string) (time.Time, error) {
	var str sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT last_active_at FROM user_profile WHERE user_id = ?`, userID,
	).Scan(&str)
	if err == sql.ErrNoRows || !str.Valid {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read last active for user %s: %w", userID, err)
	}
	return ParseTime(str.String)
}
