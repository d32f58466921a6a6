package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Get retrieves a portfolio scoped to its owning user.
func (r *PortfolioRepository) Get(ctx context.Context, userID, id string) (model.Portfolio, error) {
	var p model.Portfolio
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, is_archived
		FROM portfolio WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsArchived)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to read portfolio %s: %w", id, err)
	}
	return p, nil
}

// Create inserts a new portfolio for the user.
func (r *PortfolioRepository) Create(ctx context.Context, p model.Portfolio) (model.Portfolio, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portfolio (id, user_id, name, description, is_archived)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Description, p.IsArchived,
	)
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to create portfolio: %w", err)
	}
	return p, nil
}

// List returns the user's portfolios, active first.
func (r *PortfolioRepository) List(ctx context.Context, userID string) ([]model.Portfolio, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, is_archived
		FROM portfolio WHERE user_id = ?
		ORDER BY is_archived ASC, name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}
