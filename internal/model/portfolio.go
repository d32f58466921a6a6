package model

// Portfolio represents a portfolio from the database.
type Portfolio struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsArchived  bool   `json:"isArchived"`
}

// AllPortfolios is the aggregate portfolio scope used by dirty marking: a
// write against any portfolio also dirties the all-portfolios rollup.
const AllPortfolios = "ALL"

// SnapshotScope names the derived view a dirty mark refers to.
type SnapshotScope string

const (
	// ScopeHoldings marks the per-day holdings rollup as stale.
	ScopeHoldings SnapshotScope = "HOLDINGS"
	// ScopePerformance marks the per-day performance series as stale.
	ScopePerformance SnapshotScope = "PERFORMANCE"
)

// TransactionFilters is the validated shape of listing query parameters.
// Parsing degrades to zero values and defaults instead of failing, so the
// struct is always usable.
type TransactionFilters struct {
	PortfolioID string
	Search      string
	SortBy      string
	SortDir     string
	Page        int
	PerPage     int
}
