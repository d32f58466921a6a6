package request

import (
	"net/http"
	"strconv"

	"github.com/portfelo/ledger-backend/internal/model"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

var allowedSortFields = map[string]bool{
	"date": true, "quantity": true, "price": true,
}

// ParseTransactionFilters reads listing query parameters. Unknown or
// malformed values degrade to defaults instead of failing the request, so
// the result is always usable.
func ParseTransactionFilters(r *http.Request) model.TransactionFilters {
	q := r.URL.Query()

	f := model.TransactionFilters{
		PortfolioID: q.Get("portfolioId"),
		Search:      q.Get("search"),
		SortBy:      "date",
		SortDir:     "desc",
		Page:        1,
		PerPage:     defaultPerPage,
	}

	if sortBy := q.Get("sortBy"); allowedSortFields[sortBy] {
		f.SortBy = sortBy
	}
	if dir := q.Get("sortDir"); dir == "asc" || dir == "desc" {
		f.SortDir = dir
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	}
	if perPage, err := strconv.Atoi(q.Get("perPage")); err == nil && perPage > 0 {
		f.PerPage = perPage
		if f.PerPage > maxPerPage {
			f.PerPage = maxPerPage
		}
	}

	return f
}
