package handlers

import (
	"net/http"
	"time"

	"github.com/portfelo/ledger-backend/internal/api/middleware"
	"github.com/portfelo/ledger-backend/internal/api/response"
	"github.com/portfelo/ledger-backend/internal/service"
)

// HoldingsHandler handles HTTP requests for point-in-time holdings reads.
type HoldingsHandler struct {
	holdingsService *service.HoldingsService
}

// NewHoldingsHandler creates a new HoldingsHandler with the provided service dependency.
func NewHoldingsHandler(holdingsService *service.HoldingsService) *HoldingsHandler {
	return &HoldingsHandler{
		holdingsService: holdingsService,
	}
}

// holdingsResponse is the wire shape of a snapshot: decimal values travel as
// strings.
type holdingsResponse struct {
	AsOf        string            `json:"asOf"`
	PortfolioID string            `json:"portfolioId,omitempty"`
	Instruments map[string]string `json:"instruments"`
	Cash        map[string]string `json:"cash"`
}

// GetHoldings handles GET requests for the caller's net positions as of a
// date. Without an asOf parameter the snapshot is taken as of today; without
// a portfolioId it aggregates across all portfolios.
//
// Endpoint: GET /api/holdings?portfolioId=...&asOf=YYYY-MM-DD
// Response: 200 OK with holdings per instrument and cash balance per currency
// Error: 400 Bad Request if asOf or portfolioId is malformed
func (h *HoldingsHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	portfolioID := r.URL.Query().Get("portfolioId")

	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid asOf date", err.Error())
			return
		}
		asOf = parsed
	}

	snap, err := h.holdingsService.Snapshot(r.Context(), middleware.UserID(r.Context()), portfolioID, asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := holdingsResponse{
		AsOf:        asOf.Format("2006-01-02"),
		PortfolioID: portfolioID,
		Instruments: make(map[string]string, len(snap.ByInstrument)),
		Cash:        make(map[string]string, len(snap.CashByCurrency)),
	}
	for id, qty := range snap.ByInstrument {
		resp.Instruments[id] = qty.String()
	}
	for currency, balance := range snap.CashByCurrency {
		resp.Cash[currency] = balance.String()
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
