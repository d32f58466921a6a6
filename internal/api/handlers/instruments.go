package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/portfelo/ledger-backend/internal/api/middleware"
	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/api/response"
	"github.com/portfelo/ledger-backend/internal/service"
)

// InstrumentHandler handles HTTP requests for instrument endpoints.
type InstrumentHandler struct {
	instrumentService *service.InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler with the provided service dependency.
func NewInstrumentHandler(instrumentService *service.InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{
		instrumentService: instrumentService,
	}
}

// GetInstrument handles GET requests to retrieve a market instrument by id.
//
// Endpoint: GET /api/instrument/{uuid}
// Response: 200 OK with Instrument
// Error: 404 Not Found if the instrument does not exist
func (h *InstrumentHandler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "uuid")

	inst, err := h.instrumentService.GetInstrument(r.Context(), instrumentID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, inst)
}

// CreateCustomInstrument handles POST requests registering a custom asset.
// Idempotent per clientRequestId: re-submitting returns the existing row.
//
// Endpoint: POST /api/instrument/custom
// Response: 201 Created with CustomInstrument
// Error: 400 Bad Request if the payload is invalid
func (h *InstrumentHandler) CreateCustomInstrument(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateCustomInstrumentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	custom, err := h.instrumentService.CreateCustomInstrument(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, custom)
}

// ProjectCustomValue handles GET requests projecting a custom asset's value
// at a date by compounding its annual rate from the acquisition date.
//
// Endpoint: GET /api/instrument/custom/{uuid}/projection?base=...&acquired=YYYY-MM-DD&asOf=YYYY-MM-DD
// Response: 200 OK with CustomInstrumentProjection
// Error: 400 Bad Request if a parameter is malformed
// Error: 404 Not Found if the custom instrument does not exist or belongs to another user
func (h *InstrumentHandler) ProjectCustomValue(w http.ResponseWriter, r *http.Request) {
	customID := chi.URLParam(r, "uuid")
	q := r.URL.Query()

	acquired, err := time.Parse("2006-01-02", q.Get("acquired"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid acquired date", err.Error())
		return
	}

	asOf := time.Now().UTC()
	if raw := q.Get("asOf"); raw != "" {
		asOf, err = time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid asOf date", err.Error())
			return
		}
	}

	projection, err := h.instrumentService.ProjectCustomValue(
		r.Context(), middleware.UserID(r.Context()), customID, q.Get("base"), acquired, asOf)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, projection)
}
