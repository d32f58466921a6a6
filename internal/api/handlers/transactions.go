package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfelo/ledger-backend/internal/api/middleware"
	"github.com/portfelo/ledger-backend/internal/api/request"
	"github.com/portfelo/ledger-backend/internal/api/response"
	"github.com/portfelo/ledger-backend/internal/service"
)

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// ListTransactions handles GET requests to list the caller's transactions.
// Query parameters select portfolio, search text, sorting and pagination;
// malformed parameters fall back to defaults.
//
// Endpoint: GET /api/transaction
// Response: 200 OK with array of TransactionListItem
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filters := request.ParseTransactionFilters(r)

	items, err := h.transactionService.ListTransactions(r.Context(), middleware.UserID(r.Context()), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, items)
}

// GetTransaction handles GET requests to retrieve one transaction group by
// its asset leg id. All legs of the group are returned.
//
// Endpoint: GET /api/transaction/{uuid}
// Response: 200 OK with array of TransactionLeg
// Error: 404 Not Found if the transaction does not exist or belongs to another user
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	legs, err := h.transactionService.GetTransaction(r.Context(), middleware.UserID(r.Context()), transactionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, legs)
}

// CreateTransaction handles POST requests to record a transaction group.
// Asset and settlement legs are planned, guarded against the holdings
// snapshot and written atomically. A retry under the same clientRequestId
// returns the originally stored transaction with deduped set.
//
// Endpoint: POST /api/transaction
// Response: 201 Created with CreateTransactionResult, 200 OK when deduped
// Error: 400 Bad Request if validation fails
// Error: 422 Unprocessable Entity if a solvency guard or FX lookup rejects the write
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transactionService.CreateTransaction(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Deduped {
		status = http.StatusOK
	}
	response.RespondJSON(w, status, result)
}

// UpdateTransaction handles PUT requests to replace a transaction group in
// place. The instrument identity is immutable; everything else is rebuilt
// from the request.
//
// Endpoint: PUT /api/transaction/{uuid}
// Response: 200 OK with UpdateTransactionResult
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the transaction does not exist or belongs to another user
// Error: 422 Unprocessable Entity if a solvency guard or FX lookup rejects the write
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.transactionService.UpdateTransaction(r.Context(), middleware.UserID(r.Context()), transactionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// DeleteTransaction handles DELETE requests to remove a transaction group.
//
// Endpoint: DELETE /api/transaction/{uuid}
// Response: 200 OK with DeleteTransactionResult
// Error: 404 Not Found if the transaction does not exist or belongs to another user
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	result, err := h.transactionService.DeleteTransaction(r.Context(), middleware.UserID(r.Context()), transactionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
