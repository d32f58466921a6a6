package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/portfelo/ledger-backend/internal/api/response"
	"github.com/portfelo/ledger-backend/internal/apperrors"
	"github.com/portfelo/ledger-backend/internal/validation"
)

// parseJSON decodes a request body into the given type, rejecting unknown
// fields.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

// respondServiceError maps domain errors onto HTTP statuses. Validation and
// malformed-input errors become 400, missing resources 404, guard and FX
// rejections 422, anything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr    *validation.Error
		fxErr            *apperrors.FXRateError
		oversellErr      *apperrors.OversellError
		insufficientCash *apperrors.InsufficientCashError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrInstrumentChoice),
		errors.Is(err, apperrors.ErrMissingProviderKey),
		errors.Is(err, apperrors.ErrCashRequiresCashflowType),
		errors.Is(err, apperrors.ErrUnsupportedCashCurrency),
		errors.Is(err, validation.ErrInvalidUUID):
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())

	case errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrInstrumentNotFound):
		response.RespondError(w, http.StatusNotFound, err.Error(), "")

	case errors.As(err, &fxErr),
		errors.As(err, &oversellErr),
		errors.As(err, &insufficientCash):
		response.RespondError(w, http.StatusUnprocessableEntity, err.Error(), "")

	default:
		response.RespondError(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}
