package middleware

import (
	"context"
	"net/http"

	"github.com/portfelo/ledger-backend/internal/api/response"
	"github.com/portfelo/ledger-backend/internal/validation"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireUser extracts the authenticated user id from the X-User-ID header
// set by the authenticating gateway and stores it on the request context.
// Requests without a valid user id are rejected before reaching a handler.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			response.RespondError(w, http.StatusUnauthorized, "missing user identity", "")
			return
		}
		if err := validation.ValidateUUID(userID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid user identity", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID returns the authenticated user id stored by RequireUser, or an
// empty string when the middleware did not run.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
