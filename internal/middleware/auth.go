package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskautomator/internal/auth"
	"taskautomator/internal/database"
	"taskautomator/internal/models"
	"taskautomator/internal/request"
	"go.uber.org/zap"
)

// UserFromContext extracts the user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// Auth creates the session guard middleware. It resolves the session token
// from the cookie (or a Bearer header), verifies it, loads the user, and
// attaches it to the request context. Requests without a valid session are
// rejected with 401 before any data access.
func Auth(sessions *auth.Service, users database.UserStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			userID, err := sessions.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := r.Context()
			user, err := users.GetByID(ctx, userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					// Valid token for a deleted account
					respondError(w, http.StatusUnauthorized, "Unauthorized")
					return
				}
				logger.Error("failed_to_load_session_user", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx = request.WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"error": message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
