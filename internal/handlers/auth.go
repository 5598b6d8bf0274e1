package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/auth"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// AuthHandler handles signup, login, logout, and the current-user endpoint
type AuthHandler struct {
	users    database.UserStore
	sessions *auth.Service
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users database.UserStore, sessions *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, logger: logger}
}

// RegisterPublicRoutes registers the unauthenticated auth routes.
// The router should already carry the /auth prefix.
func (h *AuthHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/signup", h.Signup).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/logout", h.Logout).Methods("POST")
}

// RegisterProtectedRoutes registers the auth routes that require a session.
// The router should already carry the /auth prefix and the auth middleware.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.Me).Methods("GET")
}

// SignupRequest represents an account creation request
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Password string `json:"password" validate:"required,min=8,max=200"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup creates an account and starts a session for it
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.Problems(validation.Validate.Struct(req)); len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	ctx := r.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := h.users.GetByEmail(ctx, email); err == nil {
		respondError(w, http.StatusConflict, "An account with this email already exists")
		return
	} else if !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("failed_to_check_existing_user", zap.Error(err))
		respondInternalError(w)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed_to_hash_password", zap.Error(err))
		respondInternalError(w)
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         validation.SanitizeText(req.Name),
		PasswordHash: hash,
	}

	if err := h.users.Create(ctx, user); err != nil {
		h.logger.Error("failed_to_create_user", zap.Error(err))
		respondInternalError(w)
		return
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed_to_issue_session", zap.Error(err))
		respondInternalError(w)
		return
	}
	h.sessions.SetCookie(w, token)

	h.logger.Info("user_signed_up", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusCreated, user)
}

// Login verifies credentials and starts a session. Unknown email and wrong
// password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.Problems(validation.Validate.Struct(req)); len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error("failed_to_get_user", zap.Error(err))
		respondInternalError(w)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed_to_issue_session", zap.Error(err))
		respondInternalError(w)
		return
	}
	h.sessions.SetCookie(w, token)

	h.logger.Info("user_logged_in", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusOK, user)
}

// Logout clears the session cookie. Always succeeds, session or not.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
