package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	notifications database.NotificationStore
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications database.NotificationStore, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// RegisterRoutes registers notification routes on the given router.
// The router should already carry the /notifications prefix.
func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListNotifications).Methods("GET")
	r.HandleFunc("", h.CreateNotification).Methods("POST")
	r.HandleFunc("/{id}", h.SetRead).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteNotification).Methods("DELETE")
}

// CreateNotificationRequest represents a create notification request
type CreateNotificationRequest struct {
	Message   string  `json:"message" validate:"required,min=1,max=2000"`
	Type      *string `json:"type" validate:"omitempty,notification_type"`
	ActionURL *string `json:"actionUrl" validate:"omitempty,uri,max=2000"`
}

// SetReadRequest marks a notification read or unread
type SetReadRequest struct {
	Read *bool `json:"read" validate:"required"`
}

// ListNotifications lists the caller's notifications, newest first. A read
// query parameter filters by read state; limit caps the result count.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var read *bool
	if v := r.URL.Query().Get("read"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "read must be true or false")
			return
		}
		read = &b
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	notifications, err := h.notifications.List(r.Context(), user.ID, read, limit)
	if err != nil {
		h.logger.Error("failed_to_list_notifications", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, notifications)
}

// CreateNotification creates a notification for the caller. Type defaults
// to INFO.
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.Problems(validation.Validate.Struct(req)); len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    user.ID,
		Message:   validation.SanitizeText(req.Message),
		Type:      models.NotificationTypeInfo,
		ActionURL: req.ActionURL,
	}
	if req.Type != nil {
		notification.Type = models.NotificationType(*req.Type)
	}

	if err := h.notifications.Create(r.Context(), notification); err != nil {
		h.logger.Error("failed_to_create_notification", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusCreated, notification)
}

// SetRead marks one of the caller's notifications read or unread and returns
// the updated record
func (h *NotificationHandler) SetRead(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	var req SetReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.Problems(validation.Validate.Struct(req)); len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	notification, err := h.notifications.SetRead(r.Context(), id, user.ID, *req.Read)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("failed_to_update_notification", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, notification)
}

// DeleteNotification deletes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	if err := h.notifications.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.logger.Error("failed_to_delete_notification", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted successfully"})
}
