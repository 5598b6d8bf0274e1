package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// CalendarHandler handles calendar event requests
type CalendarHandler struct {
	events database.EventStore
	logger *zap.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(events database.EventStore, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{events: events, logger: logger}
}

// RegisterRoutes registers calendar routes on the given router.
// The router should already carry the /calendar prefix.
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListEvents).Methods("GET")
	r.HandleFunc("", h.CreateEvent).Methods("POST")
	r.HandleFunc("/{id}", h.GetEvent).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateEvent).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteEvent).Methods("DELETE")
}

// CreateEventRequest represents a create calendar event request
type CreateEventRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=500"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	StartTime   string  `json:"startTime" validate:"required"`
	EndTime     string  `json:"endTime" validate:"required"`
	AllDay      *bool   `json:"allDay"`
	Color       *string `json:"color" validate:"omitempty,max=50"`
}

// UpdateEventRequest represents a partial calendar event update
type UpdateEventRequest struct {
	Title       *string                 `json:"title" validate:"omitempty,min=1,max=500"`
	Description models.Nullable[string] `json:"description"`
	StartTime   *string                 `json:"startTime"`
	EndTime     *string                 `json:"endTime"`
	AllDay      *bool                   `json:"allDay"`
	Color       models.Nullable[string] `json:"color"`
}

// ListEvents lists the caller's events, optionally within a time window.
// The window filter only applies when both startDate and endDate are given.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var startDate, endDate *time.Time
	if s := r.URL.Query().Get("startDate"); s != "" {
		t, err := time.Parse(validation.RFC3339Layout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "startDate must be a valid RFC 3339 timestamp")
			return
		}
		startDate = &t
	}
	if e := r.URL.Query().Get("endDate"); e != "" {
		t, err := time.Parse(validation.RFC3339Layout, e)
		if err != nil {
			respondError(w, http.StatusBadRequest, "endDate must be a valid RFC 3339 timestamp")
			return
		}
		endDate = &t
	}

	events, err := h.events.List(r.Context(), user.ID, startDate, endDate)
	if err != nil {
		h.logger.Error("failed_to_list_events", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// CreateEvent creates a new calendar event
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problems := validation.Problems(validation.Validate.Struct(req))

	var startTime, endTime time.Time
	if req.StartTime != "" {
		t, err := time.Parse(validation.RFC3339Layout, req.StartTime)
		if err != nil {
			problems = append(problems, validation.FieldError{Field: "startTime", Message: "must be a valid RFC 3339 timestamp"})
		} else {
			startTime = t
		}
	}
	if req.EndTime != "" {
		t, err := time.Parse(validation.RFC3339Layout, req.EndTime)
		if err != nil {
			problems = append(problems, validation.FieldError{Field: "endTime", Message: "must be a valid RFC 3339 timestamp"})
		} else {
			endTime = t
		}
	}

	if len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	if !endTime.After(startTime) {
		respondError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	event := &models.CalendarEvent{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       validation.SanitizeText(req.Title),
		Description: req.Description,
		StartTime:   startTime,
		EndTime:     endTime,
		Color:       req.Color,
	}
	if req.AllDay != nil {
		event.AllDay = *req.AllDay
	}

	if err := h.events.Create(r.Context(), event); err != nil {
		h.logger.Error("failed_to_create_event", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// GetEvent retrieves one of the caller's events by ID
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	event, err := h.events.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Event not found")
			return
		}
		h.logger.Error("failed_to_get_event", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// UpdateEvent applies a partial update to one of the caller's events. The
// ordering check runs against the effective record, so shrinking a window
// with only one bound still cannot invert it.
func (h *CalendarHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problems := validation.Problems(validation.Validate.Struct(req))

	var startTime, endTime *time.Time
	if req.StartTime != nil {
		t, err := time.Parse(validation.RFC3339Layout, *req.StartTime)
		if err != nil {
			problems = append(problems, validation.FieldError{Field: "startTime", Message: "must be a valid RFC 3339 timestamp"})
		} else {
			startTime = &t
		}
	}
	if req.EndTime != nil {
		t, err := time.Parse(validation.RFC3339Layout, *req.EndTime)
		if err != nil {
			problems = append(problems, validation.FieldError{Field: "endTime", Message: "must be a valid RFC 3339 timestamp"})
		} else {
			endTime = &t
		}
	}

	if len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	ctx := r.Context()
	event, err := h.events.GetByID(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Event not found")
			return
		}
		h.logger.Error("failed_to_get_event", zap.Error(err))
		respondInternalError(w)
		return
	}

	if req.Title != nil {
		event.Title = validation.SanitizeText(*req.Title)
	}
	if req.Description.Set {
		if req.Description.Valid {
			event.Description = &req.Description.Value
		} else {
			event.Description = nil
		}
	}
	if startTime != nil {
		event.StartTime = *startTime
	}
	if endTime != nil {
		event.EndTime = *endTime
	}
	if req.AllDay != nil {
		event.AllDay = *req.AllDay
	}
	if req.Color.Set {
		if req.Color.Valid {
			event.Color = &req.Color.Value
		} else {
			event.Color = nil
		}
	}

	if !event.EndTime.After(event.StartTime) {
		respondError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	if err := h.events.Update(ctx, event); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Event not found")
			return
		}
		h.logger.Error("failed_to_update_event", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// DeleteEvent deletes one of the caller's events
func (h *CalendarHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Event not found")
		return
	}

	if err := h.events.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Event not found")
			return
		}
		h.logger.Error("failed_to_delete_event", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}
