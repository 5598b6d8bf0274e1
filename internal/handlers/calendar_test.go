package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/models"
	"go.uber.org/zap"
)

type fakeEventStore struct {
	events map[uuid.UUID]*models.CalendarEvent

	listStart *time.Time
	listEnd   *time.Time
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*models.CalendarEvent)}
}

func (s *fakeEventStore) Create(_ context.Context, event *models.CalendarEvent) error {
	s.events[event.ID] = event
	return nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id, userID uuid.UUID) (*models.CalendarEvent, error) {
	event, ok := s.events[id]
	if !ok || event.UserID != userID {
		return nil, database.ErrNotFound
	}
	copied := *event
	return &copied, nil
}

func (s *fakeEventStore) List(_ context.Context, userID uuid.UUID, startDate, endDate *time.Time) ([]*models.CalendarEvent, error) {
	s.listStart = startDate
	s.listEnd = endDate
	var out []*models.CalendarEvent
	for _, event := range s.events {
		if event.UserID == userID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *fakeEventStore) Update(_ context.Context, event *models.CalendarEvent) error {
	existing, ok := s.events[event.ID]
	if !ok || existing.UserID != event.UserID {
		return database.ErrNotFound
	}
	copied := *event
	s.events[event.ID] = &copied
	return nil
}

func (s *fakeEventStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	existing, ok := s.events[id]
	if !ok || existing.UserID != userID {
		return database.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func newCalendarRouter(store database.EventStore) *mux.Router {
	h := NewCalendarHandler(store, zap.NewNop())
	return newRouterWithPrefix("/api/calendar", h.RegisterRoutes)
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)
	user := testUser()

	body := `{
		"title": "Sprint planning",
		"startTime": "2026-03-02T09:00:00Z",
		"endTime": "2026-03-02T10:00:00Z",
		"color": "#ff8800"
	}`
	req := authedRequest("POST", "/api/calendar", strings.NewReader(body), user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var event models.CalendarEvent
	decodeBody(t, rec, &event)
	if event.Title != "Sprint planning" {
		t.Errorf("Expected title 'Sprint planning', got '%s'", event.Title)
	}
	if event.AllDay {
		t.Error("Expected allDay to default to false")
	}
	if event.Color == nil || *event.Color != "#ff8800" {
		t.Errorf("Expected color '#ff8800', got %v", event.Color)
	}
	if !event.EndTime.After(event.StartTime) {
		t.Error("Expected endTime after startTime")
	}
}

func TestCreateEvent_OrderingRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "end before start",
			body: `{"title": "x", "startTime": "2026-03-02T10:00:00Z", "endTime": "2026-03-02T09:00:00Z"}`,
		},
		{
			name: "end equals start",
			body: `{"title": "x", "startTime": "2026-03-02T10:00:00Z", "endTime": "2026-03-02T10:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeEventStore()
			router := newCalendarRouter(store)

			req := authedRequest("POST", "/api/calendar", strings.NewReader(tt.body), testUser())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
			var body errorBody
			decodeBody(t, rec, &body)
			if body.Error != "End time must be after start time" {
				t.Errorf("Expected ordering error message, got '%s'", body.Error)
			}
			if len(store.events) != 0 {
				t.Errorf("Expected no stored events, got %d", len(store.events))
			}
		})
	}
}

func TestCreateEvent_MissingFields(t *testing.T) {
	t.Parallel()

	router := newCalendarRouter(newFakeEventStore())

	req := authedRequest("POST", "/api/calendar", strings.NewReader(`{"title": "x"}`), testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var body errorBody
	decodeBody(t, rec, &body)
	fields := map[string]bool{}
	for _, d := range body.Details {
		fields[d.Field] = true
	}
	if !fields["startTime"] || !fields["endTime"] {
		t.Errorf("Expected details for startTime and endTime, got %+v", body.Details)
	}
}

func TestListEvents_WindowPassedToStore(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)

	req := authedRequest("GET", "/api/calendar?startDate=2026-03-01T00:00:00Z&endDate=2026-03-31T23:59:59Z", nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.listStart == nil || store.listEnd == nil {
		t.Fatal("Expected both window bounds forwarded to the store")
	}
	if store.listStart.Month() != time.March || store.listEnd.Day() != 31 {
		t.Errorf("Unexpected window: %v to %v", store.listStart, store.listEnd)
	}
}

func TestListEvents_BadWindow(t *testing.T) {
	t.Parallel()

	router := newCalendarRouter(newFakeEventStore())

	req := authedRequest("GET", "/api/calendar?startDate=yesterday", nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestUpdateEvent_EffectiveOrderingChecked(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)
	user := testUser()

	eventID := uuid.New()
	store.events[eventID] = &models.CalendarEvent{
		ID:        eventID,
		UserID:    user.ID,
		Title:     "standup",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	// Moving only the start past the stored end must fail
	body := `{"startTime": "2026-03-02T11:00:00Z"}`
	req := authedRequest("PUT", "/api/calendar/"+eventID.String(), strings.NewReader(body), user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if stored := store.events[eventID]; stored.StartTime.Hour() != 9 {
		t.Errorf("Expected stored event unchanged, got start %v", stored.StartTime)
	}
}

func TestUpdateEvent_ColorNullClears(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)
	user := testUser()

	color := "#00ff00"
	eventID := uuid.New()
	store.events[eventID] = &models.CalendarEvent{
		ID:        eventID,
		UserID:    user.ID,
		Title:     "standup",
		StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Color:     &color,
	}

	req := authedRequest("PUT", "/api/calendar/"+eventID.String(), strings.NewReader(`{"color": null, "allDay": true}`), user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated models.CalendarEvent
	decodeBody(t, rec, &updated)
	if updated.Color != nil {
		t.Errorf("Expected color cleared, got %v", *updated.Color)
	}
	if !updated.AllDay {
		t.Error("Expected allDay true")
	}
}

func TestDeleteEvent_NotFoundForOtherUser(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)

	owner := testUser()
	eventID := uuid.New()
	store.events[eventID] = &models.CalendarEvent{
		ID:        eventID,
		UserID:    owner.ID,
		Title:     "private",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}

	req := authedRequest("DELETE", "/api/calendar/"+eventID.String(), nil, testUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if len(store.events) != 1 {
		t.Error("Expected event to survive another user's delete")
	}
}

func TestDeleteEvent(t *testing.T) {
	t.Parallel()

	store := newFakeEventStore()
	router := newCalendarRouter(store)
	user := testUser()

	eventID := uuid.New()
	store.events[eventID] = &models.CalendarEvent{
		ID:        eventID,
		UserID:    user.ID,
		Title:     "standup",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}

	req := authedRequest("DELETE", "/api/calendar/"+eventID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["message"] != "Event deleted successfully" {
		t.Errorf("Expected delete confirmation message, got '%s'", body["message"])
	}
}
