package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }
func (f *fakePinger) Ping(context.Context) error        { return f.err }
func (f *fakePinger) HealthCheck(context.Context) error { return f.err }

func TestHealthCheck_BasicMode(t *testing.T) {
	t.Parallel()

	// Basic mode must not touch dependencies
	down := &fakePinger{err: errors.New("down")}
	h := NewHealthCheckerWithDeps(down, down, down)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestHealthCheck_Extended(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db, redis  error
		queue      error
		wantStatus int
		wantOutput string
	}{
		{
			name:       "all healthy",
			wantStatus: http.StatusOK,
			wantOutput: "healthy",
		},
		{
			name:       "database down",
			db:         errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantOutput: "unhealthy",
		},
		{
			name:       "queue down",
			queue:      errors.New("channel closed"),
			wantStatus: http.StatusServiceUnavailable,
			wantOutput: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthCheckerWithDeps(
				&fakePinger{err: tt.db},
				&fakePinger{err: tt.redis},
				&fakePinger{err: tt.queue},
			)

			req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
			rec := httptest.NewRecorder()
			h.HealthCheck(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			decodeBody(t, rec, &body)
			if body.Status != tt.wantOutput {
				t.Errorf("Expected status '%s', got '%s'", tt.wantOutput, body.Status)
			}
			if len(body.Checks) != 3 {
				t.Errorf("Expected 3 checks, got %d", len(body.Checks))
			}
		})
	}
}

func TestHealthCheck_NilDepsSkipped(t *testing.T) {
	t.Parallel()

	h := NewHealthCheckerWithDeps(nil, nil, nil)

	req := httptest.NewRequest("GET", "/healthz?mode=extended", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, rec, &body)
	for dep, state := range body.Checks {
		if state != "skipped" {
			t.Errorf("Expected %s to be skipped, got '%s'", dep, state)
		}
	}
}
