package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// completionWindowDays is how far back the completions-over-time series looks
const completionWindowDays = 7

// ReportsHandler handles productivity report requests
type ReportsHandler struct {
	reports database.ReportsStore
	logger  *zap.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(reports database.ReportsStore, logger *zap.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, logger: logger}
}

// RegisterRoutes registers report routes on the given router.
// The router should already carry the /reports prefix.
func (h *ReportsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetReport).Methods("GET")
}

// ReportSummary is the headline block of a productivity report
type ReportSummary struct {
	TotalTasks          int     `json:"totalTasks"`
	CompletedTasks      int     `json:"completedTasks"`
	InProgressTasks     int     `json:"inProgressTasks"`
	TodoTasks           int     `json:"todoTasks"`
	CompletionRate      float64 `json:"completionRate"`
	TotalEvents         int     `json:"totalEvents"`
	TotalAgentJobs      int     `json:"totalAgentJobs"`
	CompletedAgentJobs  int     `json:"completedAgentJobs"`
	UnreadNotifications int     `json:"unreadNotifications"`
}

// Report is the full productivity report payload
type Report struct {
	Summary                ReportSummary            `json:"summary"`
	TasksByPriority        []database.PriorityCount `json:"tasksByPriority"`
	TasksCompletedOverTime []database.DayCount      `json:"tasksCompletedOverTime"`
}

// GetReport assembles a productivity report for the caller. Creation counts
// honor the optional startDate and endDate bounds; the current-state counts
// (in progress, todo, unread) and the trailing completion series do not.
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var dateRange database.DateRange
	if s := r.URL.Query().Get("startDate"); s != "" {
		t, err := time.Parse(validation.RFC3339Layout, s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "startDate must be a valid RFC 3339 timestamp")
			return
		}
		dateRange.Start = &t
	}
	if e := r.URL.Query().Get("endDate"); e != "" {
		t, err := time.Parse(validation.RFC3339Layout, e)
		if err != nil {
			respondError(w, http.StatusBadRequest, "endDate must be a valid RFC 3339 timestamp")
			return
		}
		dateRange.End = &t
	}

	ctx := r.Context()
	userID := user.ID

	var (
		report Report
		err    error
	)

	if report.Summary.TotalTasks, err = h.reports.CountTasks(ctx, userID, dateRange); err != nil {
		h.reportError(w, "count_tasks", err)
		return
	}
	if report.Summary.CompletedTasks, err = h.reports.CountCompletedTasks(ctx, userID, dateRange); err != nil {
		h.reportError(w, "count_completed_tasks", err)
		return
	}
	if report.Summary.InProgressTasks, err = h.reports.CountTasksByStatus(ctx, userID, models.TaskStatusInProgress); err != nil {
		h.reportError(w, "count_in_progress_tasks", err)
		return
	}
	if report.Summary.TodoTasks, err = h.reports.CountTasksByStatus(ctx, userID, models.TaskStatusTodo); err != nil {
		h.reportError(w, "count_todo_tasks", err)
		return
	}
	if report.Summary.TotalEvents, err = h.reports.CountEvents(ctx, userID, dateRange); err != nil {
		h.reportError(w, "count_events", err)
		return
	}
	if report.Summary.TotalAgentJobs, err = h.reports.CountAgentJobs(ctx, userID, dateRange); err != nil {
		h.reportError(w, "count_agent_jobs", err)
		return
	}
	if report.Summary.CompletedAgentJobs, err = h.reports.CountCompletedAgentJobs(ctx, userID, dateRange); err != nil {
		h.reportError(w, "count_completed_agent_jobs", err)
		return
	}
	if report.Summary.UnreadNotifications, err = h.reports.CountUnreadNotifications(ctx, userID); err != nil {
		h.reportError(w, "count_unread_notifications", err)
		return
	}

	report.Summary.CompletionRate = completionRate(report.Summary.CompletedTasks, report.Summary.TotalTasks)

	if report.TasksByPriority, err = h.reports.TasksByPriority(ctx, userID, dateRange); err != nil {
		h.reportError(w, "tasks_by_priority", err)
		return
	}

	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(completionWindowDays - 1))
	if report.TasksCompletedOverTime, err = h.reports.CompletionsPerDay(ctx, userID, since); err != nil {
		h.reportError(w, "completions_per_day", err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (h *ReportsHandler) reportError(w http.ResponseWriter, query string, err error) {
	h.logger.Error("failed_to_build_report", zap.String("query", query), zap.Error(err))
	respondInternalError(w)
}

// completionRate returns the completed percentage rounded to two decimal
// places, or 0 when there are no tasks.
func completionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
