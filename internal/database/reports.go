package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"taskautomator/internal/models"
)

// DateRange bounds a report query. Either side may be nil (unbounded).
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether no bound is set
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// PriorityCount is one bucket of the tasks-by-priority grouping
type PriorityCount struct {
	Priority models.TaskPriority `json:"priority"`
	Count    int                 `json:"count"`
}

// DayCount is one bucket of the completions-per-day series. Date is a UTC
// calendar date in YYYY-MM-DD form.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ReportsRepository issues the read-only count and grouping queries behind
// the reports endpoint. All queries are scoped to a single user; there is no
// consistency requirement across them.
type ReportsRepository struct {
	db *DB
}

// NewReportsRepository creates a new reports repository
func NewReportsRepository(db *DB) *ReportsRepository {
	return &ReportsRepository{db: db}
}

// CountTasks counts tasks created inside the range
func (r *ReportsRepository) CountTasks(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1`, userID, "created_at", dateRange)
}

// CountCompletedTasks counts COMPLETED tasks whose completion falls inside the range
func (r *ReportsRepository) CountCompletedTasks(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = '%s'`, models.TaskStatusCompleted)
	return r.count(ctx, query, userID, "completed_at", dateRange)
}

// CountTasksByStatus counts tasks currently in the given status, unscoped by date
func (r *ReportsRepository) CountTasksByStatus(ctx context.Context, userID uuid.UUID, status models.TaskStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = $2`, userID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	return n, nil
}

// TasksByPriority groups tasks created inside the range by priority
func (r *ReportsRepository) TasksByPriority(ctx context.Context, userID uuid.UUID, dateRange DateRange) ([]PriorityCount, error) {
	query := `SELECT priority, COUNT(*) FROM tasks WHERE user_id = $1`
	args := []any{userID}
	query, args = appendRange(query, args, "created_at", dateRange)
	query += " GROUP BY priority"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group tasks by priority: %w", err)
	}
	defer rows.Close()

	counts := []PriorityCount{}
	for rows.Next() {
		var pc PriorityCount
		if err := rows.Scan(&pc.Priority, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan priority count: %w", err)
		}
		counts = append(counts, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating priority counts: %w", err)
	}

	return counts, nil
}

// CountEvents counts calendar events created inside the range
func (r *ReportsRepository) CountEvents(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM calendar_events WHERE user_id = $1`, userID, "created_at", dateRange)
}

// CountAgentJobs counts agent jobs created inside the range
func (r *ReportsRepository) CountAgentJobs(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM agent_jobs WHERE user_id = $1`, userID, "created_at", dateRange)
}

// CountCompletedAgentJobs counts COMPLETED agent jobs whose completion falls inside the range
func (r *ReportsRepository) CountCompletedAgentJobs(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM agent_jobs WHERE user_id = $1 AND status = '%s'`, models.AgentJobStatusCompleted)
	return r.count(ctx, query, userID, "completed_at", dateRange)
}

// CountUnreadNotifications counts currently unread notifications, unscoped by date
func (r *ReportsRepository) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// CompletionsPerDay buckets completed tasks by UTC calendar day since the
// given cutoff, oldest day first.
func (r *ReportsRepository) CompletionsPerDay(ctx context.Context, userID uuid.UUID, since time.Time) ([]DayCount, error) {
	query := `
		SELECT TO_CHAR(DATE_TRUNC('day', completed_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND status = $2 AND completed_at >= $3
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, models.TaskStatusCompleted, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions per day: %w", err)
	}
	defer rows.Close()

	counts := []DayCount{}
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		counts = append(counts, dc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day counts: %w", err)
	}

	return counts, nil
}

func (r *ReportsRepository) count(ctx context.Context, baseQuery string, userID uuid.UUID, rangeColumn string, dateRange DateRange) (int, error) {
	query, args := appendRange(baseQuery, []any{userID}, rangeColumn, dateRange)

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func appendRange(query string, args []any, column string, dateRange DateRange) (string, []any) {
	if dateRange.Start != nil {
		args = append(args, *dateRange.Start)
		query += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if dateRange.End != nil {
		args = append(args, *dateRange.End)
		query += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return query, args
}
