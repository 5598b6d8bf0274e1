package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"taskautomator/internal/models"
)

// The store interfaces below mirror the concrete repositories so handlers and
// workers can be exercised with in-memory fakes.

// TaskStore defines the task repository operations used by handlers
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, userID uuid.UUID, status *models.TaskStatus, priority *models.TaskPriority) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// EventStore defines the calendar event repository operations used by handlers
type EventStore interface {
	Create(ctx context.Context, event *models.CalendarEvent) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.CalendarEvent, error)
	List(ctx context.Context, userID uuid.UUID, startDate, endDate *time.Time) ([]*models.CalendarEvent, error)
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// NotificationStore defines the notification repository operations used by
// handlers and by the agent worker
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, read *bool, limit int) ([]*models.Notification, error)
	SetRead(ctx context.Context, id, userID uuid.UUID, read bool) (*models.Notification, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// AgentJobStore defines the agent job repository operations used by handlers
// and by the agent worker
type AgentJobStore interface {
	Create(ctx context.Context, job *models.AgentJob) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.AgentJob, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.AgentJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.AgentJobStatus) error
	Complete(ctx context.Context, id uuid.UUID, result string) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
}

// ReportsStore defines the aggregation queries used by the reports handler
type ReportsStore interface {
	CountTasks(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error)
	CountCompletedTasks(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error)
	CountTasksByStatus(ctx context.Context, userID uuid.UUID, status models.TaskStatus) (int, error)
	TasksByPriority(ctx context.Context, userID uuid.UUID, dateRange DateRange) ([]PriorityCount, error)
	CountEvents(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error)
	CountAgentJobs(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error)
	CountCompletedAgentJobs(ctx context.Context, userID uuid.UUID, dateRange DateRange) (int, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	CompletionsPerDay(ctx context.Context, userID uuid.UUID, since time.Time) ([]DayCount, error)
}

// UserStore defines the user repository operations used by auth
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskStore         = (*TaskRepository)(nil)
	_ EventStore        = (*EventRepository)(nil)
	_ NotificationStore = (*NotificationRepository)(nil)
	_ AgentJobStore     = (*AgentJobRepository)(nil)
	_ ReportsStore      = (*ReportsRepository)(nil)
	_ UserStore         = (*UserRepository)(nil)
)
