package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentType selects which automation agent handles a job
type AgentType string

const (
	AgentTypePlanner       AgentType = "PLANNER"
	AgentTypeCalendar      AgentType = "CALENDAR"
	AgentTypeSummarizer    AgentType = "SUMMARIZER"
	AgentTypeNotifications AgentType = "NOTIFICATIONS"
)

// AgentJobStatus represents the lifecycle state of an agent job
type AgentJobStatus string

const (
	AgentJobStatusPending   AgentJobStatus = "PENDING"
	AgentJobStatusRunning   AgentJobStatus = "RUNNING"
	AgentJobStatusCompleted AgentJobStatus = "COMPLETED"
	AgentJobStatusFailed    AgentJobStatus = "FAILED"
)

// AgentJob represents a requested automation run. The API server only ever
// drives PENDING to RUNNING; the worker drives RUNNING to COMPLETED or FAILED.
type AgentJob struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"userId"`
	TaskInput   string         `json:"taskInput"`
	AgentType   AgentType      `json:"agentType"`
	Status      AgentJobStatus `json:"status"`
	Result      *string        `json:"result,omitempty"`
	Error       *string        `json:"error,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
