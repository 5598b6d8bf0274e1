package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationTypeInfo         NotificationType = "INFO"
	NotificationTypeSuccess      NotificationType = "SUCCESS"
	NotificationTypeWarning      NotificationType = "WARNING"
	NotificationTypeError        NotificationType = "ERROR"
	NotificationTypeTaskReminder NotificationType = "TASK_REMINDER"
	NotificationTypeAgentUpdate  NotificationType = "AGENT_UPDATE"
)

// Notification represents a notification owned by a single user
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	ActionURL *string          `json:"actionUrl,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
