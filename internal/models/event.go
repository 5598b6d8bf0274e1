package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent represents a calendar event owned by a single user.
// EndTime is always strictly after StartTime.
type CalendarEvent struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	AllDay      bool       `json:"allDay"`
	Color       *string    `json:"color,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
