package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"taskautomator/internal/models"
)

// RFC3339Layout is the datetime layout accepted for timestamp fields
const RFC3339Layout = "2006-01-02T15:04:05Z07:00"

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but panic loudly if they do
	register := map[string]validator.Func{
		"task_status":       validateTaskStatus,
		"task_priority":     validateTaskPriority,
		"notification_type": validateNotificationType,
		"agent_type":        validateAgentType,
	}
	for tag, fn := range register {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return ValidateTaskStatus(fl.Field().String()) == nil
}

func validateTaskPriority(fl validator.FieldLevel) bool {
	return ValidateTaskPriority(fl.Field().String()) == nil
}

func validateNotificationType(fl validator.FieldLevel) bool {
	return ValidateNotificationType(fl.Field().String()) == nil
}

func validateAgentType(fl validator.FieldLevel) bool {
	return ValidateAgentType(fl.Field().String()) == nil
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	switch models.TaskStatus(value) {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'TODO', 'IN_PROGRESS', or 'COMPLETED')", value)
	}
}

// ValidateTaskPriority validates a TaskPriority string value
func ValidateTaskPriority(value string) error {
	switch models.TaskPriority(value) {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'LOW', 'MEDIUM', or 'HIGH')", value)
	}
}

// ValidateNotificationType validates a NotificationType string value
func ValidateNotificationType(value string) error {
	switch models.NotificationType(value) {
	case models.NotificationTypeInfo, models.NotificationTypeSuccess, models.NotificationTypeWarning,
		models.NotificationTypeError, models.NotificationTypeTaskReminder, models.NotificationTypeAgentUpdate:
		return nil
	default:
		return fmt.Errorf("invalid type: %s", value)
	}
}

// ValidateAgentType validates an AgentType string value
func ValidateAgentType(value string) error {
	switch models.AgentType(value) {
	case models.AgentTypePlanner, models.AgentTypeCalendar, models.AgentTypeSummarizer, models.AgentTypeNotifications:
		return nil
	default:
		return fmt.Errorf("invalid agentType: %s (must be 'PLANNER', 'CALENDAR', 'SUMMARIZER', or 'NOTIFICATIONS')", value)
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing
// control characters except newline and tab
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
