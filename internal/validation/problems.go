package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single violated field in a request payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Problems converts a validator error into the list of every violated field.
// Unknown errors produce a single catch-all entry so the response never loses
// the failure.
func Problems(err error) []FieldError {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "", Message: "invalid request body"}}
	}

	problems := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, FieldError{
			Field:   jsonFieldName(fe),
			Message: messageFor(fe),
		})
	}
	return problems
}

// jsonFieldName lowercases the first rune of the struct field name so error
// details match the JSON payload keys (Title -> title, DueDate -> dueDate).
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url", "uri":
		return "must be a well-formed URL"
	case "datetime":
		return "must be a valid RFC 3339 timestamp"
	case "task_status":
		return "must be one of 'TODO', 'IN_PROGRESS', 'COMPLETED'"
	case "task_priority":
		return "must be one of 'LOW', 'MEDIUM', 'HIGH'"
	case "notification_type":
		return "must be one of 'INFO', 'SUCCESS', 'WARNING', 'ERROR', 'TASK_REMINDER', 'AGENT_UPDATE'"
	case "agent_type":
		return "must be one of 'PLANNER', 'CALENDAR', 'SUMMARIZER', 'NOTIFICATIONS'"
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
