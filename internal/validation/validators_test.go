package validation

import (
	"testing"
)

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"TODO", "IN_PROGRESS", "COMPLETED"} {
		if err := ValidateTaskStatus(valid); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "todo", "DONE", "Completed"} {
		if err := ValidateTaskStatus(invalid); err == nil {
			t.Errorf("Expected '%s' to be rejected", invalid)
		}
	}
}

func TestValidateTaskPriority(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"LOW", "MEDIUM", "HIGH"} {
		if err := ValidateTaskPriority(valid); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "low", "URGENT"} {
		if err := ValidateTaskPriority(invalid); err == nil {
			t.Errorf("Expected '%s' to be rejected", invalid)
		}
	}
}

func TestValidateNotificationType(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"INFO", "SUCCESS", "WARNING", "ERROR", "TASK_REMINDER", "AGENT_UPDATE"} {
		if err := ValidateNotificationType(valid); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", valid, err)
		}
	}
	if err := ValidateNotificationType("SHOUT"); err == nil {
		t.Error("Expected 'SHOUT' to be rejected")
	}
}

func TestValidateAgentType(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"PLANNER", "CALENDAR", "SUMMARIZER", "NOTIFICATIONS"} {
		if err := ValidateAgentType(valid); err != nil {
			t.Errorf("Expected '%s' to be valid, got %v", valid, err)
		}
	}
	if err := ValidateAgentType("BUTLER"); err == nil {
		t.Error("Expected 'BUTLER' to be rejected")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  hello  ", want: "hello"},
		{name: "strips control characters", input: "he\x00ll\x07o", want: "hello"},
		{name: "keeps newlines and tabs", input: "line1\n\tline2", want: "line1\n\tline2"},
		{name: "empty", input: "", want: ""},
		{name: "unicode preserved", input: "café ☕", want: "café ☕"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
