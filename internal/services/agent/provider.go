package agent

import (
	"context"
	"fmt"

	"taskautomator/internal/models"
)

// Provider runs an automation agent against a job's task input and returns
// the result text. Implementations are expected to be safe for concurrent use.
type Provider interface {
	Run(ctx context.Context, job *models.AgentJob) (string, error)
}

// systemPrompts select the instruction set per agent type
var systemPrompts = map[models.AgentType]string{
	models.AgentTypePlanner: "You are a planning assistant. Break the user's request into a concrete, " +
		"ordered list of actionable steps with rough time estimates. Be concise and practical.",
	models.AgentTypeCalendar: "You are a scheduling assistant. Given the user's request, propose concrete " +
		"calendar entries with titles, start and end times, and short descriptions.",
	models.AgentTypeSummarizer: "You are a summarization assistant. Produce a concise summary of the " +
		"user's input, preserving key facts, dates, and action items.",
	models.AgentTypeNotifications: "You are a reminder assistant. Given the user's request, draft short " +
		"notification messages that would keep them on track, each under 200 characters.",
}

// SystemPrompt returns the instruction set for the given agent type
func SystemPrompt(agentType models.AgentType) (string, error) {
	prompt, ok := systemPrompts[agentType]
	if !ok {
		return "", fmt.Errorf("unknown agent type: %s", agentType)
	}
	return prompt, nil
}
