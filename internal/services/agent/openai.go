package agent

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"taskautomator/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	// MaxResultTokens caps the length of an agent run result
	MaxResultTokens = 1500
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Run executes the agent for the given job and returns the result text
func (p *OpenAIProvider) Run(ctx context.Context, job *models.AgentJob) (string, error) {
	systemPrompt, err := SystemPrompt(job.AgentType)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(job.TaskInput),
		},
		MaxTokens: openai.Int(MaxResultTokens),
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", "agent_run"),
			zap.String("model", p.model),
			zap.String("agent_type", string(job.AgentType)),
			zap.String("agent_job_id", job.ID.String()),
			zap.String("input_preview", SanitizePrompt(job.TaskInput, false)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", "agent_run"),
				zap.String("model", p.model),
				zap.String("agent_job_id", job.ID.String()),
				zap.Duration("latency_ms", latency),
				zap.Error(err),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", fmt.Errorf("agent run failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	result := resp.Choices[0].Message.Content

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "agent_run"),
			zap.String("model", p.model),
			zap.String("agent_job_id", job.ID.String()),
			zap.Duration("latency_ms", latency),
			zap.Int("result_length", len(result)),
		)
	}

	return result, nil
}
