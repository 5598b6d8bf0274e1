package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"taskautomator/internal/database"
	"taskautomator/internal/models"
	"taskautomator/internal/queue"
	"taskautomator/internal/services/agent"
)

// AgentRunner processes agent run jobs. It owns the RUNNING to COMPLETED or
// FAILED transition; the API server never completes a job itself.
type AgentRunner struct {
	provider      agent.Provider
	jobRepo       database.AgentJobStore
	notifications database.NotificationStore
	jobQueue      queue.JobQueue // For re-enqueueing jobs with delays
}

// NewAgentRunner creates a new agent runner
func NewAgentRunner(
	provider agent.Provider,
	jobRepo database.AgentJobStore,
	notifications database.NotificationStore,
	jobQueue queue.JobQueue,
) *AgentRunner {
	return &AgentRunner{
		provider:      provider,
		jobRepo:       jobRepo,
		notifications: notifications,
		jobQueue:      jobQueue,
	}
}

// ProcessAgentRunJob runs the agent for a single persisted job record
func (a *AgentRunner) ProcessAgentRunJob(ctx context.Context, job *queue.Job) error {
	if job.AgentJobID == nil {
		return fmt.Errorf("agent_job_id is required for agent run job")
	}

	record, err := a.jobRepo.GetByID(ctx, *job.AgentJobID, job.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Record deleted or never owned by this user; nothing to run.
			log.Printf("Agent job %s not found for user %s, skipping", *job.AgentJobID, job.UserID)
			return nil
		}
		return fmt.Errorf("failed to get agent job: %w", err)
	}

	// Redeliveries of finished jobs are no-ops
	if record.Status == models.AgentJobStatusCompleted || record.Status == models.AgentJobStatusFailed {
		log.Printf("Agent job %s already %s, skipping", record.ID, record.Status)
		return nil
	}

	if record.Status == models.AgentJobStatusPending {
		if err := a.jobRepo.SetStatus(ctx, record.ID, models.AgentJobStatusRunning); err != nil {
			log.Printf("Failed to mark agent job %s running: %v", record.ID, err)
			// Continue with the run even if the status update fails
		}
	}

	result, err := a.provider.Run(ctx, record)
	if err != nil {
		return fmt.Errorf("agent run failed: %w", err)
	}

	if err := a.jobRepo.Complete(ctx, record.ID, result); err != nil {
		return fmt.Errorf("failed to complete agent job: %w", err)
	}

	a.notify(ctx, record.UserID, record.ID,
		fmt.Sprintf("Your %s agent finished processing \"%s\"", record.AgentType, agent.TruncateString(record.TaskInput, 80)))

	log.Printf("Completed agent job %s (type=%s, result_length=%d)", record.ID, record.AgentType, len(result))
	return nil
}

// markFailed records a permanent failure on the job record and notifies the owner
func (a *AgentRunner) markFailed(ctx context.Context, job *queue.Job, cause error) {
	if job.AgentJobID == nil {
		return
	}

	if err := a.jobRepo.Fail(ctx, *job.AgentJobID, agent.TruncateString(cause.Error(), 1000)); err != nil {
		log.Printf("Failed to mark agent job %s failed: %v", *job.AgentJobID, err)
		return
	}

	a.notify(ctx, job.UserID, *job.AgentJobID, "Your agent job could not be completed")
}

// notify creates an AGENT_UPDATE notification, best effort
func (a *AgentRunner) notify(ctx context.Context, userID, agentJobID uuid.UUID, message string) {
	if a.notifications == nil {
		return
	}

	actionURL := "/dashboard/automate"
	n := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		Type:      models.NotificationTypeAgentUpdate,
		ActionURL: &actionURL,
	}
	if err := a.notifications.Create(ctx, n); err != nil {
		log.Printf("Failed to create notification for agent job %s: %v", agentJobID, err)
	}
}

// ProcessJob processes a job based on its type
func (a *AgentRunner) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeAgentRun:
		if err := a.ProcessAgentRunJob(ctx, job); err != nil {
			return a.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with intelligent retry logic
func (a *AgentRunner) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	// Quota errors get a long delayed retry instead of hammering the API
	if agent.IsQuotaError(err) {
		log.Printf("Quota exceeded for agent job %s: %v", job.ID, err)

		retryDelay := agent.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayedJob := a.delayedRetry(job, notBefore)

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if a.jobQueue != nil {
			if enqueueErr := a.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				a.markFailed(ctx, job, err)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Re-enqueued agent job %s for retry at %v (quota exhausted)", job.ID, notBefore)
			return nil
		}

		a.markFailed(ctx, job, err)
		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Rate limit errors retry with backoff via the delayed exchange
	if agent.IsRateLimitError(err) && job.CanRetry() {
		retryDelay := agent.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		if a.jobQueue != nil {
			delayedJob := a.delayedRetry(job, notBefore)

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			if enqueueErr := a.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued agent job %s for retry at %v", job.ID, notBefore)
			return nil
		}

		job.IncrementRetry()
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack rate limited job: %v", nackErr)
		}
		return fmt.Errorf("rate limited (will retry): %w", err)
	}

	// Standard retry for everything else
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("Agent job %s failed (attempt %d/%d): %v, will retry", job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded: mark the record FAILED and send the message to the DLQ
	log.Printf("Agent job %s failed after %d retries: %v, sending to DLQ", job.ID, job.MaxRetries, err)
	a.markFailed(ctx, job, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// delayedRetry clones a job for re-enqueue with a NotBefore bound
func (a *AgentRunner) delayedRetry(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		AgentJobID: job.AgentJobID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
