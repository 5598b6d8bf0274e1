package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/queue"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// AutomateHandler handles agent job requests. It only ever moves jobs from
// PENDING to RUNNING; a worker process picks them up from the queue and
// drives them to COMPLETED or FAILED.
type AutomateHandler struct {
	jobs     database.AgentJobStore
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewAutomateHandler creates a new automate handler. jobQueue may be nil when
// no broker is configured; dispatch is then deferred to a worker polling the
// database.
func NewAutomateHandler(jobs database.AgentJobStore, jobQueue queue.JobQueue, logger *zap.Logger) *AutomateHandler {
	return &AutomateHandler{jobs: jobs, jobQueue: jobQueue, logger: logger}
}

// RegisterRoutes registers automate routes on the given router.
// The router should already carry the /automate prefix.
func (h *AutomateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListJobs).Methods("GET")
	r.HandleFunc("", h.SubmitJob).Methods("POST")
	r.HandleFunc("/{id}", h.GetJob).Methods("GET")
}

// SubmitJobRequest represents an agent job submission. AgentType defaults to
// PLANNER when omitted.
type SubmitJobRequest struct {
	TaskInput string  `json:"taskInput" validate:"required,min=1,max=10000"`
	AgentType *string `json:"agentType" validate:"omitempty,agent_type"`
}

// SubmitJobResponse acknowledges an accepted agent job
type SubmitJobResponse struct {
	JobID   uuid.UUID             `json:"jobId"`
	Status  models.AgentJobStatus `json:"status"`
	Message string                `json:"message"`
}

// SubmitJob accepts an automation request, persists it, and hands it to the
// queue. The response is a 202; the job completes asynchronously.
func (h *AutomateHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if problems := validation.Problems(validation.Validate.Struct(req)); len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	agentType := models.AgentTypePlanner
	if req.AgentType != nil {
		agentType = models.AgentType(*req.AgentType)
	}

	ctx := r.Context()
	job := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    user.ID,
		TaskInput: validation.SanitizeText(req.TaskInput),
		AgentType: agentType,
		Status:    models.AgentJobStatusPending,
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		h.logger.Error("failed_to_create_agent_job", zap.Error(err))
		respondInternalError(w)
		return
	}

	if err := h.jobs.SetStatus(ctx, job.ID, models.AgentJobStatusRunning); err != nil {
		h.logger.Error("failed_to_mark_agent_job_running", zap.Error(err))
		respondInternalError(w)
		return
	}

	// Enqueue is best effort. A lost message leaves the job RUNNING until a
	// worker sweep or resubmission; the accepted response stands either way.
	if h.jobQueue != nil {
		queueJob := queue.NewJob(queue.JobTypeAgentRun, user.ID, &job.ID)
		if err := h.jobQueue.Enqueue(ctx, queueJob); err != nil {
			h.logger.Warn("failed_to_enqueue_agent_job",
				zap.String("agent_job_id", job.ID.String()),
				zap.Error(err))
		}
	}

	respondJSON(w, http.StatusAccepted, SubmitJobResponse{
		JobID:   job.ID,
		Status:  models.AgentJobStatusRunning,
		Message: "Agent job accepted for processing",
	})
}

// ListJobs lists the caller's agent jobs, newest first
func (h *AutomateHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobs, err := h.jobs.List(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed_to_list_agent_jobs", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, jobs)
}

// GetJob retrieves one of the caller's agent jobs by ID
func (h *AutomateHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Agent job not found")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Agent job not found")
			return
		}
		h.logger.Error("failed_to_get_agent_job", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, job)
}
