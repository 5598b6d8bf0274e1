package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"taskautomator/internal/database"
	"taskautomator/internal/middleware"
	"taskautomator/internal/models"
	"taskautomator/internal/validation"
	"go.uber.org/zap"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	tasks  database.TaskStore
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks database.TaskStore, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// RegisterRoutes registers task routes on the given router.
// The router should already carry the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PUT")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Title       string                   `json:"title" validate:"required,min=1,max=500"`
	Description *string                  `json:"description" validate:"omitempty,max=10000"`
	Status      *string                  `json:"status" validate:"omitempty,task_status"`
	Priority    *string                  `json:"priority" validate:"omitempty,task_priority"`
	DueDate     models.Nullable[string]  `json:"dueDate"`
}

// UpdateTaskRequest represents a partial task update
type UpdateTaskRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=1,max=500"`
	Description models.Nullable[string]  `json:"description"`
	Status      *string                  `json:"status" validate:"omitempty,task_status"`
	Priority    *string                  `json:"priority" validate:"omitempty,task_priority"`
	DueDate     models.Nullable[string]  `json:"dueDate"`
}

// ListTasks lists the caller's tasks, optionally filtered by status and priority
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var status *models.TaskStatus
	if s := r.URL.Query().Get("status"); s != "" {
		if err := validation.ValidateTaskStatus(s); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		sEnum := models.TaskStatus(s)
		status = &sEnum
	}

	var priority *models.TaskPriority
	if p := r.URL.Query().Get("priority"); p != "" {
		if err := validation.ValidateTaskPriority(p); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		pEnum := models.TaskPriority(p)
		priority = &pEnum
	}

	tasks, err := h.tasks.List(r.Context(), user.ID, status, priority)
	if err != nil {
		h.logger.Error("failed_to_list_tasks", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask creates a new task. Status defaults to TODO and priority to MEDIUM.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problems := validation.Problems(validation.Validate.Struct(req))

	dueDate, fieldErr := parseNullableTime(req.DueDate, "dueDate")
	if fieldErr != nil {
		problems = append(problems, *fieldErr)
	}

	if len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	task := &models.Task{
		ID:          uuid.New(),
		UserID:      user.ID,
		Title:       validation.SanitizeText(req.Title),
		Description: req.Description,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		DueDate:     dueDate,
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if task.Status == models.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}

	if err := h.tasks.Create(r.Context(), task); err != nil {
		h.logger.Error("failed_to_create_task", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves one of the caller's tasks by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.tasks.GetByID(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed_to_get_task", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask applies a partial update to one of the caller's tasks.
// A status transition into COMPLETED stamps completedAt; a transition out
// clears it. An explicit null dueDate clears the due date; an omitted one
// leaves it untouched.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	problems := validation.Problems(validation.Validate.Struct(req))

	dueDate, fieldErr := parseNullableTime(req.DueDate, "dueDate")
	if fieldErr != nil {
		problems = append(problems, *fieldErr)
	}

	if len(problems) > 0 {
		respondValidationError(w, problems)
		return
	}

	ctx := r.Context()
	task, err := h.tasks.GetByID(ctx, id, user.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed_to_get_task", zap.Error(err))
		respondInternalError(w)
		return
	}

	if req.Title != nil {
		task.Title = validation.SanitizeText(*req.Title)
	}
	if req.Description.Set {
		if req.Description.Valid {
			task.Description = &req.Description.Value
		} else {
			task.Description = nil
		}
	}
	if req.Priority != nil {
		task.Priority = models.TaskPriority(*req.Priority)
	}
	if req.Status != nil {
		newStatus := models.TaskStatus(*req.Status)
		if newStatus == models.TaskStatusCompleted && task.Status != models.TaskStatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
		} else if newStatus != models.TaskStatusCompleted && task.Status == models.TaskStatusCompleted {
			task.CompletedAt = nil
		}
		task.Status = newStatus
	}
	if req.DueDate.Set {
		task.DueDate = dueDate
	}

	if err := h.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed_to_update_task", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes one of the caller's tasks
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.tasks.Delete(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		h.logger.Error("failed_to_delete_task", zap.Error(err))
		respondInternalError(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// parseNullableTime parses an optional, nullable RFC 3339 timestamp field.
// Returns a nil time for both null and omitted; the caller distinguishes the
// two via Set.
func parseNullableTime(field models.Nullable[string], name string) (*time.Time, *validation.FieldError) {
	if !field.Set || !field.Valid {
		return nil, nil
	}
	t, err := time.Parse(validation.RFC3339Layout, field.Value)
	if err != nil {
		return nil, &validation.FieldError{Field: name, Message: "must be a valid RFC 3339 timestamp"}
	}
	return &t, nil
}
