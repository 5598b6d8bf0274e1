package workers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"taskautomator/internal/database"
	"taskautomator/internal/models"
	"taskautomator/internal/queue"
)

type fakeAgentJobStore struct {
	records    map[uuid.UUID]*models.AgentJob
	statusSets []models.AgentJobStatus
	completed  map[uuid.UUID]string
	failed     map[uuid.UUID]string
}

func newFakeAgentJobStore(records ...*models.AgentJob) *fakeAgentJobStore {
	s := &fakeAgentJobStore{
		records:   make(map[uuid.UUID]*models.AgentJob),
		completed: make(map[uuid.UUID]string),
		failed:    make(map[uuid.UUID]string),
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *fakeAgentJobStore) Create(ctx context.Context, job *models.AgentJob) error {
	s.records[job.ID] = job
	return nil
}

func (s *fakeAgentJobStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.AgentJob, error) {
	r, ok := s.records[id]
	if !ok || r.UserID != userID {
		return nil, database.ErrNotFound
	}
	return r, nil
}

func (s *fakeAgentJobStore) List(ctx context.Context, userID uuid.UUID) ([]*models.AgentJob, error) {
	return nil, nil
}

func (s *fakeAgentJobStore) SetStatus(ctx context.Context, id uuid.UUID, status models.AgentJobStatus) error {
	s.statusSets = append(s.statusSets, status)
	if r, ok := s.records[id]; ok {
		r.Status = status
	}
	return nil
}

func (s *fakeAgentJobStore) Complete(ctx context.Context, id uuid.UUID, result string) error {
	s.completed[id] = result
	if r, ok := s.records[id]; ok {
		r.Status = models.AgentJobStatusCompleted
		r.Result = &result
	}
	return nil
}

func (s *fakeAgentJobStore) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	s.failed[id] = reason
	if r, ok := s.records[id]; ok {
		r.Status = models.AgentJobStatusFailed
		r.Error = &reason
	}
	return nil
}

type fakeNotificationStore struct {
	created []*models.Notification
}

func (s *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	s.created = append(s.created, n)
	return nil
}

func (s *fakeNotificationStore) List(ctx context.Context, userID uuid.UUID, read *bool, limit int) ([]*models.Notification, error) {
	return nil, nil
}

func (s *fakeNotificationStore) SetRead(ctx context.Context, id, userID uuid.UUID, read bool) (*models.Notification, error) {
	return nil, database.ErrNotFound
}

func (s *fakeNotificationStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return database.ErrNotFound
}

type fakeProvider struct {
	result string
	err    error
	calls  int
}

func (p *fakeProvider) Run(ctx context.Context, job *models.AgentJob) (string, error) {
	p.calls++
	return p.result, p.err
}

func TestProcessAgentRunJob_Success(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    userID,
		TaskInput: "Plan my week",
		AgentType: models.AgentTypePlanner,
		Status:    models.AgentJobStatusRunning,
	}

	jobRepo := newFakeAgentJobStore(record)
	notifications := &fakeNotificationStore{}
	provider := &fakeProvider{result: "1. Monday: deep work\n2. Tuesday: meetings"}

	runner := NewAgentRunner(provider, jobRepo, notifications, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, userID, &record.ID)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessAgentRunJob returned error: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("Expected provider to be called once, got %d", provider.calls)
	}
	if got := jobRepo.completed[record.ID]; got != provider.result {
		t.Errorf("Expected result %q to be stored, got %q", provider.result, got)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications.created))
	}
	n := notifications.created[0]
	if n.Type != models.NotificationTypeAgentUpdate {
		t.Errorf("Expected AGENT_UPDATE notification, got %s", n.Type)
	}
	if n.UserID != userID {
		t.Errorf("Expected notification for user %s, got %s", userID, n.UserID)
	}
}

func TestProcessAgentRunJob_MarksPendingRunning(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    userID,
		TaskInput: "Summarize notes",
		AgentType: models.AgentTypeSummarizer,
		Status:    models.AgentJobStatusPending,
	}

	jobRepo := newFakeAgentJobStore(record)
	runner := NewAgentRunner(&fakeProvider{result: "summary"}, jobRepo, &fakeNotificationStore{}, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, userID, &record.ID)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessAgentRunJob returned error: %v", err)
	}

	if len(jobRepo.statusSets) != 1 || jobRepo.statusSets[0] != models.AgentJobStatusRunning {
		t.Errorf("Expected a single RUNNING status transition, got %v", jobRepo.statusSets)
	}
	if record.Status != models.AgentJobStatusCompleted {
		t.Errorf("Expected record to end COMPLETED, got %s", record.Status)
	}
}

func TestProcessAgentRunJob_AlreadyFinished(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	result := "done"
	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    userID,
		TaskInput: "Plan my week",
		AgentType: models.AgentTypePlanner,
		Status:    models.AgentJobStatusCompleted,
		Result:    &result,
	}

	jobRepo := newFakeAgentJobStore(record)
	provider := &fakeProvider{result: "new result"}
	runner := NewAgentRunner(provider, jobRepo, &fakeNotificationStore{}, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, userID, &record.ID)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err != nil {
		t.Fatalf("ProcessAgentRunJob returned error: %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("Expected provider not to be called for finished job, got %d calls", provider.calls)
	}
	if *record.Result != result {
		t.Errorf("Expected result to be unchanged, got %q", *record.Result)
	}
}

func TestProcessAgentRunJob_MissingAgentJobID(t *testing.T) {
	t.Parallel()

	runner := NewAgentRunner(&fakeProvider{}, newFakeAgentJobStore(), &fakeNotificationStore{}, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, uuid.New(), nil)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err == nil {
		t.Error("Expected error for job without agent_job_id")
	}
}

func TestProcessAgentRunJob_RecordNotFound(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	runner := NewAgentRunner(provider, newFakeAgentJobStore(), &fakeNotificationStore{}, nil)

	missing := uuid.New()
	job := queue.NewJob(queue.JobTypeAgentRun, uuid.New(), &missing)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err != nil {
		t.Fatalf("Expected nil error for missing record, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("Expected provider not to be called, got %d calls", provider.calls)
	}
}

func TestProcessAgentRunJob_WrongOwner(t *testing.T) {
	t.Parallel()

	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		TaskInput: "Plan my week",
		AgentType: models.AgentTypePlanner,
		Status:    models.AgentJobStatusRunning,
	}

	provider := &fakeProvider{}
	runner := NewAgentRunner(provider, newFakeAgentJobStore(record), &fakeNotificationStore{}, nil)

	// Queue job claims a different user; the scoped lookup must miss.
	job := queue.NewJob(queue.JobTypeAgentRun, uuid.New(), &record.ID)
	if err := runner.ProcessAgentRunJob(context.Background(), job); err != nil {
		t.Fatalf("Expected nil error for mismatched owner, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("Expected provider not to be called, got %d calls", provider.calls)
	}
}

func TestProcessAgentRunJob_ProviderError(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    userID,
		TaskInput: "Plan my week",
		AgentType: models.AgentTypePlanner,
		Status:    models.AgentJobStatusRunning,
	}

	jobRepo := newFakeAgentJobStore(record)
	notifications := &fakeNotificationStore{}
	runner := NewAgentRunner(&fakeProvider{err: errors.New("model unavailable")}, jobRepo, notifications, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, userID, &record.ID)
	err := runner.ProcessAgentRunJob(context.Background(), job)
	if err == nil {
		t.Fatal("Expected error from failing provider")
	}

	if _, ok := jobRepo.completed[record.ID]; ok {
		t.Error("Expected record not to be completed after provider error")
	}
	if len(notifications.created) != 0 {
		t.Errorf("Expected no notifications after provider error, got %d", len(notifications.created))
	}
}

func TestMarkFailed(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	record := &models.AgentJob{
		ID:        uuid.New(),
		UserID:    userID,
		TaskInput: "Plan my week",
		AgentType: models.AgentTypePlanner,
		Status:    models.AgentJobStatusRunning,
	}

	jobRepo := newFakeAgentJobStore(record)
	notifications := &fakeNotificationStore{}
	runner := NewAgentRunner(&fakeProvider{}, jobRepo, notifications, nil)

	job := queue.NewJob(queue.JobTypeAgentRun, userID, &record.ID)
	runner.markFailed(context.Background(), job, fmt.Errorf("model unavailable"))

	if reason, ok := jobRepo.failed[record.ID]; !ok || reason == "" {
		t.Error("Expected record to be marked failed with a reason")
	}
	if record.Status != models.AgentJobStatusFailed {
		t.Errorf("Expected record status FAILED, got %s", record.Status)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(notifications.created))
	}
	if notifications.created[0].Type != models.NotificationTypeAgentUpdate {
		t.Errorf("Expected AGENT_UPDATE notification, got %s", notifications.created[0].Type)
	}
}
