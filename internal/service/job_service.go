package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/postpilot/api/internal/config"
	"github.com/postpilot/api/internal/model"
	"github.com/postpilot/api/internal/store"
)

const TaskTypeGenerate = "generate:process"

var (
	ErrJobNotFound    = store.ErrJobNotFound
	ErrResultNotReady = errors.New("result not available")
	ErrNoTopics       = errors.New("at least one topic or a news URL is required")
	ErrMixedSources   = errors.New("topics and a news URL cannot be combined")
	ErrJobTerminal    = errors.New("job already finished")
)

// TaskPayload is the envelope placed on the queue for each job.
type TaskPayload struct {
	JobID   string          `json:"job_id"`
	Payload json.RawMessage `json:"payload"`
}

// Enqueuer schedules a job's advancement task. The asynq implementation is
// used in production; tests substitute a synchronous runner.
type Enqueuer interface {
	EnqueueGenerate(ctx context.Context, jobID string, payload []byte) error
}

// AsynqEnqueuer enqueues advancement tasks on the generate queue. No
// retries: a failed per-post generation is absorbed by the assembler, and a
// hard job failure is terminal.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) EnqueueGenerate(ctx context.Context, jobID string, payload []byte) error {
	data, err := json.Marshal(TaskPayload{JobID: jobID, Payload: payload})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTypeGenerate, data)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue("generate"),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	return err
}

// DefaultJobOptions derives the per-job defaults from content config.
func DefaultJobOptions(cfg *config.ContentConfig) model.JobOptions {
	return model.JobOptions{
		MaxPostsPerTopic: cfg.PostsPerTopic,
		TimeRange:        model.TimeRange(cfg.DefaultTimeRange),
	}
}

// JobService owns the job lifecycle: creation, status/result reads, and the
// state mutations performed by the worker. All records live behind the
// injectable JobStore.
type JobService struct {
	store    store.JobStore
	enqueuer Enqueuer
	defaults model.JobOptions
}

func NewJobService(st store.JobStore, enqueuer Enqueuer, defaults model.JobOptions) *JobService {
	return &JobService{
		store:    st,
		enqueuer: enqueuer,
		defaults: defaults,
	}
}

// CreateJob validates the request, persists a pending Job and schedules its
// advancement. It returns before any generation work happens.
func (s *JobService) CreateJob(ctx context.Context, req *model.StartJobRequest, apiKey string) (*model.Job, error) {
	if len(req.Topics) == 0 && req.NewsURL == "" {
		return nil, ErrNoTopics
	}
	// A URL job processes exactly one source; accepting topics alongside it
	// would leave the job record promising posts that never materialize.
	if len(req.Topics) > 0 && req.NewsURL != "" {
		return nil, ErrMixedSources
	}

	options := s.defaults
	if req.Options != nil {
		if req.Options.MaxPosts > 0 {
			options.MaxPostsPerTopic = req.Options.MaxPosts
		}
		if req.Options.TimeRange != "" {
			options.TimeRange = req.Options.TimeRange
		}
	}

	topics := req.Topics
	if len(topics) == 0 {
		// A source URL counts as a single virtual topic.
		topics = []string{req.NewsURL}
	}

	now := time.Now()
	job := &model.Job{
		ID:         uuid.New().String(),
		Status:     model.JobStatusPending,
		Progress:   0,
		Topics:     topics,
		NewsURL:    req.NewsURL,
		Options:    options,
		TotalPosts: len(topics) * options.MaxPostsPerTopic,
		Message:    "Job queued",
		CreatedAt:  now,
	}

	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	payload, err := json.Marshal(model.GenerateJobPayload{
		Topics:  req.Topics,
		NewsURL: req.NewsURL,
		Options: options,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := s.enqueuer.EnqueueGenerate(ctx, job.ID, payload); err != nil {
		// The pending record is already saved; without a queued task it
		// would sit unadvanced forever, so mark it failed.
		if failErr := s.FailJob(ctx, job.ID, "Failed to queue job"); failErr != nil {
			log.Printf("Failed to mark unqueued job %s as failed: %v", job.ID, failErr)
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job, nil
}

// GetStatus returns a snapshot of the job record.
func (s *JobService) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// GetResult returns the published result of a completed job. A job that
// exists but has not completed reports ErrResultNotReady.
func (s *JobService) GetResult(ctx context.Context, jobID string) (*model.JobResult, error) {
	result, err := s.store.GetResult(ctx, jobID)
	if err == store.ErrResultNotFound {
		if _, jobErr := s.store.GetJob(ctx, jobID); jobErr != nil {
			return nil, ErrJobNotFound
		}
		return nil, ErrResultNotReady
	}
	return result, err
}

// ListJobs splits the registry into unfinished (plus failed) jobs and
// published results.
func (s *JobService) ListJobs(ctx context.Context) (*model.JobListResponse, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListResults(ctx)
	if err != nil {
		return nil, err
	}

	resp := &model.JobListResponse{
		ActiveJobs:    make(map[string]*model.Job),
		CompletedJobs: make(map[string]*model.JobResult),
	}
	for _, job := range jobs {
		// Failed jobs never publish a result, so keep them visible here.
		if !job.Status.Terminal() || job.Status == model.JobStatusFailed {
			resp.ActiveJobs[job.ID] = job
		}
	}
	for _, result := range results {
		resp.CompletedJobs[result.JobID] = result
	}
	return resp, nil
}

// MarkRunning transitions a pending job to running (called by the worker).
func (s *JobService) MarkRunning(ctx context.Context, jobID string) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	now := time.Now()
	job.Status = model.JobStatusRunning
	job.StartedAt = &now
	job.Message = "Generation started"
	return s.store.SaveJob(ctx, job)
}

// UpdateProgress records advancement. Progress is monotonically
// non-decreasing; a stale lower value is ignored.
func (s *JobService) UpdateProgress(ctx context.Context, jobID string, progress int, currentTopic, message string) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentTopic = currentTopic
	job.Message = message
	return s.store.SaveJob(ctx, job)
}

// CompleteJob publishes the result and moves the job to its terminal
// completed state. Result publication happens first so a completed status is
// never observable without its result.
func (s *JobService) CompleteJob(ctx context.Context, jobID string, posts []model.Post) (*model.JobResult, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return nil, ErrJobTerminal
	}

	now := time.Now()
	result := &model.JobResult{
		JobID:       jobID,
		Posts:       posts,
		TotalPosts:  len(posts),
		CompletedAt: now,
	}
	if err := s.store.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.CurrentTopic = ""
	job.Message = fmt.Sprintf("Successfully created %d posts", len(posts))
	job.TotalPosts = len(posts)
	job.CompletedAt = &now
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	return result, nil
}

// FailJob moves the job to its terminal failed state. No partial result is
// published; completed and failed stay a binary distinction for callers.
func (s *JobService) FailJob(ctx context.Context, jobID, errMsg string) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return ErrJobTerminal
	}
	now := time.Now()
	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	job.Message = "Error: " + errMsg
	job.FailedAt = &now
	return s.store.SaveJob(ctx, job)
}
