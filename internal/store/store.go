// Package store holds job and result records behind a small interface so
// the lifecycle tracker never depends on a concrete backend. Three drivers
// ship: an in-process map, Redis, and SQLite.
package store

import (
	"context"
	"errors"

	"github.com/postpilot/api/internal/model"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrResultNotFound = errors.New("result not found")
)

// JobStore persists Job and JobResult records keyed by job id. Each job's
// worker is the sole writer to that job's record, so implementations only
// need to make individual operations safe, not cross-call sequences.
type JobStore interface {
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	SaveResult(ctx context.Context, result *model.JobResult) error
	GetResult(ctx context.Context, jobID string) (*model.JobResult, error)
	ListJobs(ctx context.Context) ([]*model.Job, error)
	ListResults(ctx context.Context) ([]*model.JobResult, error)
	Close() error
}
