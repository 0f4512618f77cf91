package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/postpilot/api/internal/model"
)

// MemoryStore keeps all records in process-local maps. State is lost on
// restart and invisible to other processes; use the redis or sqlite driver
// when that matters.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	results map[string]*model.JobResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*model.Job),
		results: make(map[string]*model.JobResult),
	}
}

// SaveJob stores a deep copy so later mutations by the worker don't leak
// into snapshots already handed to readers.
func (s *MemoryStore) SaveJob(ctx context.Context, job *model.Job) error {
	cp, err := copyJob(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs[job.ID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job)
}

func (s *MemoryStore) SaveResult(ctx context.Context, result *model.JobResult) error {
	cp, err := copyResult(result)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.results[result.JobID] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetResult(ctx context.Context, jobID string) (*model.JobResult, error) {
	s.mu.RLock()
	result, ok := s.results[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrResultNotFound
	}
	return copyResult(result)
}

func (s *MemoryStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		cp, err := copyJob(job)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, cp)
	}
	return jobs, nil
}

func (s *MemoryStore) ListResults(ctx context.Context) ([]*model.JobResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*model.JobResult, 0, len(s.results))
	for _, result := range s.results {
		cp, err := copyResult(result)
		if err != nil {
			return nil, err
		}
		results = append(results, cp)
	}
	return results, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyJob(job *model.Job) (*model.Job, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	var cp model.Job
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func copyResult(result *model.JobResult) (*model.JobResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	var cp model.JobResult
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
