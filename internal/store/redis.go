package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/postpilot/api/internal/model"
)

const recordTTL = 24 * time.Hour

// RedisStore persists records as JSON values with a 24h retention, plus
// index sets so listings don't need a keyspace scan. Multiple server
// processes sharing one Redis see the same jobs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func jobKey(jobID string) string    { return fmt.Sprintf("job:%s", jobID) }
func resultKey(jobID string) string { return fmt.Sprintf("job:%s:result", jobID) }

const (
	jobIndexKey    = "jobs:index"
	resultIndexKey = "results:index"
)

func (s *RedisStore) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, recordTTL)
	pipe.SAdd(ctx, jobIndexKey, job.ID)
	pipe.Expire(ctx, jobIndexKey, recordTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.client.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) SaveResult(ctx context.Context, result *model.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, resultKey(result.JobID), data, recordTTL)
	pipe.SAdd(ctx, resultIndexKey, result.JobID)
	pipe.Expire(ctx, resultIndexKey, recordTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) GetResult(ctx context.Context, jobID string) (*model.JobResult, error) {
	data, err := s.client.Get(ctx, resultKey(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	var result model.JobResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *RedisStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIndexKey).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		if err == ErrJobNotFound {
			// Record expired ahead of its index entry.
			s.client.SRem(ctx, jobIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *RedisStore) ListResults(ctx context.Context) ([]*model.JobResult, error) {
	ids, err := s.client.SMembers(ctx, resultIndexKey).Result()
	if err != nil {
		return nil, err
	}
	results := make([]*model.JobResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.GetResult(ctx, id)
		if err == ErrResultNotFound {
			s.client.SRem(ctx, resultIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
