package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/postpilot/api/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS job_results (
	job_id     TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// SQLiteStore is the file-backed driver for single-node deployments that
// need jobs to survive a restart without running Redis. Records are stored
// as JSON documents; the status column exists only for indexing.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			data = excluded.data,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		job.ID, string(job.Status), string(data))
	return err
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM jobs WHERE id = ?`, jobID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_results (job_id, data) VALUES (?, ?)
		ON CONFLICT(job_id) DO UPDATE SET data = excluded.data`,
		result.JobID, string(data))
	return err
}

func (s *SQLiteStore) GetResult(ctx context.Context, jobID string) (*model.JobResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM job_results WHERE job_id = ?`, jobID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, err
	}
	var result model.JobResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context) ([]*model.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM jobs ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var job model.Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (s *SQLiteStore) ListResults(ctx context.Context) ([]*model.JobResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM job_results ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.JobResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var result model.JobResult
		if err := json.Unmarshal([]byte(data), &result); err != nil {
			return nil, err
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
