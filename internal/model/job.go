package model

import "time"

// Job represents one user-initiated content generation run spanning one or
// more topics. The record is owned by the job store; the worker processing
// the job is its sole writer.
type Job struct {
	ID           string     `json:"id"`
	Status       JobStatus  `json:"status"`
	Progress     int        `json:"progress"`
	CurrentTopic string     `json:"current_topic,omitempty"`
	Message      string     `json:"message,omitempty"`
	Topics       []string   `json:"topics"`
	NewsURL      string     `json:"news_url,omitempty"`
	Options      JobOptions `json:"options"`
	TotalPosts   int        `json:"total_posts"`
	Error        *string    `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	FailedAt     *time.Time `json:"failed_at,omitempty"`
}

// JobOptions controls how many posts are produced per topic and which
// search window is requested from the news search.
type JobOptions struct {
	MaxPostsPerTopic int       `json:"max_posts"`
	TimeRange        TimeRange `json:"time_range"`
}

// GenerateJobPayload is the task payload carried through the queue. The API
// key passes through per request and lives only inside the payload for the
// duration of the job.
type GenerateJobPayload struct {
	Topics  []string   `json:"topics,omitempty"`
	NewsURL string     `json:"news_url,omitempty"`
	Options JobOptions `json:"options"`
	APIKey  string     `json:"api_key,omitempty"`
}
