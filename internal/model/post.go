package model

import "time"

// Post is one generated Instagram-style content unit. Posts are immutable
// once appended to a job's result.
type Post struct {
	ID                    string     `json:"id"`
	Topic                 string     `json:"topic"`
	Caption               string     `json:"caption"`
	Hashtags              []string   `json:"hashtags"`
	ImagePrompt           string     `json:"image_prompt"`
	ImageURL              string     `json:"image_url"`
	GeneratedSuccessfully bool       `json:"generated_successfully"`
	ScheduledTime         *time.Time `json:"scheduled_time,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

// JobResult is published exactly once, when a job completes.
type JobResult struct {
	JobID       string    `json:"job_id"`
	Posts       []Post    `json:"posts"`
	TotalPosts  int       `json:"total_posts"`
	CompletedAt time.Time `json:"completed_at"`
}
