package model

import "time"

// SetupRequest carries the user's generation API key for validation.
type SetupRequest struct {
	APIKey string `json:"api_key"`
}

// SetupResponse reports the outcome of key validation.
type SetupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StartJobRequest starts a generation job from either a topic list or a
// single news URL. Exactly one of Topics / NewsURL must be set.
type StartJobRequest struct {
	Topics  []string         `json:"topics" validate:"omitempty,min=1,dive,required"`
	NewsURL string           `json:"news_url" validate:"omitempty,url"`
	Options *StartJobOptions `json:"options" validate:"omitempty"`
}

// StartJobOptions mirrors JobOptions with request-level validation.
type StartJobOptions struct {
	MaxPosts  int       `json:"max_posts" validate:"omitempty,min=1,max=10"`
	TimeRange TimeRange `json:"time_range" validate:"omitempty,oneof=oneDay threeDays oneWeek oneMonth"`
}

// StartJobResponse acknowledges job creation.
type StartJobResponse struct {
	Status  string     `json:"status"`
	JobID   string     `json:"job_id"`
	Topics  []string   `json:"topics"`
	Options JobOptions `json:"options"`
}

// JobListResponse is the /api/jobs listing: non-terminal (plus failed) jobs
// keyed by id, and published results keyed by id.
type JobListResponse struct {
	ActiveJobs    map[string]*Job       `json:"active_jobs"`
	CompletedJobs map[string]*JobResult `json:"completed_jobs"`
}

// TopicsResponse lists suggested topics and search windows.
type TopicsResponse struct {
	DefaultTopics []string    `json:"default_topics"`
	TimeRanges    []TimeRange `json:"time_ranges"`
	NewsDomains   []string    `json:"news_domains"`
}

// ConfigResponse exposes the static content-generation knobs.
type ConfigResponse struct {
	PostsPerTopic       int    `json:"posts_per_topic"`
	DefaultTimeRange    string `json:"default_time_range"`
	OptimalPostingHours []int  `json:"optimal_posting_hours"`
	MaxHashtags         int    `json:"max_hashtags"`
	MaxCaptionLength    int    `json:"max_caption_length"`
}

// HealthResponse reports component readiness.
type HealthResponse struct {
	Status   string          `json:"status"`
	Services map[string]bool `json:"services"`
	Time     time.Time       `json:"time"`
}
