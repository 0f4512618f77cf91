package model

// Job status
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status allows no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Time ranges for news search
type TimeRange string

const (
	TimeRangeOneDay    TimeRange = "oneDay"
	TimeRangeThreeDays TimeRange = "threeDays"
	TimeRangeOneWeek   TimeRange = "oneWeek"
	TimeRangeOneMonth  TimeRange = "oneMonth"
)

var ValidTimeRanges = []TimeRange{
	TimeRangeOneDay, TimeRangeThreeDays, TimeRangeOneWeek, TimeRangeOneMonth,
}

// Source kinds accepted by the content assembler
type SourceKind string

const (
	SourceKindTopic          SourceKind = "topic"
	SourceKindScrapedArticle SourceKind = "scrapedArticle"
)
