package model

import "time"

const (
	JobIngest  = "ingest"
	JobScoring = "scoring"
	JobPayout  = "payout"
)

const (
	JobStatusIdle    = "idle"
	JobStatusRunning = "running"
	JobStatusError   = "error"
)

// JobState tracks one named background job. Status "running" is the lock.
type JobState struct {
	JobName        string     `json:"jobName" bson:"jobName"`
	Status         string     `json:"status" bson:"status"`
	LastRunAt      *time.Time `json:"lastRunAt,omitempty" bson:"lastRunAt,omitempty"`
	LastSuccessAt  *time.Time `json:"lastSuccessAt,omitempty" bson:"lastSuccessAt,omitempty"`
	Cursor         *string    `json:"cursor,omitempty" bson:"cursor,omitempty"`
	ProcessedCount *int64     `json:"processedCount,omitempty" bson:"processedCount,omitempty"`
	TotalPaid      *float64   `json:"totalPaid,omitempty" bson:"totalPaid,omitempty"`
	RateLimitUntil *time.Time `json:"rateLimitUntil,omitempty" bson:"rateLimitUntil,omitempty"`
	Error          *string    `json:"error,omitempty" bson:"error,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// RateLimited reports whether the job must wait until RateLimitUntil.
func (s *JobState) RateLimited(now time.Time) bool {
	return s != nil && s.RateLimitUntil != nil && s.RateLimitUntil.After(now)
}

// JobCounters are merged into the job state on success. Nil fields are left
// untouched; counters are absolute values, not increments.
type JobCounters struct {
	ProcessedCount *int64
	TotalPaid      *float64
}

// JobRunResult is what one pass of a job reports to its caller.
type JobRunResult struct {
	Count      int    `json:"count"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skipReason,omitempty"`
}
