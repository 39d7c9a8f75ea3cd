package repository

import (
	"context"
	"time"

	"social-reward-engine/domain/model"
)

// IJobState is the per-job lock and progress record.
type IJobState interface {
	Get(ctx context.Context, jobName string) (*model.JobState, error)
	// TryAcquire sets the job running unless it already is. prior is the
	// state before the update, nil when the record was just created.
	TryAcquire(ctx context.Context, jobName string) (acquired bool, prior *model.JobState, err error)
	MarkSuccess(ctx context.Context, jobName string, counters model.JobCounters) error
	MarkError(ctx context.Context, jobName, message string) error
	SetCursor(ctx context.Context, jobName, cursor string) error
	SetRateLimited(ctx context.Context, jobName string, until time.Time, message string) error
}
