package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"
)

const (
	// DefaultPassTimeout bounds a pass when no timeout is configured.
	DefaultPassTimeout = 4 * time.Minute

	stateWriteTimeout = 10 * time.Second
)

// IJobUsecase is the surface every background job exposes to the scheduler
// and to the manual trigger endpoints.
type IJobUsecase interface {
	Name() string
	Configured() bool
	RunOnce(ctx context.Context) (model.JobRunResult, error)
	Status(ctx context.Context) (*model.JobState, error)
}

// acquireJob takes the job lock and reports why it was not taken.
func acquireJob(ctx context.Context, states repository.IJobState, jobName string) (bool, *model.JobState, error) {
	acquired, prior, err := states.TryAcquire(ctx, jobName)
	if err != nil {
		return false, nil, fmt.Errorf("acquire %s lock: %w", jobName, err)
	}
	if !acquired {
		logger.GetLogger().WithField("job", jobName).Debug("job already running, skipping pass")
	}
	return acquired, prior, nil
}

// detached survives the cancellation of ctx. Writes that record work which
// already happened use it so a pass deadline cannot drop them.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// finishJob releases the lock as idle with the pass counters.
func finishJob(ctx context.Context, states repository.IJobState, jobName string, counters model.JobCounters) error {
	wctx, cancel := detached(ctx, stateWriteTimeout)
	defer cancel()
	return states.MarkSuccess(wctx, jobName, counters)
}

// failJob releases the lock in error state. Failures to record are logged.
func failJob(ctx context.Context, states repository.IJobState, jobName string, cause error) {
	wctx, cancel := detached(ctx, stateWriteTimeout)
	defer cancel()
	if err := states.MarkError(wctx, jobName, cause.Error()); err != nil {
		logger.GetLogger().WithField("job", jobName).WithField("error", err.Error()).Error("failed to record job error")
	}
}

func jobStatus(ctx context.Context, states repository.IJobState, jobName string) (*model.JobState, error) {
	state, err := states.Get(ctx, jobName)
	if errors.Is(err, model.ErrNotFound) {
		return &model.JobState{JobName: jobName, Status: model.JobStatusIdle}, nil
	}
	return state, err
}

// Trigger runs one pass on behalf of an operator and summarizes the outcome.
// The pass gets the same deadline as a scheduled one and outlives the
// caller's request. doneFormat receives the processed count, e.g.
// "Crawled %d mentions".
func Trigger(ctx context.Context, job IJobUsecase, passTimeout time.Duration, doneFormat string) dto.TriggerResponse {
	if !job.Configured() {
		return dto.TriggerResponse{Success: false, Message: fmt.Sprintf("%s not configured", job.Name())}
	}
	if passTimeout <= 0 {
		passTimeout = DefaultPassTimeout
	}
	passCtx, cancel := detached(ctx, passTimeout)
	defer cancel()
	res, err := job.RunOnce(passCtx)
	if err != nil {
		logger.GetLogger().WithField("job", job.Name()).WithField("error", err.Error()).Warn("manual trigger failed")
		return dto.TriggerResponse{Success: false, Message: err.Error(), Count: res.Count}
	}
	if res.Skipped {
		return dto.TriggerResponse{Success: false, Message: res.SkipReason, Count: res.Count}
	}
	return dto.TriggerResponse{Success: true, Message: fmt.Sprintf(doneFormat, res.Count), Count: res.Count}
}

func addCount(prev *int64, n int) *int64 {
	v := int64(n)
	if prev != nil {
		v += *prev
	}
	return &v
}
