package scheduler

import (
	"context"
	"time"

	"social-reward-engine/domain/model"
	"social-reward-engine/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

type Job interface {
	Name() string
	RunOnce(ctx context.Context) (model.JobRunResult, error)
}

// Entry schedules one job. Each pass gets its own deadline so a hung
// upstream call cannot hold the job lock past PassTimeout.
type Entry struct {
	Job         Job
	Interval    time.Duration
	PassTimeout time.Duration
}

// Start launches one ticker loop per entry on g. Loops run a first pass
// immediately and stop when ctx is done.
func Start(ctx context.Context, g *errgroup.Group, entries ...Entry) {
	for _, e := range entries {
		e := e
		if e.Interval <= 0 {
			continue
		}
		g.Go(func() error {
			loop(ctx, e)
			return nil
		})
	}
}

func loop(ctx context.Context, e Entry) {
	lg := logger.GetLogger().WithField("job", e.Job.Name())
	lg.WithField("interval", e.Interval.String()).Info("Job scheduled")

	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()
	for {
		runPass(ctx, e)
		select {
		case <-ctx.Done():
			lg.Info("Job loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func runPass(ctx context.Context, e Entry) {
	passCtx := ctx
	if e.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, e.PassTimeout)
		defer cancel()
	}
	res, err := e.Job.RunOnce(passCtx)
	lg := logger.GetLogger().WithField("job", e.Job.Name())
	switch {
	case err != nil:
		lg.WithField("error", err.Error()).Error("Job pass failed")
	case res.Skipped:
		lg.WithField("reason", res.SkipReason).Debug("Job pass skipped")
	default:
		lg.WithField("count", res.Count).Debug("Job pass done")
	}
}
