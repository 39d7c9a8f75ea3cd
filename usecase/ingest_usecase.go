package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"
)

type IngestConfig struct {
	PageSize         int
	MaxPages         int
	Retention        time.Duration
	RateLimitBackoff time.Duration
}

type IIngestUsecase interface {
	IJobUsecase
	Stats(ctx context.Context) (dto.FetcherStats, error)
}

type ingestUsecase struct {
	source repository.IMentionsSource
	posts  repository.IPost
	states repository.IJobState
	cfg    IngestConfig
	now    func() time.Time
}

func NewIngestUsecase(source repository.IMentionsSource, posts repository.IPost, states repository.IJobState, cfg IngestConfig) IIngestUsecase {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 90 * 24 * time.Hour
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = 20 * time.Minute
	}
	return &ingestUsecase{source: source, posts: posts, states: states, cfg: cfg, now: time.Now}
}

func (u *ingestUsecase) Name() string { return "X API" }

func (u *ingestUsecase) Configured() bool { return u.source != nil && u.source.Configured() }

func (u *ingestUsecase) Status(ctx context.Context) (*model.JobState, error) {
	return jobStatus(ctx, u.states, model.JobIngest)
}

func (u *ingestUsecase) Stats(ctx context.Context) (dto.FetcherStats, error) {
	return u.posts.FetcherStats(ctx)
}

// RunOnce pulls new mentions into the post store. A rate-limit response
// parks the job until the backoff expires and is not returned as an error.
func (u *ingestUsecase) RunOnce(ctx context.Context) (model.JobRunResult, error) {
	if !u.Configured() {
		return model.JobRunResult{Skipped: true, SkipReason: "X API not configured"}, nil
	}
	lg := logger.GetLogger().WithField("job", model.JobIngest)
	now := u.now()

	state, err := u.states.Get(ctx, model.JobIngest)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.JobRunResult{}, fmt.Errorf("read ingest state: %w", err)
	}
	if state.RateLimited(now) {
		wait := int(math.Ceil(state.RateLimitUntil.Sub(now).Minutes()))
		lg.WithField("wait_minutes", wait).Info("rate limited, skipping pass")
		return model.JobRunResult{Skipped: true, SkipReason: fmt.Sprintf("rate limited, retry in %d minutes", wait)}, nil
	}

	acquired, prior, err := acquireJob(ctx, u.states, model.JobIngest)
	if err != nil {
		return model.JobRunResult{}, err
	}
	if !acquired {
		return model.JobRunResult{Skipped: true, SkipReason: "ingest already running"}, nil
	}

	cursor := ""
	if prior != nil && prior.Cursor != nil {
		cursor = *prior.Cursor
	}

	count, err := u.ingest(ctx, cursor, now)
	if err != nil {
		var rl *model.RateLimitError
		if errors.As(err, &rl) {
			until := u.now().Add(u.cfg.RateLimitBackoff)
			wctx, cancel := detached(ctx, stateWriteTimeout)
			defer cancel()
			if mErr := u.states.SetRateLimited(wctx, model.JobIngest, until, err.Error()); mErr != nil {
				lg.WithField("error", mErr.Error()).Error("failed to record rate limit")
			}
			lg.WithField("until", until).WithField("count", count).Warn("upstream rate limit hit")
			return model.JobRunResult{Count: count}, nil
		}
		failJob(ctx, u.states, model.JobIngest, err)
		return model.JobRunResult{Count: count}, err
	}

	if err := finishJob(ctx, u.states, model.JobIngest, model.JobCounters{}); err != nil {
		return model.JobRunResult{Count: count}, fmt.Errorf("mark ingest success: %w", err)
	}
	lg.WithField("count", count).Info("ingest pass finished")
	return model.JobRunResult{Count: count}, nil
}

// ingest pages the feed from cursor. The cursor is advanced once, after the
// first page is stored, so a later page failure never skips items.
func (u *ingestUsecase) ingest(ctx context.Context, cursor string, now time.Time) (int, error) {
	cutoff := now.Add(-u.cfg.Retention)
	inserted := 0
	token := ""

	for page := 0; page < u.cfg.MaxPages; page++ {
		res, err := u.source.FetchMentions(ctx, cursor, token, u.cfg.PageSize)
		if err != nil {
			return inserted, err
		}
		for _, m := range res.Mentions {
			if m.CreatedAt.Before(cutoff) {
				continue
			}
			ok, err := u.posts.InsertIfAbsent(ctx, newPostFromMention(m, now))
			if err != nil {
				return inserted, fmt.Errorf("store post %s: %w", m.ID, err)
			}
			if ok {
				inserted++
			}
		}
		if page == 0 && res.NewestID != "" {
			if err := u.states.SetCursor(ctx, model.JobIngest, res.NewestID); err != nil {
				return inserted, fmt.Errorf("save cursor: %w", err)
			}
		}
		if res.NextToken == "" {
			break
		}
		token = res.NextToken
	}
	return inserted, nil
}

func newPostFromMention(m dto.Mention, now time.Time) *model.Post {
	username, name := m.AuthorUsername, m.AuthorName
	if username == "" {
		username = "unknown"
	}
	if name == "" {
		name = "Unknown"
	}
	return &model.Post{
		TweetID:        m.ID,
		Text:           m.Text,
		AuthorID:       m.AuthorID,
		AuthorUsername: username,
		AuthorName:     name,
		PublishedAt:    m.CreatedAt,
		CrawledAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
