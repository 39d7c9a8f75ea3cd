package usecase

import (
	"context"
	"fmt"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"
	"social-reward-engine/domain/repository"
	"social-reward-engine/infrastructure/logger"
)

type IScoringUsecase interface {
	IJobUsecase
	ScorePostByID(ctx context.Context, tweetID string) (*model.Post, error)
	Stats(ctx context.Context) (dto.ScorerStats, error)
	Health(ctx context.Context) error
}

type scoringUsecase struct {
	scorer    repository.IScorer
	posts     repository.IPost
	states    repository.IJobState
	batchSize int
	now       func() time.Time
}

func NewScoringUsecase(scorer repository.IScorer, posts repository.IPost, states repository.IJobState, batchSize int) IScoringUsecase {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &scoringUsecase{scorer: scorer, posts: posts, states: states, batchSize: batchSize, now: time.Now}
}

func (u *scoringUsecase) Name() string { return "LLM service" }

func (u *scoringUsecase) Configured() bool { return u.scorer != nil && u.scorer.Configured() }

func (u *scoringUsecase) Status(ctx context.Context) (*model.JobState, error) {
	return jobStatus(ctx, u.states, model.JobScoring)
}

func (u *scoringUsecase) Stats(ctx context.Context) (dto.ScorerStats, error) {
	return u.posts.ScorerStats(ctx)
}

func (u *scoringUsecase) Health(ctx context.Context) error {
	if !u.Configured() {
		return model.ErrNotConfigured
	}
	return u.scorer.Health(ctx)
}

// RunOnce scores the oldest unscored posts. A post whose scoring call fails
// is stored with worst-case scores so it leaves the queue for good.
func (u *scoringUsecase) RunOnce(ctx context.Context) (model.JobRunResult, error) {
	if !u.Configured() {
		return model.JobRunResult{Skipped: true, SkipReason: "LLM service not configured"}, nil
	}
	lg := logger.GetLogger().WithField("job", model.JobScoring)

	acquired, prior, err := acquireJob(ctx, u.states, model.JobScoring)
	if err != nil {
		return model.JobRunResult{}, err
	}
	if !acquired {
		return model.JobRunResult{Skipped: true, SkipReason: "scoring already running"}, nil
	}

	posts, err := u.posts.FindUnscored(ctx, u.batchSize)
	if err != nil {
		err = fmt.Errorf("select unscored posts: %w", err)
		failJob(ctx, u.states, model.JobScoring, err)
		return model.JobRunResult{}, err
	}

	scored := 0
	for i := range posts {
		if ctx.Err() != nil {
			lg.WithField("remaining", len(posts)-i).Warn("pass deadline reached, leaving posts for the next pass")
			break
		}
		if err := u.scoreOne(ctx, &posts[i]); err != nil {
			lg.WithField("tweet_id", posts[i].TweetID).WithField("error", err.Error()).Warn("failed to store scores")
			continue
		}
		scored++
	}

	var processed *int64
	if prior != nil {
		processed = prior.ProcessedCount
	}
	if err := finishJob(ctx, u.states, model.JobScoring, model.JobCounters{ProcessedCount: addCount(processed, scored)}); err != nil {
		return model.JobRunResult{Count: scored}, fmt.Errorf("mark scoring success: %w", err)
	}
	lg.WithField("count", scored).Info("scoring pass finished")
	return model.JobRunResult{Count: scored}, nil
}

// ScorePostByID re-scores a single post regardless of its current scores.
func (u *scoringUsecase) ScorePostByID(ctx context.Context, tweetID string) (*model.Post, error) {
	if !u.Configured() {
		return nil, model.ErrNotConfigured
	}
	post, err := u.posts.GetByTweetID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if err := u.scoreOne(ctx, post); err != nil {
		return nil, err
	}
	return u.posts.GetByTweetID(ctx, tweetID)
}

// scoreOne returns an error when the call was interrupted or the result
// could not be stored.
func (u *scoringUsecase) scoreOne(ctx context.Context, post *model.Post) error {
	scores, err := u.scorer.Score(ctx, dto.ScoreRequest{Text: post.Text, AuthorUsername: post.AuthorUsername})
	if err == nil {
		err = validateScores(scores)
	}
	if err != nil && ctx.Err() != nil {
		// Interrupted, not a content failure. The post stays queued.
		return fmt.Errorf("scoring interrupted: %w", err)
	}
	wctx, cancel := detached(ctx, stateWriteTimeout)
	defer cancel()
	if err != nil {
		logger.GetLogger().WithField("tweet_id", post.TweetID).WithField("error", err.Error()).Warn("scoring failed, storing worst-case scores")
		msg := err.Error()
		return u.posts.SetScores(wctx, post.TweetID, model.FailedScores, u.now(), &msg)
	}
	return u.posts.SetScores(wctx, post.TweetID, *scores, u.now(), nil)
}

func validateScores(s *model.Scores) error {
	if s == nil {
		return fmt.Errorf("scorer returned no scores")
	}
	for name, v := range map[string]float64{"qualityScore": s.Quality, "aiLikelihood": s.AILikelihood, "spamScore": s.Spam} {
		if v < 0 || v > 100 {
			return fmt.Errorf("scorer returned %s=%v outside [0,100]", name, v)
		}
	}
	return nil
}
