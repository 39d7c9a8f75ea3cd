package persistence

import (
	"context"
	"errors"
	"time"

	"social-reward-engine/domain/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// JobStateRepository stores one document per job. The "running" status is
// the cross-process lock; a lock older than staleAfter is considered
// abandoned by a crashed process and may be taken over.
type JobStateRepository struct {
	coll       *mongo.Collection
	staleAfter time.Duration
	now        func() time.Time
}

func NewJobStateRepository(db *mongo.Database, staleAfter time.Duration) *JobStateRepository {
	return &JobStateRepository{coll: db.Collection(jobStateCollection), staleAfter: staleAfter, now: time.Now}
}

func (r *JobStateRepository) Get(ctx context.Context, jobName string) (*model.JobState, error) {
	var state model.JobState
	err := r.coll.FindOne(ctx, bson.M{"jobName": jobName}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *JobStateRepository) TryAcquire(ctx context.Context, jobName string) (bool, *model.JobState, error) {
	now := r.now().UTC()
	free := bson.A{bson.M{"status": bson.M{"$ne": model.JobStatusRunning}}}
	if r.staleAfter > 0 {
		free = append(free, bson.M{"lastRunAt": bson.M{"$lt": now.Add(-r.staleAfter)}})
	}
	filter := bson.M{"jobName": jobName, "$or": free}
	update := bson.M{"$set": bson.M{
		"status":    model.JobStatusRunning,
		"lastRunAt": now,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var prior model.JobState
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&prior)
	switch {
	case err == nil:
		return true, &prior, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		// Upserted: first run of this job.
		return true, nil, nil
	case mongo.IsDuplicateKeyError(err):
		// The document exists and is running, so the upsert collided with
		// the unique jobName index.
		return false, nil, nil
	default:
		return false, nil, err
	}
}

func (r *JobStateRepository) MarkSuccess(ctx context.Context, jobName string, counters model.JobCounters) error {
	now := r.now().UTC()
	set := bson.M{
		"status":        model.JobStatusIdle,
		"lastSuccessAt": now,
		"updatedAt":     now,
	}
	if counters.ProcessedCount != nil {
		set["processedCount"] = *counters.ProcessedCount
	}
	if counters.TotalPaid != nil {
		set["totalPaid"] = *counters.TotalPaid
	}
	return r.upsert(ctx, jobName, bson.M{
		"$set":   set,
		"$unset": bson.M{"error": "", "rateLimitUntil": ""},
	})
}

func (r *JobStateRepository) MarkError(ctx context.Context, jobName, message string) error {
	return r.upsert(ctx, jobName, bson.M{"$set": bson.M{
		"status":    model.JobStatusError,
		"error":     message,
		"updatedAt": r.now().UTC(),
	}})
}

func (r *JobStateRepository) SetCursor(ctx context.Context, jobName, cursor string) error {
	return r.upsert(ctx, jobName, bson.M{"$set": bson.M{
		"cursor":    cursor,
		"updatedAt": r.now().UTC(),
	}})
}

func (r *JobStateRepository) SetRateLimited(ctx context.Context, jobName string, until time.Time, message string) error {
	return r.upsert(ctx, jobName, bson.M{"$set": bson.M{
		"status":         model.JobStatusError,
		"rateLimitUntil": until.UTC(),
		"error":          message,
		"updatedAt":      r.now().UTC(),
	}})
}

func (r *JobStateRepository) upsert(ctx context.Context, jobName string, update bson.M) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"jobName": jobName}, update, options.UpdateOne().SetUpsert(true))
	return err
}
