package persistence

import (
	"context"
	"errors"
	"time"

	"social-reward-engine/domain/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PayoutRepository struct {
	coll *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{coll: db.Collection(payoutsCollection)}
}

// Create inserts a new record, assigning a UUID when ID is empty.
func (r *PayoutRepository) Create(ctx context.Context, record *model.PayoutRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, record)
	return err
}

func (r *PayoutRepository) FindPending(ctx context.Context, limit int) ([]model.PayoutRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{"status": model.PayoutPending}, opts)
}

func (r *PayoutRepository) FindPendingByTweetID(ctx context.Context, tweetID string) (*model.PayoutRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var rec model.PayoutRecord
	err := r.coll.FindOne(ctx, bson.M{"tweetId": tweetID, "status": model.PayoutPending}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *PayoutRepository) MarkProcessing(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": model.PayoutPending},
		bson.M{"$set": bson.M{"status": model.PayoutProcessing, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *PayoutRepository) MarkCompleted(ctx context.Context, id, txHash string) error {
	return r.transition(ctx, id, bson.M{
		"$set": bson.M{
			"status":    model.PayoutCompleted,
			"txHash":    txHash,
			"updatedAt": time.Now().UTC(),
		},
		"$unset": bson.M{"error": ""},
	})
}

func (r *PayoutRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.transition(ctx, id, bson.M{"$set": bson.M{
		"status":    model.PayoutFailed,
		"error":     reason,
		"updatedAt": time.Now().UTC(),
	}})
}

// transition only moves records that have not reached a terminal status.
func (r *PayoutRepository) transition(ctx context.Context, id string, update bson.M) error {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": bson.A{model.PayoutPending, model.PayoutProcessing}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PayoutRepository) History(ctx context.Context, page, limit int) ([]model.PayoutRecord, int64, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	records, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *PayoutRepository) Stats(ctx context.Context) (model.PayoutStats, error) {
	var stats model.PayoutStats
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": "$amount"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer closeCursor(ctx, cursor)
	var rows []struct {
		Status string  `bson:"_id"`
		Count  int64   `bson:"count"`
		Sum    float64 `bson:"sum"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case model.PayoutPending:
			stats.Pending = row.Count
		case model.PayoutProcessing:
			stats.Processing = row.Count
		case model.PayoutCompleted:
			stats.Completed = row.Count
			stats.TotalPaid = row.Sum
		case model.PayoutFailed:
			stats.Failed = row.Count
		}
	}
	return stats, nil
}

func (r *PayoutRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]model.PayoutRecord, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cursor)
	var records []model.PayoutRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
