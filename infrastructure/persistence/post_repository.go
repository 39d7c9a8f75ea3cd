package persistence

import (
	"context"
	"errors"
	"time"

	"social-reward-engine/domain/dto"
	"social-reward-engine/domain/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{coll: db.Collection(postsCollection)}
}

func (r *PostRepository) InsertIfAbsent(ctx context.Context, post *model.Post) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"tweetId": post.TweetID},
		bson.M{"$setOnInsert": post},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		// Two upserts racing on the same id: the loser sees E11000.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

func (r *PostRepository) GetByTweetID(ctx context.Context, tweetID string) (*model.Post, error) {
	var post model.Post
	err := r.coll.FindOne(ctx, bson.M{"tweetId": tweetID}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

var postSortFields = map[string]string{
	dto.SortByTime:    "crawledAt",
	dto.SortByQuality: "qualityScore",
	dto.SortByAI:      "aiLikelihood",
}

func (r *PostRepository) List(ctx context.Context, req dto.PostListRequest) ([]model.Post, int64, error) {
	dir := -1
	if req.SortDir == "asc" {
		dir = 1
	}
	field, ok := postSortFields[req.SortBy]
	if !ok {
		field = "crawledAt"
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "tweetId", Value: dir}}).
		SetSkip(int64((req.Page - 1) * req.Limit)).
		SetLimit(int64(req.Limit))
	posts, err := r.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepository) FindUnscored(ctx context.Context, limit int) ([]model.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "crawledAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{"scoredAt": bson.M{"$exists": false}}, opts)
}

// SetScores writes all three scores and scoredAt in one update.
func (r *PostRepository) SetScores(ctx context.Context, tweetID string, scores model.Scores, scoredAt time.Time, scoringErr *string) error {
	set := bson.M{
		"qualityScore": scores.Quality,
		"aiLikelihood": scores.AILikelihood,
		"spamScore":    scores.Spam,
		"scoredAt":     scoredAt,
		"updatedAt":    time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if scoringErr != nil {
		set["scoringError"] = *scoringErr
	} else {
		update["$unset"] = bson.M{"scoringError": ""}
	}
	return r.updateExisting(ctx, bson.M{"tweetId": tweetID}, update)
}

func (r *PostRepository) FindAwaitingPayout(ctx context.Context, limit int) ([]model.Post, error) {
	filter := bson.M{
		"scoredAt":     bson.M{"$exists": true},
		"payoutStatus": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scoredAt", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, filter, opts)
}

func (r *PostRepository) MarkQueued(ctx context.Context, tweetID string, amount float64) (bool, error) {
	return r.claim(ctx, tweetID, bson.M{
		"payoutStatus": model.PostPayoutQueued,
		"payoutAmount": amount,
	})
}

func (r *PostRepository) MarkIneligible(ctx context.Context, tweetID, reason string) (bool, error) {
	return r.claim(ctx, tweetID, bson.M{
		"payoutStatus": model.PostPayoutIneligible,
		"payoutReason": reason,
	})
}

// claim sets payout fields only on a post that has no payout status yet.
func (r *PostRepository) claim(ctx context.Context, tweetID string, set bson.M) (bool, error) {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"tweetId": tweetID, "payoutStatus": bson.M{"$exists": false}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *PostRepository) MarkPaid(ctx context.Context, tweetID, txHash string, paidAt time.Time) error {
	return r.updateExisting(ctx, bson.M{"tweetId": tweetID}, bson.M{
		"$set": bson.M{
			"payoutStatus": model.PostPayoutPaid,
			"payoutTxHash": txHash,
			"paidAt":       paidAt,
			"updatedAt":    time.Now().UTC(),
		},
		"$unset": bson.M{"payoutReason": ""},
	})
}

func (r *PostRepository) MarkFailed(ctx context.Context, tweetID, reason string) error {
	return r.updateExisting(ctx, bson.M{"tweetId": tweetID}, bson.M{
		"$set": bson.M{
			"payoutStatus": model.PostPayoutFailed,
			"payoutReason": reason,
			"updatedAt":    time.Now().UTC(),
		},
	})
}

func (r *PostRepository) ResetFailed(ctx context.Context, tweetID string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"tweetId": tweetID, "payoutStatus": model.PostPayoutFailed},
		bson.M{
			"$unset": bson.M{"payoutStatus": "", "payoutReason": "", "payoutAmount": "", "payoutTxHash": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *PostRepository) BackfillWallet(ctx context.Context, authorID, wallet string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"authorId": authorID, "authorWallet": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"authorWallet": wallet, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *PostRepository) FetcherStats(ctx context.Context) (dto.FetcherStats, error) {
	var stats dto.FetcherStats
	var err error
	if stats.Total, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, err
	}
	if stats.Pending, err = r.coll.CountDocuments(ctx, bson.M{"scoredAt": bson.M{"$exists": false}}); err != nil {
		return stats, err
	}
	stats.Scored = stats.Total - stats.Pending
	return stats, nil
}

// ScorerStats averages only posts scored without error.
func (r *PostRepository) ScorerStats(ctx context.Context) (dto.ScorerStats, error) {
	var stats dto.ScorerStats
	var err error
	if stats.Total, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return stats, err
	}
	if stats.Scored, err = r.coll.CountDocuments(ctx, bson.M{"scoredAt": bson.M{"$exists": true}}); err != nil {
		return stats, err
	}
	if stats.WithErrors, err = r.coll.CountDocuments(ctx, bson.M{"scoringError": bson.M{"$exists": true}}); err != nil {
		return stats, err
	}
	stats.Pending = stats.Total - stats.Scored

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"scoredAt": bson.M{"$exists": true}, "scoringError": bson.M{"$exists": false}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"avgQuality": bson.M{"$avg": "$qualityScore"},
			"avgAi":      bson.M{"$avg": "$aiLikelihood"},
			"avgSpam":    bson.M{"$avg": "$spamScore"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer closeCursor(ctx, cursor)
	var rows []struct {
		AvgQuality float64 `bson:"avgQuality"`
		AvgAI      float64 `bson:"avgAi"`
		AvgSpam    float64 `bson:"avgSpam"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.AverageQuality = rows[0].AvgQuality
		stats.AverageAILikelihood = rows[0].AvgAI
		stats.AverageSpam = rows[0].AvgSpam
	}
	return stats, nil
}

func (r *PostRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]model.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cursor)
	var posts []model.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) updateExisting(ctx context.Context, filter bson.M, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}
