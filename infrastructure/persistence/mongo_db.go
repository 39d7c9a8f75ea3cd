package persistence

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"social-reward-engine/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	postsCollection       = "posts"
	payoutsCollection     = "payouts"
	jobStateCollection    = "job_state"
	configCollection      = "config"
	walletsCollection     = "user_wallets"
)

// NewMongoDb connects using uri when set, otherwise builds one from parts.
func NewMongoDb(uri, host, port, user, password string) (*mongo.Client, error) {
	if uri == "" {
		u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port)}
		if user != "" {
			u.User = url.UserPassword(user, password)
		}
		uri = u.String()
	}
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the unique keys the job semantics depend on, plus
// the sort/filter indexes used by the job queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(name string) *options.IndexOptionsBuilder {
		return options.Index().SetUnique(true).SetName(name)
	}
	plan := map[string][]mongo.IndexModel{
		postsCollection: {
			{Keys: bson.D{{Key: "tweetId", Value: 1}}, Options: unique("uniq_tweet_id")},
			{Keys: bson.D{{Key: "authorId", Value: 1}}},
			{Keys: bson.D{{Key: "crawledAt", Value: -1}}},
			{Keys: bson.D{{Key: "scoredAt", Value: 1}}},
			{Keys: bson.D{{Key: "payoutStatus", Value: 1}}},
		},
		payoutsCollection: {
			{Keys: bson.D{{Key: "tweetId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		jobStateCollection: {
			{Keys: bson.D{{Key: "jobName", Value: 1}}, Options: unique("uniq_job_name")},
		},
		configCollection: {
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: unique("uniq_config_key")},
		},
		walletsCollection: {
			{Keys: bson.D{{Key: "twitterId", Value: 1}, {Key: "network", Value: 1}}, Options: unique("uniq_twitter_network")},
		},
	}
	for coll, models := range plan {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	logger.GetLogger().WithField("database", db.Name()).Info("MongoDB indexes ensured")
	return nil
}

func closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	if err := cursor.Close(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
	}
}
