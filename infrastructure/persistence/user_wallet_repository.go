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

type UserWalletRepository struct {
	coll *mongo.Collection
}

func NewUserWalletRepository(db *mongo.Database) *UserWalletRepository {
	return &UserWalletRepository{coll: db.Collection(walletsCollection)}
}

func (r *UserWalletRepository) Get(ctx context.Context, twitterID, network string) (*model.UserWallet, error) {
	var wallet model.UserWallet
	err := r.coll.FindOne(ctx, bson.M{"twitterId": twitterID, "network": network}).Decode(&wallet)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *UserWalletRepository) List(ctx context.Context, twitterID string) ([]model.UserWallet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "isPrimary", Value: -1}, {Key: "updatedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"twitterId": twitterID}, opts)
	if err != nil {
		return nil, err
	}
	defer closeCursor(ctx, cursor)
	wallets := []model.UserWallet{}
	if err := cursor.All(ctx, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

// Upsert replaces the address for (twitterID, network). The first wallet
// stored for a network becomes primary.
func (r *UserWalletRepository) Upsert(ctx context.Context, twitterID, network, address string) (*model.UserWallet, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var wallet model.UserWallet
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"twitterId": twitterID, "network": network},
		bson.M{
			"$set":         bson.M{"walletAddress": address, "updatedAt": now},
			"$setOnInsert": bson.M{"isPrimary": true, "createdAt": now},
		},
		opts,
	).Decode(&wallet)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}
