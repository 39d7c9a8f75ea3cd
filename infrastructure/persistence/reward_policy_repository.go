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

// RewardPolicyRepository keeps the policy as a single keyed document in the
// config collection.
type RewardPolicyRepository struct {
	coll *mongo.Collection
}

func NewRewardPolicyRepository(db *mongo.Database) *RewardPolicyRepository {
	return &RewardPolicyRepository{coll: db.Collection(configCollection)}
}

func (r *RewardPolicyRepository) GetOrCreate(ctx context.Context, defaults model.RewardPolicy) (*model.RewardPolicy, error) {
	onInsert := bson.M{
		"minQualityScore": defaults.MinQualityScore,
		"maxAiLikelihood": defaults.MaxAILikelihood,
		"baseAmount":      defaults.BaseAmount,
		"token":           defaults.Token,
		"minMultiplier":   defaults.MinMultiplier,
		"updatedAt":       time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var policy model.RewardPolicy
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"key": model.RewardPolicyKey},
		bson.M{"$setOnInsert": onInsert},
		opts,
	).Decode(&policy)
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *RewardPolicyRepository) Update(ctx context.Context, update model.RewardPolicyUpdate) (*model.RewardPolicy, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.MinQualityScore != nil {
		set["minQualityScore"] = *update.MinQualityScore
	}
	if update.MaxAILikelihood != nil {
		set["maxAiLikelihood"] = *update.MaxAILikelihood
	}
	if update.BaseAmount != nil {
		set["baseAmount"] = *update.BaseAmount
	}
	if update.Token != nil {
		set["token"] = *update.Token
	}
	if update.MinMultiplier != nil {
		set["minMultiplier"] = *update.MinMultiplier
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var policy model.RewardPolicy
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"key": model.RewardPolicyKey}, bson.M{"$set": set}, opts).Decode(&policy)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}
