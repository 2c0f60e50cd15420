package repository

import (
	"context"
	"fmt"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository implements the UserRepository interface
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new user repository
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	collection := db.Collection("users")

	ctx := context.Background()
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"lastActiveAt": -1},
	})

	return &MongoUserRepository{
		collection: collection,
	}
}

// Touch upserts the user, leaving tier and creation time alone for known users
func (r *MongoUserRepository) Touch(ctx context.Context, user *entity.User, at time.Time) error {
	tier := user.Tier
	if tier == "" {
		tier = entity.TierFree
	}

	update := bson.M{
		"$set": bson.M{
			"username":     user.Username,
			"firstName":    user.FirstName,
			"lastActiveAt": at,
		},
		"$setOnInsert": bson.M{
			"tier":      tier,
			"createdAt": at,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.ID, err)
	}
	return nil
}

// FindByID finds a user by chat user ID
func (r *MongoUserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateSubscription changes tier and expiry. A nil expiry clears it.
func (r *MongoUserRepository) UpdateSubscription(ctx context.Context, id int64, tier entity.SubscriptionTier, expiry *time.Time) error {
	update := bson.M{"$set": bson.M{"tier": tier}}
	if expiry != nil {
		update["$set"].(bson.M)["subscriptionExpiry"] = *expiry
	} else {
		update["$unset"] = bson.M{"subscriptionExpiry": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
