package repository

import (
	"context"
	"fmt"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPriceHistoryRepository implements the PriceHistoryRepository interface
type MongoPriceHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoPriceHistoryRepository creates a new price history repository
func NewMongoPriceHistoryRepository(db *mongo.Database) repository.PriceHistoryRepository {
	collection := db.Collection("price_history")

	ctx := context.Background()
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "alertId", Value: 1},
			{Key: "recordedAt", Value: -1},
		},
	})

	return &MongoPriceHistoryRepository{
		collection: collection,
	}
}

// Append inserts one observation
func (r *MongoPriceHistoryRepository) Append(ctx context.Context, entry *entity.PriceHistoryEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}
	return nil
}

// FindByAlert returns up to limit entries, newest first
func (r *MongoPriceHistoryRepository) FindByAlert(ctx context.Context, alertID string, limit int) ([]*entity.PriceHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"alertId": alertID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*entity.PriceHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// StatsByAlert aggregates min, max, average and count over the whole history
func (r *MongoPriceHistoryRepository) StatsByAlert(ctx context.Context, alertID string) (*entity.PriceStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"alertId": alertID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"min":   bson.M{"$min": "$price"},
			"max":   bson.M{"$max": "$price"},
			"avg":   bson.M{"$avg": "$price"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate price stats: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []entity.PriceStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return &entity.PriceStats{}, nil
	}
	return &stats[0], nil
}
