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

// MongoPriceAlertRepository implements the PriceAlertRepository interface
type MongoPriceAlertRepository struct {
	collection *mongo.Collection
}

// NewMongoPriceAlertRepository creates a new MongoDB price alert repository
func NewMongoPriceAlertRepository(db *mongo.Database) repository.PriceAlertRepository {
	collection := db.Collection("price_alerts")

	ctx := context.Background()

	// Per-user listings and quota counts
	ownerIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "status", Value: 1},
		},
	}

	// Batch cycle walks active alerts by staleness
	stalenessIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "lastCheckedAt", Value: 1},
		},
	}

	departureIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "departureDate", Value: 1},
		},
	}

	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		ownerIndex,
		stalenessIndex,
		departureIndex,
	})

	return &MongoPriceAlertRepository{
		collection: collection,
	}
}

// Create stores a new alert
func (r *MongoPriceAlertRepository) Create(ctx context.Context, alert *entity.PriceAlert) error {
	if alert.Status == "" {
		alert.Status = entity.WatchActive
	}
	if _, err := r.collection.InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("failed to insert price alert: %w", err)
	}
	return nil
}

// FindByID finds an alert by ID
func (r *MongoPriceAlertRepository) FindByID(ctx context.Context, id string) (*entity.PriceAlert, error) {
	var alert entity.PriceAlert
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&alert); err != nil {
		return nil, translate(err)
	}
	return &alert, nil
}

// FindActiveByUser lists the active alerts of one user, oldest first
func (r *MongoPriceAlertRepository) FindActiveByUser(ctx context.Context, userID int64) ([]*entity.PriceAlert, error) {
	filter := bson.M{"userId": userID, "status": entity.WatchActive}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// FindActiveOrderedByLastChecked lists active alerts, least recently checked first.
// Alerts never checked carry a null lastCheckedAt and sort ahead of every date.
func (r *MongoPriceAlertRepository) FindActiveOrderedByLastChecked(ctx context.Context) ([]*entity.PriceAlert, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "lastCheckedAt", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	return r.find(ctx, bson.M{"status": entity.WatchActive}, opts)
}

// CountActiveByUser counts the active alerts of one user
func (r *MongoPriceAlertRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "status": entity.WatchActive})
}

// UpdatePrice writes the result of a successful price check
func (r *MongoPriceAlertRepository) UpdatePrice(ctx context.Context, id string, update entity.PriceUpdate) error {
	set := bson.M{
		"currentPrice":  update.Current,
		"lowestPrice":   update.Lowest,
		"lastCheckedAt": update.CheckedAt,
	}
	if update.Currency != "" {
		set["currency"] = update.Currency
	}
	if update.BookingURL != "" {
		set["bookingUrl"] = update.BookingURL
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

// MarkChecked records a check that produced no price
func (r *MongoPriceAlertRepository) MarkChecked(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"lastCheckedAt": at}})
}

// UpdateStatus moves an alert to another lifecycle state
func (r *MongoPriceAlertRepository) UpdateStatus(ctx context.Context, id string, status entity.WatchStatus) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

// ExpireDepartedBefore expires active alerts whose departure date is before date.
// ISO dates compare correctly as strings.
func (r *MongoPriceAlertRepository) ExpireDepartedBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"status":        entity.WatchActive,
			"departureDate": bson.M{"$lt": date},
		},
		bson.M{"$set": bson.M{"status": entity.WatchExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire alerts: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoPriceAlertRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.PriceAlert, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*entity.PriceAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *MongoPriceAlertRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update price alert %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
