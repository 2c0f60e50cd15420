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

// MongoFlightTrackRepository implements FlightTrackRepository
type MongoFlightTrackRepository struct {
	collection *mongo.Collection
}

// NewMongoFlightTrackRepository creates a new flight track repository
func NewMongoFlightTrackRepository(db *mongo.Database) repository.FlightTrackRepository {
	collection := db.Collection("flight_tracks")

	ctx := context.Background()
	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "parentRouteKey", Value: 1},
				{Key: "segmentIndex", Value: 1},
			},
		},
		// One leg per index inside a connecting itinerary
		{
			Keys: bson.D{
				{Key: "parentRouteKey", Value: 1},
				{Key: "segmentIndex", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isSegment": true}),
		},
	})

	return &MongoFlightTrackRepository{
		collection: collection,
	}
}

// ExpireDepartedBefore expires active tracks whose flight date is before date
func (r *MongoFlightTrackRepository) ExpireDepartedBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"status": entity.WatchActive,
			"date":   bson.M{"$lt": date},
		},
		bson.M{"$set": bson.M{"status": entity.WatchExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire flight tracks: %w", err)
	}
	return result.ModifiedCount, nil
}

var trackOrder = bson.D{
	{Key: "parentRouteKey", Value: 1},
	{Key: "segmentIndex", Value: 1},
	{Key: "createdAt", Value: 1},
}

// Create stores a new track
func (r *MongoFlightTrackRepository) Create(ctx context.Context, track *entity.FlightTrack) error {
	if track.Status == "" {
		track.Status = entity.WatchActive
	}
	if _, err := r.collection.InsertOne(ctx, track); err != nil {
		return fmt.Errorf("failed to insert flight track: %w", err)
	}
	return nil
}

// FindByID finds a track by ID regardless of owner
func (r *MongoFlightTrackRepository) FindByID(ctx context.Context, id string) (*entity.FlightTrack, error) {
	var track entity.FlightTrack
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&track); err != nil {
		return nil, translate(err)
	}
	return &track, nil
}

// FindByIDForUser finds a track owned by userID
func (r *MongoFlightTrackRepository) FindByIDForUser(ctx context.Context, id string, userID int64) (*entity.FlightTrack, error) {
	var track entity.FlightTrack
	if err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&track); err != nil {
		return nil, translate(err)
	}
	return &track, nil
}

// FindActive lists active tracks of all users, legs of one itinerary in segment order
func (r *MongoFlightTrackRepository) FindActive(ctx context.Context) ([]*entity.FlightTrack, error) {
	return r.find(ctx, bson.M{"status": entity.WatchActive}, options.Find().SetSort(trackOrder))
}

// FindActiveByUser lists the active tracks of one user
func (r *MongoFlightTrackRepository) FindActiveByUser(ctx context.Context, userID int64) ([]*entity.FlightTrack, error) {
	filter := bson.M{"userId": userID, "status": entity.WatchActive}
	return r.find(ctx, filter, options.Find().SetSort(trackOrder))
}

// FindByParentRouteKey lists every leg of a connecting itinerary
func (r *MongoFlightTrackRepository) FindByParentRouteKey(ctx context.Context, key string) ([]*entity.FlightTrack, error) {
	opts := options.Find().SetSort(bson.D{{Key: "segmentIndex", Value: 1}})
	return r.find(ctx, bson.M{"parentRouteKey": key}, opts)
}

// CountActiveByUser counts the active tracks of one user
func (r *MongoFlightTrackRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "status": entity.WatchActive})
}

// UpdateStatusSnapshot stores the status the user was just notified about.
// Route codes unknown at creation are filled from the status.
func (r *MongoFlightTrackRepository) UpdateStatusSnapshot(ctx context.Context, id string, snapshot entity.StatusSnapshot) error {
	set := bson.M{
		"lastStatus":    snapshot,
		"lastCheckedAt": snapshot.CheckedAt,
	}
	if snapshot.DepartureAirport != "" {
		set["origin"] = snapshot.DepartureAirport
	}
	if snapshot.ArrivalAirport != "" {
		set["destination"] = snapshot.ArrivalAirport
	}
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// MarkChecked records a quiet check
func (r *MongoFlightTrackRepository) MarkChecked(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastCheckedAt": at}})
}

// Cancel deactivates a track. Cancelling a track that is no longer active is a no-op.
func (r *MongoFlightTrackRepository) Cancel(ctx context.Context, id string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": entity.WatchActive},
		bson.M{"$set": bson.M{
			"status":      entity.WatchCancelled,
			"cancelledAt": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel flight track %s: %w", id, err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *MongoFlightTrackRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.FlightTrack, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tracks []*entity.FlightTrack
	if err := cursor.All(ctx, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *MongoFlightTrackRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update flight track: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrNotFound
	}
	return nil
}
