package repository

import (
	"context"
	"time"

	"flightwatch-bot/internal/domain/entity"
)

// FlightTrackRepository defines the interface for flight track storage operations
type FlightTrackRepository interface {
	Create(ctx context.Context, track *entity.FlightTrack) error
	FindByID(ctx context.Context, id string) (*entity.FlightTrack, error)
	FindByIDForUser(ctx context.Context, id string, userID int64) (*entity.FlightTrack, error)
	// FindActive returns active tracks of all users ordered by route key and segment index
	FindActive(ctx context.Context) ([]*entity.FlightTrack, error)
	FindActiveByUser(ctx context.Context, userID int64) ([]*entity.FlightTrack, error)
	FindByParentRouteKey(ctx context.Context, key string) ([]*entity.FlightTrack, error)
	CountActiveByUser(ctx context.Context, userID int64) (int64, error)
	UpdateStatusSnapshot(ctx context.Context, id string, snapshot entity.StatusSnapshot) error
	MarkChecked(ctx context.Context, id string, at time.Time) error
	Cancel(ctx context.Context, id string, at time.Time) error
	// ExpireDepartedBefore expires active tracks dated before date (YYYY-MM-DD)
	ExpireDepartedBefore(ctx context.Context, date string) (int64, error)
}
