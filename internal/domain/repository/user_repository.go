package repository

import (
	"context"
	"time"

	"flightwatch-bot/internal/domain/entity"
)

// UserRepository defines the interface for user storage operations
type UserRepository interface {
	// Touch creates the user on first contact and refreshes the last-active timestamp
	Touch(ctx context.Context, user *entity.User, at time.Time) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateSubscription(ctx context.Context, id int64, tier entity.SubscriptionTier, expiry *time.Time) error
}
