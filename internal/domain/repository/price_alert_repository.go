package repository

import (
	"context"
	"time"

	"flightwatch-bot/internal/domain/entity"
)

// PriceAlertRepository defines the interface for price alert storage operations
type PriceAlertRepository interface {
	Create(ctx context.Context, alert *entity.PriceAlert) error
	FindByID(ctx context.Context, id string) (*entity.PriceAlert, error)
	FindActiveByUser(ctx context.Context, userID int64) ([]*entity.PriceAlert, error)
	// FindActiveOrderedByLastChecked returns active alerts, least recently checked first
	FindActiveOrderedByLastChecked(ctx context.Context) ([]*entity.PriceAlert, error)
	CountActiveByUser(ctx context.Context, userID int64) (int64, error)
	UpdatePrice(ctx context.Context, id string, update entity.PriceUpdate) error
	MarkChecked(ctx context.Context, id string, at time.Time) error
	UpdateStatus(ctx context.Context, id string, status entity.WatchStatus) error
	// ExpireDepartedBefore moves active alerts departing before date (YYYY-MM-DD) to expired
	ExpireDepartedBefore(ctx context.Context, date string) (int64, error)
}
