package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// PriceHistoryRepository defines the interface for the append-only price log
type PriceHistoryRepository interface {
	Append(ctx context.Context, entry *entity.PriceHistoryEntry) error
	// FindByAlert returns the newest entries first
	FindByAlert(ctx context.Context, alertID string, limit int) ([]*entity.PriceHistoryEntry, error)
	StatsByAlert(ctx context.Context, alertID string) (*entity.PriceStats, error)
}
