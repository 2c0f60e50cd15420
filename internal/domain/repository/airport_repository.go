package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// AirportRepository defines the interface for airport reference data
type AirportRepository interface {
	GetByAirportCode(ctx context.Context, code string) (*entity.Airport, error)
	SearchByCity(ctx context.Context, city string, limit int) ([]*entity.Airport, error)
}
