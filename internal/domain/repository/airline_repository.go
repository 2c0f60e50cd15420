package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// AirlineRepository defines the interface for airline reference data
type AirlineRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Airline, error)
	List(ctx context.Context) ([]*entity.Airline, error)
}
