package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// FlightDataRepository defines the interface for the external flight data provider.
// Transient failures are reported as entity.ErrProviderUnavailable.
type FlightDataRepository interface {
	SearchOffers(ctx context.Context, query entity.SearchQuery) ([]entity.Offer, error)
	// FetchStatus returns nil without error when the provider has no schedule for the flight
	FetchStatus(ctx context.Context, carrierCode, flightNumber, date string) (*entity.FlightStatus, error)
	ResolveAirport(ctx context.Context, keyword string) ([]entity.Airport, error)
}
