package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/utils"
)

const maxAirportChoices = 6

// cities served by several airports
var multiAirportCities = map[string][]entity.Airport{
	"london": {
		{Code: "LHR", Name: "Heathrow", CityName: "London"},
		{Code: "LGW", Name: "Gatwick", CityName: "London"},
		{Code: "STN", Name: "Stansted", CityName: "London"},
		{Code: "LTN", Name: "Luton", CityName: "London"},
	},
	"new york": {
		{Code: "JFK", Name: "John F. Kennedy", CityName: "New York"},
		{Code: "LGA", Name: "LaGuardia", CityName: "New York"},
		{Code: "EWR", Name: "Newark Liberty", CityName: "New York"},
	},
	"paris": {
		{Code: "CDG", Name: "Charles de Gaulle", CityName: "Paris"},
		{Code: "ORY", Name: "Orly", CityName: "Paris"},
	},
	"tokyo": {
		{Code: "HND", Name: "Haneda", CityName: "Tokyo"},
		{Code: "NRT", Name: "Narita", CityName: "Tokyo"},
	},
	"milan": {
		{Code: "MXP", Name: "Malpensa", CityName: "Milan"},
		{Code: "LIN", Name: "Linate", CityName: "Milan"},
	},
	"jakarta": {
		{Code: "CGK", Name: "Soekarno-Hatta", CityName: "Jakarta"},
		{Code: "HLP", Name: "Halim Perdanakusuma", CityName: "Jakarta"},
	},
}

// AirportResolver maps free-text city or airport names to IATA codes
type AirportResolver struct {
	airportRepo repository.AirportRepository
	flightData  repository.FlightDataRepository
	logger      logger.Logger

	mu    sync.RWMutex
	cache map[string][]entity.Airport
}

// NewAirportResolver creates a new airport resolver. airportRepo may be nil.
func NewAirportResolver(airportRepo repository.AirportRepository, flightData repository.FlightDataRepository, logger logger.Logger) *AirportResolver {
	return &AirportResolver{
		airportRepo: airportRepo,
		flightData:  flightData,
		logger:      logger,
		cache:       make(map[string][]entity.Airport),
	}
}

// Resolve returns the airports matching input, best match first. The
// static city table and 3-letter codes are answered locally, everything
// else goes through the reference table and then the provider.
func (r *AirportResolver) Resolve(ctx context.Context, input string) ([]entity.Airport, error) {
	key := strings.ToLower(strings.Join(strings.Fields(input), " "))
	if key == "" {
		return nil, fmt.Errorf("%w: empty airport query", entity.ErrInvalidInput)
	}

	if airports, ok := multiAirportCities[key]; ok {
		return airports, nil
	}
	if code, ok := utils.NormalizeIATA(key); ok {
		return []entity.Airport{r.describe(ctx, code)}, nil
	}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if r.airportRepo != nil {
		airports, err := r.airportRepo.SearchByCity(ctx, key, maxAirportChoices)
		if err != nil {
			r.logger.Warn("Airport reference lookup failed", "query", key, "error", err)
		} else if len(airports) > 0 {
			return r.store(key, derefAirports(airports)), nil
		}
	}

	airports, err := r.flightData.ResolveAirport(ctx, key)
	if err != nil {
		if errors.Is(err, entity.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, err)
	}
	if len(airports) == 0 {
		return nil, nil
	}
	if len(airports) > maxAirportChoices {
		airports = airports[:maxAirportChoices]
	}
	return r.store(key, airports), nil
}

func (r *AirportResolver) describe(ctx context.Context, code string) entity.Airport {
	if r.airportRepo == nil {
		return entity.Airport{Code: code}
	}
	airport, err := r.airportRepo.GetByAirportCode(ctx, code)
	if err != nil {
		return entity.Airport{Code: code}
	}
	return *airport
}

func (r *AirportResolver) store(key string, airports []entity.Airport) []entity.Airport {
	r.mu.Lock()
	r.cache[key] = airports
	r.mu.Unlock()
	return airports
}

func derefAirports(in []*entity.Airport) []entity.Airport {
	out := make([]entity.Airport, 0, len(in))
	for _, a := range in {
		out = append(out, *a)
	}
	return out
}
