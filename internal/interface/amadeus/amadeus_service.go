package amadeus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	endpointOffers    = "flight_offers"
	endpointSchedule  = "flight_status"
	endpointLocations = "locations"

	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// AmadeusOptions tunes the provider client
type AmadeusOptions struct {
	BaseURL      string
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Timeout      time.Duration
	MaxOffers    int
}

// AmadeusService talks to the Amadeus self-service APIs
type AmadeusService struct {
	client    *resty.Client
	metrics   *metrics.Metrics
	logger    logger.Logger
	maxOffers int
}

var _ repository.FlightDataRepository = (*AmadeusService)(nil)

// NewAmadeusService creates a new Amadeus client. Requests are authorised by
// tokenSource; transport errors, 429 and 5xx responses are retried with backoff.
func NewAmadeusService(ctx context.Context, tokenSource oauth2.TokenSource, metrics *metrics.Metrics, logger logger.Logger, opts AmadeusOptions) *AmadeusService {
	client := resty.New()
	if tokenSource != nil {
		client = resty.NewWithClient(oauth2.NewClient(ctx, tokenSource))
	}

	client.
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/vnd.amadeus+json, application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		})

	maxOffers := opts.MaxOffers
	if maxOffers <= 0 {
		maxOffers = 10
	}

	return &AmadeusService{
		client:    client,
		metrics:   metrics,
		logger:    logger,
		maxOffers: maxOffers,
	}
}

// SearchOffers returns priced itineraries for one adult
func (s *AmadeusService) SearchOffers(ctx context.Context, query entity.SearchQuery) ([]entity.Offer, error) {
	params := map[string]string{
		"originLocationCode":      query.Origin,
		"destinationLocationCode": query.Destination,
		"departureDate":           query.DepartureDate,
		"adults":                  "1",
		"max":                     strconv.Itoa(s.maxOffers),
	}
	if query.ReturnDate != "" {
		params["returnDate"] = query.ReturnDate
	}

	var result offersResponse
	status, err := s.get(ctx, endpointOffers, "/v2/shopping/flight-offers", params, &result)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	offers := toOffers(&result, query)
	s.logger.Debug("Flight offers fetched",
		"origin", query.Origin,
		"destination", query.Destination,
		"date", query.DepartureDate,
		"count", len(offers))
	return offers, nil
}

// FetchStatus returns the schedule of one flight on date, or nil when the
// provider does not know it
func (s *AmadeusService) FetchStatus(ctx context.Context, carrierCode, flightNumber, date string) (*entity.FlightStatus, error) {
	params := map[string]string{
		"carrierCode":            carrierCode,
		"flightNumber":           flightNumber,
		"scheduledDepartureDate": date,
	}

	var result scheduleResponse
	status, err := s.get(ctx, endpointSchedule, "/v2/schedule/flights", params, &result)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(result.Data) == 0 {
		return nil, nil
	}
	return toFlightStatus(result.Data[0]), nil
}

// ResolveAirport looks up airports matching a city or airport keyword
func (s *AmadeusService) ResolveAirport(ctx context.Context, keyword string) ([]entity.Airport, error) {
	params := map[string]string{
		"subType":     "AIRPORT,CITY",
		"keyword":     strings.ToUpper(strings.TrimSpace(keyword)),
		"page[limit]": "10",
		"view":        "LIGHT",
	}

	var result locationsResponse
	status, err := s.get(ctx, endpointLocations, "/v1/reference-data/locations", params, &result)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return toAirports(&result), nil
}

// get performs one request. 404 is reported through the status, other
// failures as errors wrapping entity.ErrProviderUnavailable when transient.
func (s *AmadeusService) get(ctx context.Context, endpoint, path string, params map[string]string, out interface{}) (int, error) {
	var apiErr errorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		SetError(&apiErr).
		Get(path)
	if err != nil {
		s.record(endpoint, outcomeError)
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %s: %v", entity.ErrProviderUnavailable, endpoint, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		s.record(endpoint, outcomeNotFound)
		return code, nil
	case code == http.StatusTooManyRequests || code == http.StatusUnauthorized || code >= http.StatusInternalServerError:
		s.record(endpoint, outcomeError)
		return code, fmt.Errorf("%w: %s returned status %d %s", entity.ErrProviderUnavailable, endpoint, code, apiErr.String())
	case resp.IsError():
		s.record(endpoint, outcomeError)
		return code, fmt.Errorf("%s rejected request with status %d: %s", endpoint, code, apiErr.String())
	default:
		s.record(endpoint, outcomeOK)
		return code, nil
	}
}

func (s *AmadeusService) record(endpoint, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
}
