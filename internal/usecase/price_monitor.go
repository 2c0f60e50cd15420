package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"
	"flightwatch-bot/pkg/utils"

	"github.com/google/uuid"
)

// DropPolicy sets how large a fall must be to count as significant.
// Both thresholds must be met.
type DropPolicy struct {
	MinAmount  float64
	MinPercent float64
}

// DefaultDropPolicy is 50 currency units and 20 percent
func DefaultDropPolicy() DropPolicy {
	return DropPolicy{MinAmount: 50, MinPercent: 20}
}

// PriceDecision is the outcome of comparing a fresh price with the stored one
type PriceDecision struct {
	Notify bool
	Reason entity.PriceChangeReason
}

// EvaluatePriceChange decides whether a price observation is worth a
// notification. Rules are applied in order and the first match wins:
// any-change mode, target reached, significant drop, first observation.
// The target rule fires when the price crosses the target, so an alert
// sitting below its target does not repeat every cycle.
func EvaluatePriceChange(previous *float64, current, target float64, policy DropPolicy) PriceDecision {
	if target == 0 && previous != nil && current != *previous {
		if current < *previous {
			return PriceDecision{Notify: true, Reason: entity.ReasonPriceDrop}
		}
		return PriceDecision{Notify: true, Reason: entity.ReasonPriceIncrease}
	}

	if current <= target && (previous == nil || *previous > target) {
		return PriceDecision{Notify: true, Reason: entity.ReasonTargetReached}
	}

	if previous != nil && current < *previous && *previous > 0 {
		drop := *previous - current
		percent := drop * 100 / *previous
		if drop >= policy.MinAmount && percent >= policy.MinPercent {
			return PriceDecision{Notify: true, Reason: entity.ReasonSignificantDrop}
		}
	}

	if previous == nil {
		return PriceDecision{Notify: true, Reason: entity.ReasonFirstCheck}
	}

	return PriceDecision{}
}

// PriceCheckResult describes what one alert check did
type PriceCheckResult struct {
	AlertID  string
	Priced   bool
	Price    float64
	Lowest   float64
	Decision PriceDecision
}

// PriceMonitorOptions tunes the monitor
type PriceMonitorOptions struct {
	Policy DropPolicy
	// Delay between two alerts of one cycle
	Delay time.Duration
	Now   func() time.Time
}

// PriceMonitor re-prices active alerts and decides which changes to report
type PriceMonitor struct {
	alertRepo   repository.PriceAlertRepository
	historyRepo repository.PriceHistoryRepository
	flightData  repository.FlightDataRepository
	notifier    *Notifier
	metrics     *metrics.Metrics
	logger      logger.Logger
	policy      DropPolicy
	delay       time.Duration
	now         func() time.Time
	guard       runGuard
}

// NewPriceMonitor creates a new price monitor
func NewPriceMonitor(
	alertRepo repository.PriceAlertRepository,
	historyRepo repository.PriceHistoryRepository,
	flightData repository.FlightDataRepository,
	notifier *Notifier,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts PriceMonitorOptions,
) *PriceMonitor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PriceMonitor{
		alertRepo:   alertRepo,
		historyRepo: historyRepo,
		flightData:  flightData,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
		policy:      opts.Policy,
		delay:       opts.Delay,
		now:         opts.Now,
	}
}

// CheckAllAlerts runs one price cycle. A call made while another cycle is
// running returns immediately without doing anything.
func (m *PriceMonitor) CheckAllAlerts(ctx context.Context) error {
	if !m.guard.tryAcquire() {
		m.logger.Warn("Price check cycle already running, skipping")
		m.metrics.CyclesSkipped.WithLabelValues(metrics.CyclePrice).Inc()
		return nil
	}
	defer m.guard.release()

	start := m.now()
	defer func() {
		m.metrics.CycleDuration.WithLabelValues(metrics.CyclePrice).Observe(time.Since(start).Seconds())
	}()

	today := start.UTC().Format(utils.ISO_DATE)
	expired, err := m.alertRepo.ExpireDepartedBefore(ctx, today)
	if err != nil {
		m.logger.Error("Failed to expire departed alerts", "error", err)
		m.metrics.ErrorsCount.WithLabelValues("expire_alerts").Inc()
	} else if expired > 0 {
		m.logger.Info("Expired departed alerts", "count", expired)
	}

	alerts, err := m.alertRepo.FindActiveOrderedByLastChecked(ctx)
	if err != nil {
		m.metrics.ErrorsCount.WithLabelValues("find_active_alerts").Inc()
		return fmt.Errorf("failed to find active alerts: %w", err)
	}

	m.logger.Info("Starting price check cycle", "alerts", len(alerts))

	for i, alert := range alerts {
		if i > 0 {
			if err := sleepCtx(ctx, m.delay); err != nil {
				return err
			}
		}
		if _, err := m.CheckSingleAlert(ctx, alert.ID); err != nil {
			// one bad alert must not stop the cycle
			m.logger.Error("Failed to check alert", "alertID", alert.ID, "error", err)
			m.metrics.ErrorsCount.WithLabelValues("check_alert").Inc()
		}
	}

	m.logger.Info("Price check cycle finished", "alerts", len(alerts), "duration", time.Since(start).String())
	return nil
}

// CheckSingleAlert re-prices one alert, stores the result and notifies
// when the movement is worth it. A failed or empty search only records
// that the check happened.
func (m *PriceMonitor) CheckSingleAlert(ctx context.Context, alertID string) (*PriceCheckResult, error) {
	alert, err := m.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert %s: %w", alertID, err)
	}
	result := &PriceCheckResult{AlertID: alert.ID}
	if !alert.IsActive() {
		return result, nil
	}

	m.metrics.AlertsChecked.Inc()

	offers, err := m.flightData.SearchOffers(ctx, entity.SearchQuery{
		Origin:        alert.Origin,
		Destination:   alert.Destination,
		DepartureDate: alert.DepartureDate,
		ReturnDate:    alert.ReturnDate,
	})
	checkedAt := m.now()
	if err != nil {
		if !errors.Is(err, entity.ErrProviderUnavailable) {
			m.logger.Error("Offer search failed", "alertID", alert.ID, "error", err)
		} else {
			m.logger.Warn("Offer search unavailable", "alertID", alert.ID, "error", err)
		}
		return result, m.markChecked(ctx, alert.ID, checkedAt)
	}

	cheapest, price, ok := cheapestOffer(offers)
	if !ok {
		m.logger.Info("No priced offers for alert", "alertID", alert.ID, "route", alert.Route())
		return result, m.markChecked(ctx, alert.ID, checkedAt)
	}

	lowest := price
	if alert.LowestPrice != nil && *alert.LowestPrice < lowest {
		lowest = *alert.LowestPrice
	}

	bookingURL := cheapest.BookingURL
	if bookingURL == "" {
		bookingURL = utils.BuildBookingURL(alert.Origin, alert.Destination, alert.DepartureDate, alert.ReturnDate)
	}

	decision := EvaluatePriceChange(alert.CurrentPrice, price, alert.TargetPrice, m.policy)
	result.Priced = true
	result.Price = price
	result.Lowest = lowest
	result.Decision = decision

	if err := m.alertRepo.UpdatePrice(ctx, alert.ID, entity.PriceUpdate{
		Current:    price,
		Lowest:     lowest,
		Currency:   cheapest.Currency,
		BookingURL: bookingURL,
		CheckedAt:  checkedAt,
	}); err != nil {
		return result, fmt.Errorf("failed to update alert price: %w", err)
	}

	if err := m.historyRepo.Append(ctx, &entity.PriceHistoryEntry{
		ID:         uuid.NewString(),
		AlertID:    alert.ID,
		UserID:     alert.UserID,
		Price:      price,
		Currency:   cheapest.Currency,
		Airline:    cheapest.Airline,
		BookingURL: bookingURL,
		RecordedAt: checkedAt,
	}); err != nil {
		m.logger.Error("Failed to append price history", "alertID", alert.ID, "error", err)
		m.metrics.ErrorsCount.WithLabelValues("append_history").Inc()
	}

	if decision.Notify {
		m.notifier.NotifyPriceChange(ctx, PriceChange{
			Alert:      alert,
			Reason:     decision.Reason,
			Previous:   alert.CurrentPrice,
			Current:    price,
			Lowest:     lowest,
			Currency:   cheapest.Currency,
			Airline:    cheapest.Airline,
			BookingURL: bookingURL,
		})
	}

	return result, nil
}

// Running reports whether a price cycle is in progress
func (m *PriceMonitor) Running() bool {
	return m.guard.Running()
}

func (m *PriceMonitor) markChecked(ctx context.Context, alertID string, at time.Time) error {
	if err := m.alertRepo.MarkChecked(ctx, alertID, at); err != nil {
		return fmt.Errorf("failed to mark alert checked: %w", err)
	}
	return nil
}

// cheapestOffer compares offers numerically and skips unparsable prices
func cheapestOffer(offers []entity.Offer) (entity.Offer, float64, bool) {
	var (
		best  entity.Offer
		price float64
		found bool
	)
	for _, offer := range offers {
		amount, err := offer.Amount()
		if err != nil || amount < 0 {
			continue
		}
		if !found || amount < price {
			best, price, found = offer, amount, true
		}
	}
	return best, price, found
}
