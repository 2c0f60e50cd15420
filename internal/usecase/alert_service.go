package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/utils"

	"github.com/google/uuid"
)

const defaultHistoryLimit = 10

// AlertRequest is the validated input for a new price alert
type AlertRequest struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	TargetPrice   float64
}

// AlertHistory is the price log of one alert
type AlertHistory struct {
	Alert   *entity.PriceAlert
	Entries []*entity.PriceHistoryEntry
	Stats   *entity.PriceStats
}

// AlertService manages the lifecycle of price alerts
type AlertService struct {
	alertRepo   repository.PriceAlertRepository
	historyRepo repository.PriceHistoryRepository
	accounts    *AccountService
	logger      logger.Logger
	now         func() time.Time
}

// NewAlertService creates a new alert service
func NewAlertService(
	alertRepo repository.PriceAlertRepository,
	historyRepo repository.PriceHistoryRepository,
	accounts *AccountService,
	logger logger.Logger,
) *AlertService {
	return &AlertService{
		alertRepo:   alertRepo,
		historyRepo: historyRepo,
		accounts:    accounts,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateAlert stores a new active alert after checking the user's quota
func (s *AlertService) CreateAlert(ctx context.Context, userID int64, req AlertRequest) (*entity.PriceAlert, error) {
	origin, ok := utils.NormalizeIATA(req.Origin)
	if !ok {
		return nil, fmt.Errorf("%w: origin %q", entity.ErrInvalidInput, req.Origin)
	}
	destination, ok := utils.NormalizeIATA(req.Destination)
	if !ok {
		return nil, fmt.Errorf("%w: destination %q", entity.ErrInvalidInput, req.Destination)
	}
	if math.IsNaN(req.TargetPrice) || math.IsInf(req.TargetPrice, 0) {
		return nil, fmt.Errorf("%w: target price must be finite", entity.ErrInvalidInput)
	}
	if req.TargetPrice < 0 {
		return nil, fmt.Errorf("%w: negative target price", entity.ErrInvalidInput)
	}
	if err := s.accounts.CheckAlertQuota(ctx, userID); err != nil {
		return nil, err
	}

	alert := &entity.PriceAlert{
		ID:            uuid.NewString(),
		UserID:        userID,
		Origin:        origin,
		Destination:   destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    strings.TrimSpace(req.ReturnDate),
		TargetPrice:   req.TargetPrice,
		Status:        entity.WatchActive,
		BookingURL:    utils.BuildBookingURL(origin, destination, req.DepartureDate, req.ReturnDate),
		CreatedAt:     s.now(),
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.logger.Info("Price alert created",
		"alertID", alert.ID,
		"userID", userID,
		"route", alert.Route(),
		"target", alert.TargetPrice)
	return alert, nil
}

// CancelAlert deactivates an alert owned by userID. History is kept.
func (s *AlertService) CancelAlert(ctx context.Context, userID int64, alertID string) error {
	alert, err := s.owned(ctx, userID, alertID)
	if err != nil {
		return err
	}
	if !alert.IsActive() {
		return nil
	}
	if err := s.alertRepo.UpdateStatus(ctx, alert.ID, entity.WatchCancelled); err != nil {
		return fmt.Errorf("failed to cancel alert: %w", err)
	}
	s.logger.Info("Price alert cancelled", "alertID", alert.ID, "userID", userID)
	return nil
}

// ListActive returns the user's active alerts
func (s *AlertService) ListActive(ctx context.Context, userID int64) ([]*entity.PriceAlert, error) {
	return s.alertRepo.FindActiveByUser(ctx, userID)
}

// History returns the latest price observations and overall statistics
func (s *AlertService) History(ctx context.Context, userID int64, alertID string) (*AlertHistory, error) {
	alert, err := s.owned(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.FindByAlert(ctx, alert.ID, defaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	stats, err := s.historyRepo.StatsByAlert(ctx, alert.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price stats: %w", err)
	}
	return &AlertHistory{Alert: alert, Entries: entries, Stats: stats}, nil
}

func (s *AlertService) owned(ctx context.Context, userID int64, alertID string) (*entity.PriceAlert, error) {
	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert.UserID != userID {
		s.logger.Warn("Rejected alert access by non-owner", "alertID", alertID, "userID", userID)
		return nil, entity.ErrNotOwner
	}
	return alert, nil
}
