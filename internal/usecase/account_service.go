package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
)

// Quota limits how many watches a free user may hold. Zero means unlimited.
type Quota struct {
	MaxAlerts int
	MaxTracks int
}

// AccountService manages users and subscription limits
type AccountService struct {
	userRepo  repository.UserRepository
	alertRepo repository.PriceAlertRepository
	trackRepo repository.FlightTrackRepository
	quota     Quota
	now       func() time.Time
	logger    logger.Logger
}

// NewAccountService creates a new account service
func NewAccountService(
	userRepo repository.UserRepository,
	alertRepo repository.PriceAlertRepository,
	trackRepo repository.FlightTrackRepository,
	quota Quota,
	logger logger.Logger,
) *AccountService {
	return &AccountService{
		userRepo:  userRepo,
		alertRepo: alertRepo,
		trackRepo: trackRepo,
		quota:     quota,
		now:       time.Now,
		logger:    logger,
	}
}

// Touch registers the user on first contact and records activity
func (s *AccountService) Touch(ctx context.Context, userID int64, username, firstName string) error {
	user := &entity.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		Tier:      entity.TierFree,
	}
	if err := s.userRepo.Touch(ctx, user, s.now()); err != nil {
		return fmt.Errorf("failed to touch user %d: %w", userID, err)
	}
	return nil
}

// SetSubscription changes a user's tier
func (s *AccountService) SetSubscription(ctx context.Context, userID int64, tier entity.SubscriptionTier, expiry *time.Time) error {
	if tier != entity.TierFree && tier != entity.TierPremium {
		return fmt.Errorf("%w: unknown tier %q", entity.ErrInvalidInput, tier)
	}
	s.logger.Info("Updating subscription", "userID", userID, "tier", tier)
	return s.userRepo.UpdateSubscription(ctx, userID, tier, expiry)
}

// CheckAlertQuota returns entity.ErrLimitReached when the user cannot add another alert
func (s *AccountService) CheckAlertQuota(ctx context.Context, userID int64) error {
	if s.quota.MaxAlerts <= 0 {
		return nil
	}
	premium, err := s.isPremium(ctx, userID)
	if err != nil || premium {
		return err
	}
	count, err := s.alertRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count alerts: %w", err)
	}
	if count >= int64(s.quota.MaxAlerts) {
		return entity.ErrLimitReached
	}
	return nil
}

// CheckTrackQuota returns entity.ErrLimitReached when the user cannot add n more tracks
func (s *AccountService) CheckTrackQuota(ctx context.Context, userID int64, n int) error {
	if s.quota.MaxTracks <= 0 {
		return nil
	}
	premium, err := s.isPremium(ctx, userID)
	if err != nil || premium {
		return err
	}
	count, err := s.trackRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count tracks: %w", err)
	}
	if count+int64(n) > int64(s.quota.MaxTracks) {
		return entity.ErrLimitReached
	}
	return nil
}

func (s *AccountService) isPremium(ctx context.Context, userID int64) (bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user.IsPremium(s.now()), nil
}
