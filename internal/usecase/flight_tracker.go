package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"
	"flightwatch-bot/pkg/utils"

	"github.com/google/uuid"
)

// TrackerPolicy sets what counts as a schedule change
type TrackerPolicy struct {
	// ScheduleChangeThreshold is the smallest time shift worth reporting (exclusive)
	ScheduleChangeThreshold time.Duration
	// Heartbeat forces an update when the last notified snapshot is older than this
	Heartbeat time.Duration
}

// trackExpiryGrace keeps a track alive for a day after its date so
// overnight arrivals are still reported
const trackExpiryGrace = 24 * time.Hour

// DefaultTrackerPolicy is a 10 minute threshold and a daily heartbeat
func DefaultTrackerPolicy() TrackerPolicy {
	return TrackerPolicy{ScheduleChangeThreshold: 10 * time.Minute, Heartbeat: 24 * time.Hour}
}

// DetectChanges compares a fresh status with the last notified snapshot.
// An empty result means nothing worth telling the user.
func DetectChanges(previous *entity.StatusSnapshot, current *entity.FlightStatus, now time.Time, policy TrackerPolicy) []entity.StatusChange {
	if previous == nil {
		return []entity.StatusChange{entity.ChangeFirstCheck}
	}

	var changes []entity.StatusChange
	if !previous.Designator.Equal(current.Designator) {
		changes = append(changes, entity.ChangeDesignator)
	}
	if timeShifted(previous.ScheduledDeparture, current.ScheduledDeparture, policy.ScheduleChangeThreshold) {
		changes = append(changes, entity.ChangeDeparture)
	}
	if timeShifted(previous.ScheduledArrival, current.ScheduledArrival, policy.ScheduleChangeThreshold) {
		changes = append(changes, entity.ChangeArrival)
	}
	if fieldChanged(previous.Terminal, current.Terminal) {
		changes = append(changes, entity.ChangeTerminal)
	}
	if fieldChanged(previous.Gate, current.Gate) {
		changes = append(changes, entity.ChangeGate)
	}
	if previous.State != current.State {
		changes = append(changes, entity.ChangeState)
	}
	if policy.Heartbeat > 0 && now.Sub(previous.CheckedAt) > policy.Heartbeat {
		changes = append(changes, entity.ChangeHeartbeat)
	}
	return changes
}

func timeShifted(before, after time.Time, threshold time.Duration) bool {
	if before.IsZero() || after.IsZero() {
		return before.IsZero() != after.IsZero()
	}
	diff := after.Sub(before)
	if diff < 0 {
		diff = -diff
	}
	return diff > threshold
}

func fieldChanged(before, after string) bool {
	before, after = strings.TrimSpace(before), strings.TrimSpace(after)
	if before == "" && after == "" {
		return false
	}
	return !strings.EqualFold(before, after)
}

// FlightTrackerOptions tunes the tracker
type FlightTrackerOptions struct {
	Policy TrackerPolicy
	// Delay between two tracks of one cycle
	Delay time.Duration
	Now   func() time.Time
}

// FlightTracker polls flight schedules for active tracks
type FlightTracker struct {
	trackRepo  repository.FlightTrackRepository
	flightData repository.FlightDataRepository
	notifier   *Notifier
	metrics    *metrics.Metrics
	logger     logger.Logger
	policy     TrackerPolicy
	delay      time.Duration
	now        func() time.Time
	guard      runGuard
}

// NewFlightTracker creates a new flight tracker
func NewFlightTracker(
	trackRepo repository.FlightTrackRepository,
	flightData repository.FlightDataRepository,
	notifier *Notifier,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts FlightTrackerOptions,
) *FlightTracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &FlightTracker{
		trackRepo:  trackRepo,
		flightData: flightData,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		policy:     opts.Policy,
		delay:      opts.Delay,
		now:        opts.Now,
	}
}

// CheckAllTrackedFlights runs one status cycle over every active track.
// Overlapping calls are rejected like the price cycle.
func (t *FlightTracker) CheckAllTrackedFlights(ctx context.Context) error {
	if !t.guard.tryAcquire() {
		t.logger.Warn("Flight check cycle already running, skipping")
		t.metrics.CyclesSkipped.WithLabelValues(metrics.CycleFlight).Inc()
		return nil
	}
	defer t.guard.release()

	start := t.now()
	defer func() {
		t.metrics.CycleDuration.WithLabelValues(metrics.CycleFlight).Observe(time.Since(start).Seconds())
	}()

	cutoff := start.UTC().Add(-trackExpiryGrace).Format(utils.ISO_DATE)
	expired, err := t.trackRepo.ExpireDepartedBefore(ctx, cutoff)
	if err != nil {
		t.logger.Error("Failed to expire departed tracks", "error", err)
		t.metrics.ErrorsCount.WithLabelValues("expire_tracks").Inc()
	} else if expired > 0 {
		t.logger.Info("Expired departed tracks", "count", expired)
	}

	tracks, err := t.trackRepo.FindActive(ctx)
	if err != nil {
		t.metrics.ErrorsCount.WithLabelValues("find_active_tracks").Inc()
		return fmt.Errorf("failed to find active tracks: %w", err)
	}

	t.logger.Info("Starting flight check cycle", "tracks", len(tracks))

	notified := 0
	for i, track := range tracks {
		if i > 0 {
			if err := sleepCtx(ctx, t.delay); err != nil {
				return err
			}
		}
		sent, err := t.CheckSingleFlightStatus(ctx, track.ID)
		if err != nil {
			t.logger.Error("Failed to check flight status", "trackID", track.ID, "error", err)
			t.metrics.ErrorsCount.WithLabelValues("check_track").Inc()
			continue
		}
		if sent {
			notified++
		}
	}

	t.logger.Info("Flight check cycle finished", "tracks", len(tracks), "notified", notified)
	return nil
}

// CheckSingleFlightStatus fetches the current status of one track and
// reports whether a notification was sent.
func (t *FlightTracker) CheckSingleFlightStatus(ctx context.Context, trackID string) (bool, error) {
	track, err := t.trackRepo.FindByID(ctx, trackID)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load track %s: %w", trackID, err)
	}
	if !track.IsActive() {
		return false, nil
	}

	t.metrics.TracksChecked.Inc()

	status, err := t.flightData.FetchStatus(ctx, track.CarrierCode, track.FlightNumber, track.Date)
	now := t.now()
	if err != nil {
		t.logger.Warn("Flight status unavailable",
			"trackID", track.ID,
			"flight", track.Designator().String(),
			"error", err)
		if err := t.trackRepo.MarkChecked(ctx, track.ID, now); err != nil {
			return false, fmt.Errorf("failed to mark track checked: %w", err)
		}
		return false, nil
	}
	if status == nil {
		t.logger.Debug("No status returned for flight", "trackID", track.ID, "flight", track.Designator().String())
		return false, nil
	}

	changes := DetectChanges(track.LastStatus, status, now, t.policy)
	if len(changes) == 0 {
		if err := t.trackRepo.MarkChecked(ctx, track.ID, now); err != nil {
			return false, fmt.Errorf("failed to mark track checked: %w", err)
		}
		return false, nil
	}

	t.notifier.NotifyFlightStatus(ctx, track, status, changes)

	if err := t.trackRepo.UpdateStatusSnapshot(ctx, track.ID, entity.StatusSnapshot{
		FlightStatus: *status,
		CheckedAt:    now,
	}); err != nil {
		return true, fmt.Errorf("failed to store status snapshot: %w", err)
	}
	return true, nil
}

// StartTracking creates one track per requested flight. Several requests
// form a connecting itinerary sharing a route key. Each leg is created and
// status-checked before the next one.
func (t *FlightTracker) StartTracking(ctx context.Context, userID int64, requests []entity.TrackRequest) ([]*entity.FlightTrack, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no flights to track", entity.ErrInvalidInput)
	}

	isSegment := len(requests) > 1
	parentKey := ""
	if isSegment {
		parentKey = uuid.NewString()
	}

	created := make([]*entity.FlightTrack, 0, len(requests))
	for i, req := range requests {
		track := &entity.FlightTrack{
			ID:             uuid.NewString(),
			UserID:         userID,
			CarrierCode:    strings.ToUpper(req.CarrierCode),
			FlightNumber:   strings.ToUpper(req.FlightNumber),
			Date:           req.Date,
			Origin:         req.Origin,
			Destination:    req.Destination,
			Status:         entity.WatchActive,
			CreatedAt:      t.now(),
			IsSegment:      isSegment,
			SegmentIndex:   i,
			ParentRouteKey: parentKey,
		}
		if err := t.trackRepo.Create(ctx, track); err != nil {
			return created, fmt.Errorf("failed to create track for %s: %w", track.Designator().String(), err)
		}
		created = append(created, track)

		t.logger.Info("Flight track created",
			"trackID", track.ID,
			"userID", userID,
			"flight", track.Designator().String(),
			"segment", i)

		if _, err := t.CheckSingleFlightStatus(ctx, track.ID); err != nil {
			t.logger.Warn("Initial status check failed", "trackID", track.ID, "error", err)
		}
	}
	return created, nil
}

// CancelTrack stops one track owned by userID. Cancelling an inactive
// track succeeds without changes.
func (t *FlightTracker) CancelTrack(ctx context.Context, userID int64, trackID string) error {
	track, err := t.trackRepo.FindByIDForUser(ctx, trackID, userID)
	if errors.Is(err, entity.ErrNotFound) {
		track, err = t.trackRepo.FindByID(ctx, trackID)
	}
	if err != nil {
		return err
	}
	if track.UserID != userID {
		t.logger.Warn("Rejected track cancellation by non-owner", "trackID", trackID, "userID", userID)
		return entity.ErrNotOwner
	}
	if !track.IsActive() {
		return nil
	}
	if err := t.trackRepo.Cancel(ctx, track.ID, t.now()); err != nil {
		return fmt.Errorf("failed to cancel track: %w", err)
	}
	t.logger.Info("Flight track cancelled", "trackID", track.ID, "userID", userID)
	return nil
}

// CancelRoute stops every leg of a connecting itinerary and returns how
// many legs were active
func (t *FlightTracker) CancelRoute(ctx context.Context, userID int64, routeKey string) (int, error) {
	tracks, err := t.trackRepo.FindByParentRouteKey(ctx, routeKey)
	if err != nil {
		return 0, err
	}
	if len(tracks) == 0 {
		return 0, entity.ErrNotFound
	}
	for _, track := range tracks {
		if track.UserID != userID {
			return 0, entity.ErrNotOwner
		}
	}

	cancelled := 0
	now := t.now()
	for _, track := range tracks {
		if !track.IsActive() {
			continue
		}
		if err := t.trackRepo.Cancel(ctx, track.ID, now); err != nil {
			return cancelled, fmt.Errorf("failed to cancel track %s: %w", track.ID, err)
		}
		cancelled++
	}
	return cancelled, nil
}

// ListTracks returns the user's active tracks
func (t *FlightTracker) ListTracks(ctx context.Context, userID int64) ([]*entity.FlightTrack, error) {
	return t.trackRepo.FindActiveByUser(ctx, userID)
}

// Running reports whether a flight cycle is in progress
func (t *FlightTracker) Running() bool {
	return t.guard.Running()
}
