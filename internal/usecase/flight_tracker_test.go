package usecase

import (
	"context"
	"testing"
	"time"

	"flightwatch-bot/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseStatus() entity.FlightStatus {
	return entity.FlightStatus{
		Designator:         entity.FlightDesignator{CarrierCode: "BA", FlightNumber: "117"},
		DepartureAirport:   "LHR",
		ArrivalAirport:     "JFK",
		ScheduledDeparture: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC),
		ScheduledArrival:   time.Date(2024, 12, 25, 18, 0, 0, 0, time.UTC),
		Terminal:           "5",
		Gate:               "A10",
		State:              entity.FlightScheduled,
	}
}

func TestDetectChanges(t *testing.T) {
	policy := DefaultTrackerPolicy()
	checkedAt := time.Date(2024, 12, 24, 12, 0, 0, 0, time.UTC)
	now := checkedAt.Add(time.Hour)
	previous := &entity.StatusSnapshot{FlightStatus: baseStatus(), CheckedAt: checkedAt}

	tests := []struct {
		name   string
		mutate func(s *entity.FlightStatus)
		now    time.Time
		want   []entity.StatusChange
	}{
		{name: "identical", mutate: func(s *entity.FlightStatus) {}, now: now},
		{name: "departure shift of five minutes", mutate: func(s *entity.FlightStatus) {
			s.ScheduledDeparture = time.Date(2024, 12, 25, 10, 5, 0, 0, time.UTC)
		}, now: now},
		{name: "departure shift of exactly ten minutes", mutate: func(s *entity.FlightStatus) {
			s.ScheduledDeparture = time.Date(2024, 12, 25, 10, 10, 0, 0, time.UTC)
		}, now: now},
		{name: "departure shift of fifteen minutes", mutate: func(s *entity.FlightStatus) {
			s.ScheduledDeparture = time.Date(2024, 12, 25, 10, 15, 0, 0, time.UTC)
		}, now: now, want: []entity.StatusChange{entity.ChangeDeparture}},
		{name: "arrival moved earlier", mutate: func(s *entity.FlightStatus) {
			s.ScheduledArrival = s.ScheduledArrival.Add(-30 * time.Minute)
		}, now: now, want: []entity.StatusChange{entity.ChangeArrival}},
		{name: "arrival time disappears", mutate: func(s *entity.FlightStatus) {
			s.ScheduledArrival = time.Time{}
		}, now: now, want: []entity.StatusChange{entity.ChangeArrival}},
		{name: "gate assigned", mutate: func(s *entity.FlightStatus) { s.Gate = "B32" }, now: now,
			want: []entity.StatusChange{entity.ChangeGate}},
		{name: "terminal cleared", mutate: func(s *entity.FlightStatus) { s.Terminal = "" }, now: now,
			want: []entity.StatusChange{entity.ChangeTerminal}},
		{name: "status changed", mutate: func(s *entity.FlightStatus) { s.State = entity.FlightDelayed }, now: now,
			want: []entity.StatusChange{entity.ChangeState}},
		{name: "designator changed", mutate: func(s *entity.FlightStatus) { s.Designator.FlightNumber = "1517" }, now: now,
			want: []entity.StatusChange{entity.ChangeDesignator}},
		{name: "designator case is ignored", mutate: func(s *entity.FlightStatus) { s.Designator.CarrierCode = "ba" }, now: now},
		{name: "daily heartbeat", mutate: func(s *entity.FlightStatus) {}, now: checkedAt.Add(25 * time.Hour),
			want: []entity.StatusChange{entity.ChangeHeartbeat}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := baseStatus()
			tt.mutate(&current)
			got := DetectChanges(previous, &current, tt.now, policy)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no previous status is a first check", func(t *testing.T) {
		current := baseStatus()
		assert.Equal(t, []entity.StatusChange{entity.ChangeFirstCheck}, DetectChanges(nil, &current, now, policy))
	})
}

func seedTrack(id string, userID int64) *entity.FlightTrack {
	return &entity.FlightTrack{
		ID:           id,
		UserID:       userID,
		CarrierCode:  "BA",
		FlightNumber: "117",
		Date:         "2024-12-25",
		Status:       entity.WatchActive,
	}
}

func TestCheckSingleFlightStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("first check always notifies", func(t *testing.T) {
		h := newHarness(t)
		h.tracks = newFakeTrackRepo(seedTrack("t1", 42))
		h.tracker.trackRepo = h.tracks
		status := baseStatus()
		h.flightData.statuses["BA117@2024-12-25"] = &status

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, sent)

		stored := h.tracks.get("t1")
		require.NotNil(t, stored.LastStatus)
		assert.Equal(t, h.now, stored.LastStatus.CheckedAt)
		assert.Equal(t, "5", stored.LastStatus.Terminal)
		assert.Len(t, h.messenger.messages(), 1)
		assert.Contains(t, h.messenger.last().Text, "BA117")
	})

	t.Run("small shift only records the check", func(t *testing.T) {
		h := newHarness(t)
		track := seedTrack("t1", 42)
		snapshotAt := h.now.Add(-time.Hour)
		track.LastStatus = &entity.StatusSnapshot{FlightStatus: baseStatus(), CheckedAt: snapshotAt}
		h.tracks = newFakeTrackRepo(track)
		h.tracker.trackRepo = h.tracks

		status := baseStatus()
		status.ScheduledDeparture = time.Date(2024, 12, 25, 10, 5, 0, 0, time.UTC)
		h.flightData.statuses["BA117@2024-12-25"] = &status

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, sent)

		stored := h.tracks.get("t1")
		assert.Equal(t, snapshotAt, stored.LastStatus.CheckedAt)
		assert.Equal(t, baseStatus().ScheduledDeparture, stored.LastStatus.ScheduledDeparture)
		require.NotNil(t, stored.LastCheckedAt)
		assert.Equal(t, h.now, *stored.LastCheckedAt)
		assert.Empty(t, h.messenger.messages())
	})

	t.Run("large shift notifies and stores the new snapshot", func(t *testing.T) {
		h := newHarness(t)
		track := seedTrack("t1", 42)
		track.LastStatus = &entity.StatusSnapshot{FlightStatus: baseStatus(), CheckedAt: h.now.Add(-time.Hour)}
		h.tracks = newFakeTrackRepo(track)
		h.tracker.trackRepo = h.tracks

		status := baseStatus()
		status.ScheduledDeparture = time.Date(2024, 12, 25, 10, 15, 0, 0, time.UTC)
		h.flightData.statuses["BA117@2024-12-25"] = &status

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, sent)
		assert.Equal(t, status.ScheduledDeparture, h.tracks.get("t1").LastStatus.ScheduledDeparture)
	})

	t.Run("no status from provider is a no-op", func(t *testing.T) {
		h := newHarness(t)
		h.tracks = newFakeTrackRepo(seedTrack("t1", 42))
		h.tracker.trackRepo = h.tracks

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, sent)
		stored := h.tracks.get("t1")
		assert.Nil(t, stored.LastStatus)
		assert.Nil(t, stored.LastCheckedAt)
	})

	t.Run("provider failure advances the check time", func(t *testing.T) {
		h := newHarness(t)
		h.tracks = newFakeTrackRepo(seedTrack("t1", 42))
		h.tracker.trackRepo = h.tracks
		h.flightData.statusErr = entity.ErrProviderUnavailable

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, sent)
		require.NotNil(t, h.tracks.get("t1").LastCheckedAt)
		assert.Nil(t, h.tracks.get("t1").LastStatus)
	})

	t.Run("missing or inactive tracks are skipped", func(t *testing.T) {
		h := newHarness(t)
		track := seedTrack("t1", 42)
		track.Status = entity.WatchCancelled
		h.tracks = newFakeTrackRepo(track)
		h.tracker.trackRepo = h.tracks

		sent, err := h.tracker.CheckSingleFlightStatus(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, sent)

		sent, err = h.tracker.CheckSingleFlightStatus(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, sent)
		assert.Zero(t, h.flightData.statusHits)
	})
}

func TestStartTrackingMultiSegment(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	h.tracks.rec = rec
	h.flightData.rec = rec

	legs := []entity.TrackRequest{
		{CarrierCode: "BA", FlightNumber: "117", Date: "2024-12-25", Origin: "LHR", Destination: "JFK"},
		{CarrierCode: "AA", FlightNumber: "10", Date: "2024-12-25", Origin: "JFK", Destination: "LAX"},
		{CarrierCode: "HA", FlightNumber: "3", Date: "2024-12-26", Origin: "LAX", Destination: "HNL"},
	}
	for _, leg := range legs {
		status := baseStatus()
		status.Designator = entity.FlightDesignator{CarrierCode: leg.CarrierCode, FlightNumber: leg.FlightNumber}
		h.flightData.statuses[leg.CarrierCode+leg.FlightNumber+"@"+leg.Date] = &status
	}

	tracks, err := h.tracker.StartTracking(context.Background(), 42, legs)
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	parent := tracks[0].ParentRouteKey
	assert.NotEmpty(t, parent)
	for i, track := range tracks {
		assert.Equal(t, i, track.SegmentIndex)
		assert.True(t, track.IsSegment)
		assert.Equal(t, parent, track.ParentRouteKey)
		assert.NotNil(t, h.tracks.get(track.ID).LastStatus, "segment %d was not checked", i)
	}

	assert.Equal(t, []string{
		"create:0", "fetch:BA117",
		"create:1", "fetch:AA10",
		"create:2", "fetch:HA3",
	}, rec.list())
	assert.Len(t, h.messenger.messages(), 3)
}

func TestStartTrackingSingleFlight(t *testing.T) {
	h := newHarness(t)
	tracks, err := h.tracker.StartTracking(context.Background(), 42, []entity.TrackRequest{
		{CarrierCode: "ba", FlightNumber: "117", Date: "2024-12-25"},
	})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.False(t, tracks[0].IsSegment)
	assert.Empty(t, tracks[0].ParentRouteKey)
	assert.Equal(t, "BA", tracks[0].CarrierCode)

	_, err = h.tracker.StartTracking(context.Background(), 42, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestCancelTrack(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels", func(t *testing.T) {
		h := newHarness(t)
		h.tracks = newFakeTrackRepo(seedTrack("t1", 42))
		h.tracker.trackRepo = h.tracks

		require.NoError(t, h.tracker.CancelTrack(ctx, 42, "t1"))
		stored := h.tracks.get("t1")
		assert.Equal(t, entity.WatchCancelled, stored.Status)
		require.NotNil(t, stored.CancelledAt)

		// second cancel is idempotent
		require.NoError(t, h.tracker.CancelTrack(ctx, 42, "t1"))
	})

	t.Run("non owner is rejected", func(t *testing.T) {
		h := newHarness(t)
		h.tracks = newFakeTrackRepo(seedTrack("t1", 42))
		h.tracker.trackRepo = h.tracks

		err := h.tracker.CancelTrack(ctx, 7, "t1")
		assert.ErrorIs(t, err, entity.ErrNotOwner)
		assert.Equal(t, entity.WatchActive, h.tracks.get("t1").Status)
	})

	t.Run("unknown track", func(t *testing.T) {
		h := newHarness(t)
		assert.ErrorIs(t, h.tracker.CancelTrack(ctx, 42, "missing"), entity.ErrNotFound)
	})
}

func TestCancelRoute(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a, b, other := seedTrack("a", 42), seedTrack("b", 42), seedTrack("c", 42)
	a.ParentRouteKey, b.ParentRouteKey = "route-1", "route-1"
	b.SegmentIndex = 1
	h.tracks = newFakeTrackRepo(a, b, other)
	h.tracker.trackRepo = h.tracks

	_, err := h.tracker.CancelRoute(ctx, 7, "route-1")
	assert.ErrorIs(t, err, entity.ErrNotOwner)

	n, err := h.tracker.CancelRoute(ctx, 42, "route-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, entity.WatchCancelled, h.tracks.get("a").Status)
	assert.Equal(t, entity.WatchCancelled, h.tracks.get("b").Status)
	assert.Equal(t, entity.WatchActive, h.tracks.get("c").Status)

	_, err = h.tracker.CancelRoute(ctx, 42, "route-x")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCheckAllTrackedFlightsSkipsWhenRunning(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.tracker.guard.tryAcquire())
	defer h.tracker.guard.release()

	require.NoError(t, h.tracker.CheckAllTrackedFlights(context.Background()))
	assert.Zero(t, h.flightData.statusHits)
}

func TestCheckAllTrackedFlightsExpiresPastTracks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for id, date := range map[string]string{
		"old":       "2024-05-30",
		"overnight": "2024-05-31",
		"today":     "2024-06-01",
	} {
		track := seedTrack(id, testUser)
		track.Date = date
		require.NoError(t, h.tracks.Create(ctx, track))
	}

	require.NoError(t, h.tracker.CheckAllTrackedFlights(ctx))

	assert.Equal(t, entity.WatchExpired, h.tracks.get("old").Status)
	assert.Equal(t, entity.WatchActive, h.tracks.get("overnight").Status)
	assert.Equal(t, entity.WatchActive, h.tracks.get("today").Status)
	assert.Equal(t, 2, h.flightData.statusHits)

	count, err := h.tracks.CountActiveByUser(ctx, testUser)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
