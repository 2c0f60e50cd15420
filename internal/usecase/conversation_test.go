package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"flightwatch-bot/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 42

func say(t *testing.T, h *harness, text string) {
	t.Helper()
	handled, err := h.conversation.HandleText(context.Background(), entity.IncomingMessage{UserID: testUser, Text: text})
	require.NoError(t, err)
	require.True(t, handled, "no conversation for %q", text)
}

func press(h *harness, kind entity.CallbackKind, args ...string) string {
	return h.conversation.HandleCallback(context.Background(), testUser, entity.NewCallbackAction(kind, args...))
}

func currentStep(h *harness) entity.Step {
	state := h.sessions.peek(testUser)
	if state == nil {
		return ""
	}
	return state.Step
}

func TestSearchFlow(t *testing.T) {
	h := newHarness(t)
	h.flightData.offers = []entity.Offer{
		{Price: "640.00", Currency: "USD", Airline: "AA"},
		{Price: "512.30", Currency: "USD", Airline: "BA"},
	}

	require.NoError(t, h.conversation.StartSearch(context.Background(), testUser))
	assert.Equal(t, entity.StepSearchOrigin, currentStep(h))

	say(t, h, "lhr")
	assert.Equal(t, entity.StepSearchDestination, currentStep(h))

	say(t, h, "New York")
	assert.Equal(t, entity.StepSelectDestinationAirport, currentStep(h))
	assert.Len(t, h.messenger.last().Keyboard, 3)

	assert.Empty(t, press(h, entity.CallbackAirport, "destination", "JFK"))
	assert.Equal(t, entity.StepSearchDepartureDate, currentStep(h))

	say(t, h, "25/12/2024")
	assert.Equal(t, entity.StepSearchReturnDate, currentStep(h))
	assert.Equal(t, "2024-12-25", h.sessions.peek(testUser).Data[keyDepartureDate])

	say(t, h, "oneway")
	assert.Nil(t, h.sessions.peek(testUser))

	result := h.messenger.last()
	assert.Contains(t, result.Text, "LHR → JFK")
	assert.Less(t, indexOf(result.Text, "512.30"), indexOf(result.Text, "640.00"))
	require.Len(t, result.Keyboard, 1)
	action := result.Keyboard[0][0].Action
	assert.Equal(t, entity.CallbackAlertNew, action.Kind)
	assert.Equal(t, []string{"LHR", "JFK", "2024-12-25", ""}, action.Args)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestSearchFlowValidation(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.conversation.StartSearch(context.Background(), testUser))
	say(t, h, "LHR")

	t.Run("same airport twice", func(t *testing.T) {
		say(t, h, "LHR")
		assert.Equal(t, entity.StepSearchDestination, currentStep(h))
		assert.Contains(t, h.messenger.last().Text, "must be different")
	})

	say(t, h, "JFK")

	t.Run("malformed date keeps the step", func(t *testing.T) {
		before := h.sessions.peek(testUser)
		say(t, h, "next friday")
		assert.Equal(t, before, h.sessions.peek(testUser))
		assert.Contains(t, h.messenger.last().Text, "could not read that date")
	})

	t.Run("past date", func(t *testing.T) {
		say(t, h, "2024-05-01")
		assert.Equal(t, entity.StepSearchDepartureDate, currentStep(h))
		assert.Contains(t, h.messenger.last().Text, "in the future")
	})

	t.Run("beyond horizon", func(t *testing.T) {
		say(t, h, "2025-06-01")
		assert.Equal(t, entity.StepSearchDepartureDate, currentStep(h))
		assert.Contains(t, h.messenger.last().Text, "330 days")
	})

	say(t, h, "2024-12-25")

	t.Run("return before departure", func(t *testing.T) {
		say(t, h, "20-12-2024")
		assert.Equal(t, entity.StepSearchReturnDate, currentStep(h))
		assert.Contains(t, h.messenger.last().Text, "after the departure")
	})

	t.Run("no flights ends the flow", func(t *testing.T) {
		say(t, h, "05-01-2025")
		assert.Nil(t, h.sessions.peek(testUser))
		assert.Equal(t, msgNoFlights, h.messenger.last().Text)
	})
}

func TestConversationAbortsOnUnexpectedError(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.conversation.StartSearch(context.Background(), testUser))

	h.sessions.setErr = errors.New("store down")
	say(t, h, "LHR")

	assert.Nil(t, h.sessions.peek(testUser))
	assert.Equal(t, msgGenericFailure, h.messenger.last().Text)
}

func TestSearchFailureAbortsFlow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.conversation.StartSearch(context.Background(), testUser))
	say(t, h, "LHR")
	say(t, h, "JFK")
	say(t, h, "2024-12-25")

	h.flightData.searchErr = entity.ErrProviderUnavailable
	say(t, h, "oneway")

	assert.Nil(t, h.sessions.peek(testUser))
	assert.Equal(t, msgGenericFailure, h.messenger.last().Text)
}

func TestHandleTextWithoutConversation(t *testing.T) {
	h := newHarness(t)
	handled, err := h.conversation.HandleText(context.Background(), entity.IncomingMessage{UserID: testUser, Text: "hello"})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, msgSelectionExpired, press(h, entity.CallbackAirport, "origin", "LHR"))
}

func TestTrackByFlightNumber(t *testing.T) {
	status := baseStatus()

	t.Run("verified flight is tracked", func(t *testing.T) {
		h := newHarness(t)
		h.flightData.statuses["BA117@2024-12-25"] = &status

		require.NoError(t, h.conversation.StartTracking(context.Background(), testUser))
		assert.Equal(t, entity.StepTrackMethod, currentStep(h))
		assert.Len(t, h.messenger.last().Keyboard, 2)

		press(h, entity.CallbackTrackMethod, "number")
		assert.Equal(t, entity.StepTrackAirline, currentStep(h))

		say(t, h, "Klingon Express")
		assert.Equal(t, entity.StepTrackAirline, currentStep(h))

		say(t, h, "british airways")
		assert.Equal(t, entity.StepTrackNumber, currentStep(h))
		assert.Equal(t, "BA", h.sessions.peek(testUser).Data[keyCarrier])

		say(t, h, "flight one")
		assert.Equal(t, entity.StepTrackNumber, currentStep(h))

		say(t, h, "BA117")
		assert.Equal(t, entity.StepTrackDate, currentStep(h))

		say(t, h, "25-12-24")
		assert.Nil(t, h.sessions.peek(testUser))

		tracks, err := h.tracks.FindActiveByUser(context.Background(), testUser)
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "117", tracks[0].FlightNumber)
		assert.Equal(t, "LHR", tracks[0].Origin)
		assert.Equal(t, "JFK", tracks[0].Destination)
		assert.NotNil(t, tracks[0].LastStatus)
		assert.Contains(t, h.messenger.last().Text, "Tracking BA117")
	})

	t.Run("unknown flight ends the flow", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.conversation.StartTracking(context.Background(), testUser))
		say(t, h, "2")
		say(t, h, "BA")
		say(t, h, "999")
		say(t, h, "2024-12-25")

		assert.Nil(t, h.sessions.peek(testUser))
		assert.Equal(t, msgFlightNotFound, h.messenger.last().Text)
		n, _ := h.tracks.CountActiveByUser(context.Background(), testUser)
		assert.Zero(t, n)
	})
}

func TestTrackByRoute(t *testing.T) {
	h := newHarness(t)
	h.flightData.offers = []entity.Offer{{
		Price:    "300.00",
		Currency: "USD",
		Segments: []entity.Segment{
			{CarrierCode: "BA", FlightNumber: "117", DepartureAirport: "LHR", ArrivalAirport: "JFK",
				DepartureTime: time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)},
			{CarrierCode: "AA", FlightNumber: "10", DepartureAirport: "JFK", ArrivalAirport: "LAX",
				DepartureTime: time.Date(2024, 12, 25, 20, 0, 0, 0, time.UTC)},
		},
	}}

	require.NoError(t, h.conversation.StartTracking(context.Background(), testUser))
	say(t, h, "route")
	assert.Equal(t, entity.StepTrackOrigin, currentStep(h))
	say(t, h, "LHR")
	assert.Equal(t, entity.StepTrackDestination, currentStep(h))
	say(t, h, "LAX")
	assert.Equal(t, entity.StepTrackDate, currentStep(h))
	say(t, h, "2024-12-25")
	assert.Equal(t, entity.StepSelectFlight, currentStep(h))
	assert.Len(t, h.messenger.last().Keyboard, 1)

	say(t, h, "7")
	assert.Equal(t, entity.StepSelectFlight, currentStep(h))

	say(t, h, "1")
	assert.Nil(t, h.sessions.peek(testUser))

	tracks, err := h.tracks.FindActiveByUser(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, tracks[0].ParentRouteKey, tracks[1].ParentRouteKey)
	assert.Equal(t, "BA", tracks[0].CarrierCode)
	assert.Equal(t, 1, tracks[1].SegmentIndex)
	assert.Equal(t, "JFK", tracks[1].Origin)
}

func TestTrackQuota(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 5; i++ {
		track := seedTrack(string(rune('a'+i)), testUser)
		require.NoError(t, h.tracks.Create(context.Background(), track))
	}
	h.flightData.statuses["BA117@2024-12-25"] = func() *entity.FlightStatus { s := baseStatus(); return &s }()

	require.NoError(t, h.conversation.StartTracking(context.Background(), testUser))
	press(h, entity.CallbackTrackMethod, "number")
	say(t, h, "BA")
	say(t, h, "117")
	say(t, h, "2024-12-25")

	assert.Nil(t, h.sessions.peek(testUser))
	assert.Equal(t, msgLimitReached, h.messenger.last().Text)
	n, _ := h.tracks.CountActiveByUser(context.Background(), testUser)
	assert.Equal(t, int64(5), n)
}

func TestAlertFlow(t *testing.T) {
	t.Run("creates an alert from search results", func(t *testing.T) {
		h := newHarness(t)
		assert.Empty(t, press(h, entity.CallbackAlertNew, "LHR", "JFK", "2024-12-25", "2025-01-05"))
		assert.Equal(t, entity.StepAlertTargetPrice, currentStep(h))

		say(t, h, "cheap please")
		assert.Equal(t, entity.StepAlertTargetPrice, currentStep(h))

		say(t, h, "350")
		assert.Nil(t, h.sessions.peek(testUser))

		alerts, err := h.alerts.FindActiveByUser(context.Background(), testUser)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
		assert.Equal(t, 350.0, alerts[0].TargetPrice)
		assert.Equal(t, "2025-01-05", alerts[0].ReturnDate)
		assert.Nil(t, alerts[0].CurrentPrice)
		assert.Contains(t, h.messenger.last().Text, "Alert created")
	})

	t.Run("stale button is rejected", func(t *testing.T) {
		h := newHarness(t)
		assert.Equal(t, msgSelectionExpired, press(h, entity.CallbackAlertNew, "LHR", "JFK", "2024-01-01", ""))
		assert.Nil(t, h.sessions.peek(testUser))
	})

	t.Run("free tier limit", func(t *testing.T) {
		h := newHarness(t)
		for i := 0; i < 3; i++ {
			require.NoError(t, h.alerts.Create(context.Background(), activeAlert(string(rune('a'+i)), nil, nil, 0)))
		}
		press(h, entity.CallbackAlertNew, "LHR", "JFK", "2024-12-25", "")
		assert.Nil(t, h.sessions.peek(testUser))
		assert.Equal(t, msgLimitReached, h.messenger.last().Text)
	})

	t.Run("premium users are not limited", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.users.UpdateSubscription(context.Background(), testUser, entity.TierPremium, nil))
		for i := 0; i < 3; i++ {
			require.NoError(t, h.alerts.Create(context.Background(), activeAlert(string(rune('a'+i)), nil, nil, 0)))
		}
		press(h, entity.CallbackAlertNew, "LHR", "JFK", "2024-12-25", "")
		assert.Equal(t, entity.StepAlertTargetPrice, currentStep(h))
	})
}

func TestCancelConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cancelled, err := h.conversation.Cancel(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, cancelled)

	require.NoError(t, h.conversation.StartSearch(ctx, testUser))
	cancelled, err = h.conversation.Cancel(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Nil(t, h.sessions.peek(testUser))
}
