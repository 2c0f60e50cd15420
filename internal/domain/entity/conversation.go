package entity

import "time"

// Step is a named state of a conversational flow
type Step string

const (
	StepSearchOrigin        Step = "search_origin"
	StepSearchDestination   Step = "search_destination"
	StepSearchDepartureDate Step = "search_departure_date"
	StepSearchReturnDate    Step = "search_return_date"

	StepSelectOriginAirport      Step = "select_origin_airport"
	StepSelectDestinationAirport Step = "select_destination_airport"

	StepTrackMethod      Step = "track_flight_method"
	StepTrackOrigin      Step = "track_flight_origin"
	StepTrackDestination Step = "track_flight_destination"
	StepTrackDate        Step = "track_flight_date"
	StepTrackAirline     Step = "track_flight_airline"
	StepTrackNumber      Step = "track_flight_number"
	StepSelectFlight     Step = "select_flight_to_track"

	StepAlertTargetPrice Step = "alert_target_price"
)

// Flow names the dialog a conversation belongs to
type Flow string

const (
	FlowSearch      Flow = "search"
	FlowTrack       Flow = "track"
	FlowTrackRoute  Flow = "track_route"
	FlowTrackNumber Flow = "track_number"
	FlowAlert       Flow = "alert"
)

// ConversationState is the in-memory progress of one user's dialog
type ConversationState struct {
	Flow      Flow
	Step      Step
	Data      map[string]string
	UpdatedAt time.Time
}

// NewConversationState starts a flow at its first step
func NewConversationState(flow Flow, step Step, now time.Time) *ConversationState {
	return &ConversationState{
		Flow:      flow,
		Step:      step,
		Data:      make(map[string]string),
		UpdatedAt: now,
	}
}

// Clone returns a deep copy
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	data := make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		data[k] = v
	}
	return &ConversationState{Flow: s.Flow, Step: s.Step, Data: data, UpdatedAt: s.UpdatedAt}
}
