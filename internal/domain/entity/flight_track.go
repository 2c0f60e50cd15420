// internal/domain/entity/flight_track.go
package entity

import "time"

// StatusSnapshot is the last flight status the user was notified about
type StatusSnapshot struct {
	FlightStatus `bson:",inline"`
	CheckedAt    time.Time `bson:"checkedAt"`
}

// StatusChange names one observed difference between two flight statuses
type StatusChange string

const (
	ChangeFirstCheck StatusChange = "first_check"
	ChangeDesignator StatusChange = "designator"
	ChangeDeparture  StatusChange = "departure_time"
	ChangeArrival    StatusChange = "arrival_time"
	ChangeTerminal   StatusChange = "terminal"
	ChangeGate       StatusChange = "gate"
	ChangeState      StatusChange = "status"
	ChangeHeartbeat  StatusChange = "daily_update"
)

// FlightTrack is a standing watch over one flight's schedule.
// Connecting itineraries produce one track per leg sharing ParentRouteKey.
type FlightTrack struct {
	ID             string          `bson:"_id"`
	UserID         int64           `bson:"userId"`
	CarrierCode    string          `bson:"carrierCode"`
	FlightNumber   string          `bson:"flightNumber"`
	Date           string          `bson:"date"`
	Origin         string          `bson:"origin,omitempty"`
	Destination    string          `bson:"destination,omitempty"`
	LastStatus     *StatusSnapshot `bson:"lastStatus,omitempty"`
	Status         WatchStatus     `bson:"status"`
	CreatedAt      time.Time       `bson:"createdAt"`
	CancelledAt    *time.Time      `bson:"cancelledAt,omitempty"`
	LastCheckedAt  *time.Time      `bson:"lastCheckedAt,omitempty"`
	IsSegment      bool            `bson:"isSegment"`
	SegmentIndex   int             `bson:"segmentIndex"`
	ParentRouteKey string          `bson:"parentRouteKey,omitempty"`
}

// IsActive reports whether the track is still being polled
func (t *FlightTrack) IsActive() bool {
	return t.Status == WatchActive
}

// Designator returns the tracked flight designator
func (t *FlightTrack) Designator() FlightDesignator {
	return FlightDesignator{CarrierCode: t.CarrierCode, FlightNumber: t.FlightNumber}
}

// TrackRequest asks for one flight to be tracked
type TrackRequest struct {
	CarrierCode  string
	FlightNumber string
	Date         string
	Origin       string
	Destination  string
}
