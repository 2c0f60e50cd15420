// internal/domain/entity/flight.go
package entity

import (
	"strconv"
	"strings"
	"time"
)

// SearchQuery describes a flight offer search
type SearchQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
}

// Segment is one leg of an offer itinerary
type Segment struct {
	CarrierCode      string
	FlightNumber     string
	DepartureAirport string
	ArrivalAirport   string
	DepartureTime    time.Time
	ArrivalTime      time.Time
}

// Designator returns the carrier code and number, e.g. "BA117"
func (s Segment) Designator() string {
	return s.CarrierCode + s.FlightNumber
}

// Offer is a priced itinerary returned by the flight data provider.
// Price is kept as the provider's decimal string.
type Offer struct {
	Price      string
	Currency   string
	Airline    string
	Segments   []Segment
	BookingURL string
}

// Amount parses the decimal price string
func (o Offer) Amount() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(o.Price), 64)
}

// FlightDesignator identifies a flight by carrier and number
type FlightDesignator struct {
	CarrierCode  string `bson:"carrierCode"`
	FlightNumber string `bson:"flightNumber"`
}

// String returns the designator as printed on boarding passes
func (d FlightDesignator) String() string {
	return d.CarrierCode + d.FlightNumber
}

// Equal compares designators ignoring case and surrounding space
func (d FlightDesignator) Equal(other FlightDesignator) bool {
	return strings.EqualFold(strings.TrimSpace(d.CarrierCode), strings.TrimSpace(other.CarrierCode)) &&
		strings.EqualFold(strings.TrimSpace(d.FlightNumber), strings.TrimSpace(other.FlightNumber))
}

// FlightState is the operational status of a flight
type FlightState string

const (
	FlightScheduled FlightState = "scheduled"
	FlightDelayed   FlightState = "delayed"
	FlightBoarding  FlightState = "boarding"
	FlightDeparted  FlightState = "departed"
	FlightLanded    FlightState = "landed"
	FlightCancelled FlightState = "cancelled"
	FlightDiverted  FlightState = "diverted"
	FlightUnknown   FlightState = "unknown"
)

// FlightStatus is the provider's view of a flight on a given date
type FlightStatus struct {
	Designator         FlightDesignator `bson:"designator"`
	DepartureAirport   string           `bson:"departureAirport"`
	ArrivalAirport     string           `bson:"arrivalAirport"`
	ScheduledDeparture time.Time        `bson:"scheduledDeparture"`
	ScheduledArrival   time.Time        `bson:"scheduledArrival"`
	ActualDeparture    time.Time        `bson:"actualDeparture,omitempty"`
	ActualArrival      time.Time        `bson:"actualArrival,omitempty"`
	Terminal           string           `bson:"terminal,omitempty"`
	Gate               string           `bson:"gate,omitempty"`
	State              FlightState      `bson:"state"`
}
