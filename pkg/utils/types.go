package utils

import "time"

// Constants
const (
	// ISO_DATE is the canonical calendar date layout
	ISO_DATE = "2006-01-02"

	// ONE_WAY opts out of a return date
	ONE_WAY = "oneway"

	// DEFAULT_BOOKING_HORIZON_DAYS is how far ahead the provider sells seats
	DEFAULT_BOOKING_HORIZON_DAYS = 330
)

// accepted user date layouts, tried in order
var dateLayouts = []string{
	ISO_DATE,
	"02-01-06",
	"02-01-2006",
	"02/01/2006",
}

// SegmentRef is a compact reference to one leg of an offer itinerary
type SegmentRef struct {
	CarrierCode  string
	FlightNumber string
	From         string
	To           string
	Date         string
}

// DateWindow bounds acceptable travel dates
type DateWindow struct {
	Today       time.Time
	HorizonDays int
}
