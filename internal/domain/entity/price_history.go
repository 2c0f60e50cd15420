package entity

import "time"

// PriceHistoryEntry is an append-only price observation for an alert
type PriceHistoryEntry struct {
	ID         string    `bson:"_id"`
	AlertID    string    `bson:"alertId"`
	UserID     int64     `bson:"userId"`
	Price      float64   `bson:"price"`
	Currency   string    `bson:"currency,omitempty"`
	Airline    string    `bson:"airline,omitempty"`
	BookingURL string    `bson:"bookingUrl,omitempty"`
	RecordedAt time.Time `bson:"recordedAt"`
}

// PriceStats summarises the price history of one alert
type PriceStats struct {
	Count   int64   `bson:"count"`
	Min     float64 `bson:"min"`
	Max     float64 `bson:"max"`
	Average float64 `bson:"avg"`
}
