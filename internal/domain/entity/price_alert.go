// internal/domain/entity/price_alert.go
package entity

import (
	"fmt"
	"time"
)

// PriceChangeReason explains why a price alert notification fired
type PriceChangeReason string

const (
	ReasonPriceDrop       PriceChangeReason = "price_drop"
	ReasonPriceIncrease   PriceChangeReason = "price_increase"
	ReasonTargetReached   PriceChangeReason = "target_reached"
	ReasonSignificantDrop PriceChangeReason = "significant_drop"
	ReasonFirstCheck      PriceChangeReason = "first_check"
)

// PriceAlert is a standing watch over a route and travel dates.
// A TargetPrice of zero means "notify on any price change".
type PriceAlert struct {
	ID            string      `bson:"_id"`
	UserID        int64       `bson:"userId"`
	Origin        string      `bson:"origin"`
	Destination   string      `bson:"destination"`
	DepartureDate string      `bson:"departureDate"`
	ReturnDate    string      `bson:"returnDate,omitempty"`
	TargetPrice   float64     `bson:"targetPrice"`
	CurrentPrice  *float64    `bson:"currentPrice"`
	LowestPrice   *float64    `bson:"lowestPrice"`
	Currency      string      `bson:"currency,omitempty"`
	Status        WatchStatus `bson:"status"`
	BookingURL    string      `bson:"bookingUrl,omitempty"`
	CreatedAt     time.Time   `bson:"createdAt"`
	LastCheckedAt *time.Time  `bson:"lastCheckedAt"`
}

// IsActive reports whether the alert is still being monitored
func (a *PriceAlert) IsActive() bool {
	return a.Status == WatchActive
}

// Route returns a short human readable route label
func (a *PriceAlert) Route() string {
	if a.ReturnDate != "" {
		return fmt.Sprintf("%s ⇄ %s", a.Origin, a.Destination)
	}
	return fmt.Sprintf("%s → %s", a.Origin, a.Destination)
}

// PriceUpdate carries the fields written after a successful price check
type PriceUpdate struct {
	Current    float64
	Lowest     float64
	Currency   string
	BookingURL string
	CheckedAt  time.Time
}
