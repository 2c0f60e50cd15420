package entity

import (
	"time"
)

// Airline represents an airline entity
type Airline struct {
	ID        uint
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
