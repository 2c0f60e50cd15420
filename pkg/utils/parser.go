package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedDate is returned when no accepted layout matches
	ErrMalformedDate = errors.New("date is not in an accepted format")
	// ErrDateNotInFuture is returned for today or past dates
	ErrDateNotInFuture = errors.New("date must be in the future")
	// ErrDateBeyondHorizon is returned for dates past the booking horizon
	ErrDateBeyondHorizon = errors.New("date is beyond the booking horizon")
	// ErrReturnBeforeDeparture is returned when the return date is not after departure
	ErrReturnBeforeDeparture = errors.New("return date must be after departure date")
)

var (
	iataRegex         = regexp.MustCompile(`^[A-Z]{3}$`)
	carrierRegex      = regexp.MustCompile(`^[A-Z0-9]{2,3}$`)
	flightNumberRegex = regexp.MustCompile(`^\d{1,4}[A-Z]?$`)
	designatorRegex   = regexp.MustCompile(`^([A-Z][A-Z0-9]|[0-9][A-Z])\s*(\d{1,4}[A-Z]?)$`)
)

// NormalizeDate converts any accepted layout into YYYY-MM-DD
func NormalizeDate(input string) (string, error) {
	value := strings.TrimSpace(input)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.Format(ISO_DATE), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedDate, input)
}

// ParseTravelDate normalizes input and checks it lies in (today, today+horizon]
func ParseTravelDate(input string, window DateWindow) (string, error) {
	date, err := NormalizeDate(input)
	if err != nil {
		return "", err
	}
	if err := ValidateTravelDate(date, window); err != nil {
		return "", err
	}
	return date, nil
}

// ValidateTravelDate checks an ISO date against the booking window
func ValidateTravelDate(date string, window DateWindow) error {
	t, err := time.Parse(ISO_DATE, date)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, date)
	}
	today := truncateDay(window.Today)
	if !t.After(today) {
		return ErrDateNotInFuture
	}
	horizon := window.HorizonDays
	if horizon <= 0 {
		horizon = DEFAULT_BOOKING_HORIZON_DAYS
	}
	if t.After(today.AddDate(0, 0, horizon)) {
		return ErrDateBeyondHorizon
	}
	return nil
}

// ValidateReturnDate checks that ret is strictly after dep (both ISO dates)
func ValidateReturnDate(dep, ret string) error {
	d, err := time.Parse(ISO_DATE, dep)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, dep)
	}
	r, err := time.Parse(ISO_DATE, ret)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, ret)
	}
	if !r.After(d) {
		return ErrReturnBeforeDeparture
	}
	return nil
}

// IsOneWay reports whether the user opted out of a return date
func IsOneWay(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), ONE_WAY)
}

// NormalizeIATA uppercases input and checks it is a 3-letter code
func NormalizeIATA(input string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(input))
	return code, iataRegex.MatchString(code)
}

// IsCarrierCode reports whether input looks like an airline code
func IsCarrierCode(input string) bool {
	return carrierRegex.MatchString(strings.ToUpper(strings.TrimSpace(input)))
}

// ParseFlightNumber strips an optional carrier prefix and validates the number
func ParseFlightNumber(input, carrierCode string) (string, bool) {
	value := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	if carrierCode != "" {
		value = strings.TrimPrefix(value, strings.ToUpper(carrierCode))
	} else if match := designatorRegex.FindStringSubmatch(value); len(match) == 3 {
		value = match[2]
	}
	if !flightNumberRegex.MatchString(value) {
		return "", false
	}
	return value, true
}

// ParsePrice parses a non-negative amount, allowing a thousands comma
func ParsePrice(input string) (float64, error) {
	value := strings.ReplaceAll(strings.TrimSpace(input), ",", "")
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", input, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("invalid price %q", input)
	}
	if price < 0 {
		return 0, fmt.Errorf("price must not be negative")
	}
	return price, nil
}

// EncodeSegments packs segment refs as CARRIER:NUMBER:FROM:TO:DATE separated by ';'
func EncodeSegments(segments []SegmentRef) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, strings.Join([]string{s.CarrierCode, s.FlightNumber, s.From, s.To, s.Date}, ":"))
	}
	return strings.Join(parts, ";")
}

// DecodeSegments is the inverse of EncodeSegments
func DecodeSegments(value string) ([]SegmentRef, error) {
	if value == "" {
		return nil, nil
	}
	var segments []SegmentRef
	for _, part := range strings.Split(value, ";") {
		fields := strings.Split(part, ":")
		if len(fields) != 5 {
			return nil, fmt.Errorf("malformed segment %q", part)
		}
		segments = append(segments, SegmentRef{
			CarrierCode:  fields[0],
			FlightNumber: fields[1],
			From:         fields[2],
			To:           fields[3],
			Date:         fields[4],
		})
	}
	return segments, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
