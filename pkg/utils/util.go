package utils

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// BuildBookingURL returns a search link for the route the user can open to book
func BuildBookingURL(origin, destination, departureDate, returnDate string) string {
	q := fmt.Sprintf("Flights from %s to %s on %s", origin, destination, departureDate)
	if returnDate != "" {
		q += " returning " + returnDate
	}
	return "https://www.google.com/travel/flights?q=" + url.QueryEscape(q)
}

// FormatPrice renders an amount with two decimals and its currency
func FormatPrice(amount float64, currency string) string {
	formatted := strconv.FormatFloat(amount, 'f', 2, 64)
	if currency == "" {
		return formatted
	}
	return formatted + " " + currency
}

// Truncate shortens s to max runes, appending an ellipsis
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// TitleCase capitalizes the first letter of each word
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
