package amadeus

import (
	"strconv"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/utils"
)

// delayThreshold is how late an estimated departure must be to report the flight delayed
const delayThreshold = 15 * time.Minute

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseTimestamp reads provider timestamps. Values without an offset are
// airport local time and are kept as UTC wall clock.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toOffers(resp *offersResponse, query entity.SearchQuery) []entity.Offer {
	bookingURL := utils.BuildBookingURL(query.Origin, query.Destination, query.DepartureDate, query.ReturnDate)

	offers := make([]entity.Offer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		price := raw.Price.GrandTotal
		if price == "" {
			price = raw.Price.Total
		}
		if _, err := strconv.ParseFloat(price, 64); err != nil {
			continue
		}

		offer := entity.Offer{
			Price:      price,
			Currency:   raw.Price.Currency,
			BookingURL: bookingURL,
		}
		if len(raw.Itineraries) > 0 {
			for _, seg := range raw.Itineraries[0].Segments {
				offer.Segments = append(offer.Segments, entity.Segment{
					CarrierCode:      seg.CarrierCode,
					FlightNumber:     seg.Number,
					DepartureAirport: seg.Departure.IATACode,
					ArrivalAirport:   seg.Arrival.IATACode,
					DepartureTime:    parseTimestamp(seg.Departure.At),
					ArrivalTime:      parseTimestamp(seg.Arrival.At),
				})
			}
		}
		offer.Airline = airlineOf(raw, offer.Segments, resp.Dictionaries.Carriers)
		offers = append(offers, offer)
	}
	return offers
}

func airlineOf(raw flightOffer, segments []entity.Segment, carriers map[string]string) string {
	code := ""
	if len(raw.ValidatingAirlineCodes) > 0 {
		code = raw.ValidatingAirlineCodes[0]
	} else if len(segments) > 0 {
		code = segments[0].CarrierCode
	}
	if name, ok := carriers[code]; ok && name != "" {
		return utils.TitleCase(name)
	}
	return code
}

func toFlightStatus(flight datedFlight) *entity.FlightStatus {
	status := &entity.FlightStatus{
		Designator: entity.FlightDesignator{
			CarrierCode:  flight.FlightDesignator.CarrierCode,
			FlightNumber: strconv.Itoa(flight.FlightDesignator.FlightNumber) + flight.FlightDesignator.OperationalSuffix,
		},
		State: entity.FlightUnknown,
	}

	var estimatedDeparture time.Time
	for i, point := range flight.FlightPoints {
		if point.Departure != nil && status.DepartureAirport == "" {
			status.DepartureAirport = point.IATACode
			status.Terminal = terminalOf(point.Departure)
			status.Gate = gateOf(point.Departure)
			for _, t := range point.Departure.Timings {
				switch t.Qualifier {
				case "STD":
					status.ScheduledDeparture = parseTimestamp(t.Value)
				case "ETD":
					estimatedDeparture = parseTimestamp(t.Value)
				case "ATD":
					status.ActualDeparture = parseTimestamp(t.Value)
				}
			}
		}
		if point.Arrival != nil && i > 0 {
			status.ArrivalAirport = point.IATACode
			for _, t := range point.Arrival.Timings {
				switch t.Qualifier {
				case "STA":
					status.ScheduledArrival = parseTimestamp(t.Value)
				case "ATA":
					status.ActualArrival = parseTimestamp(t.Value)
				}
			}
		}
	}

	switch {
	case !status.ActualArrival.IsZero():
		status.State = entity.FlightLanded
	case !status.ActualDeparture.IsZero():
		status.State = entity.FlightDeparted
	case !estimatedDeparture.IsZero() && estimatedDeparture.Sub(status.ScheduledDeparture) >= delayThreshold:
		status.State = entity.FlightDelayed
	case !status.ScheduledDeparture.IsZero():
		status.State = entity.FlightScheduled
	}
	return status
}

func terminalOf(event *pointEvent) string {
	if event.Terminal == nil {
		return ""
	}
	return event.Terminal.Code
}

func gateOf(event *pointEvent) string {
	if event.Gate == nil {
		return ""
	}
	return event.Gate.MainGate
}

func toAirports(resp *locationsResponse) []entity.Airport {
	airports := make([]entity.Airport, 0, len(resp.Data))
	seen := make(map[string]bool)
	for _, loc := range resp.Data {
		if loc.SubType != "AIRPORT" || loc.IATACode == "" || seen[loc.IATACode] {
			continue
		}
		seen[loc.IATACode] = true
		airports = append(airports, entity.Airport{
			Code:     loc.IATACode,
			Name:     utils.TitleCase(loc.Name),
			CityCode: loc.Address.CityCode,
			CityName: utils.TitleCase(loc.Address.CityName),
		})
	}
	return airports
}
