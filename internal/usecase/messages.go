package usecase

import (
	"fmt"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/utils"
)

// user-facing prompts
const (
	msgAskOrigin           = "✈️ Where are you flying from? Send a city or a 3-letter airport code."
	msgAskDestination      = "🛬 Where are you flying to? Send a city or a 3-letter airport code."
	msgAskDepartureDate    = "📅 Departure date? (YYYY-MM-DD, DD-MM-YY, DD-MM-YYYY or DD/MM/YYYY)"
	msgAskReturnDate       = "📅 Return date? Send a date or \"oneway\"."
	msgAskTrackMethod      = "How do you want to find the flight to track?"
	msgAskTrackDate        = "📅 Flight date? (YYYY-MM-DD, DD-MM-YY, DD-MM-YYYY or DD/MM/YYYY)"
	msgAskAirline          = "Which airline? Send the name (e.g. British Airways) or code (BA)."
	msgAskFlightNumber     = "Flight number? (e.g. 117 or BA117)"
	msgAskTargetPrice      = "🎯 Target price? I will notify you when the fare drops to it. Send 0 to be told about any change."
	msgChooseAirport       = "Several airports match. Please pick one:"
	msgChooseFlight        = "Pick the flight you want to track:"
	msgSearching           = "🔎 Searching flights..."
	msgNoFlights           = "😕 No flights found for that route and date. Try another date with /search."
	msgFlightNotFound      = "😕 I could not find that flight on that date. Check the number and try /track again."
	msgGenericFailure      = "⚠️ Something went wrong. Please start again."
	msgLimitReached        = "🔒 You reached the free plan limit. Cancel an existing watch or upgrade to premium."
	msgConversationCleared = "Cancelled. Send /help to see what I can do."
	msgNothingToCancel     = "There is nothing to cancel."
	msgSelectionExpired    = "This selection has expired."
	msgProviderBusy        = "The flight data service is busy right now. Please try again in a minute."
)

var dateErrorMessages = map[error]string{
	utils.ErrMalformedDate:         "I could not read that date. Use YYYY-MM-DD, DD-MM-YY, DD-MM-YYYY or DD/MM/YYYY.",
	utils.ErrDateNotInFuture:       "The date must be in the future.",
	utils.ErrDateBeyondHorizon:     "Airlines only sell seats about 330 days ahead. Pick an earlier date.",
	utils.ErrReturnBeforeDeparture: "The return date must be after the departure date.",
}

func reasonHeadline(reason entity.PriceChangeReason) string {
	switch reason {
	case entity.ReasonPriceDrop:
		return "📉 Price dropped"
	case entity.ReasonPriceIncrease:
		return "📈 Price went up"
	case entity.ReasonTargetReached:
		return "🎯 Target price reached"
	case entity.ReasonSignificantDrop:
		return "🔥 Big price drop"
	case entity.ReasonFirstCheck:
		return "🔔 Price alert is live"
	default:
		return "🔔 Price update"
	}
}

func formatPriceChange(change PriceChange) string {
	var b strings.Builder
	alert := change.Alert
	fmt.Fprintf(&b, "%s\n\n", reasonHeadline(change.Reason))
	fmt.Fprintf(&b, "%s  %s", alert.Route(), alert.DepartureDate)
	if alert.ReturnDate != "" {
		fmt.Fprintf(&b, " - %s", alert.ReturnDate)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Now: %s", utils.FormatPrice(change.Current, change.Currency))
	if change.Previous != nil {
		fmt.Fprintf(&b, " (was %s)", utils.FormatPrice(*change.Previous, change.Currency))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Lowest seen: %s\n", utils.FormatPrice(change.Lowest, change.Currency))
	if alert.TargetPrice > 0 {
		fmt.Fprintf(&b, "Target: %s\n", utils.FormatPrice(alert.TargetPrice, change.Currency))
	}
	if change.Airline != "" {
		fmt.Fprintf(&b, "Airline: %s\n", change.Airline)
	}
	if change.BookingURL != "" {
		fmt.Fprintf(&b, "\n%s", change.BookingURL)
	}
	return b.String()
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 15:04")
}

func changeLabel(c entity.StatusChange) string {
	switch c {
	case entity.ChangeFirstCheck:
		return "now tracking"
	case entity.ChangeDesignator:
		return "flight number changed"
	case entity.ChangeDeparture:
		return "departure time changed"
	case entity.ChangeArrival:
		return "arrival time changed"
	case entity.ChangeTerminal:
		return "terminal changed"
	case entity.ChangeGate:
		return "gate changed"
	case entity.ChangeState:
		return "status changed"
	case entity.ChangeHeartbeat:
		return "daily update"
	default:
		return string(c)
	}
}

func formatFlightStatus(track *entity.FlightTrack, status *entity.FlightStatus, changes []entity.StatusChange) string {
	var b strings.Builder
	labels := make([]string, 0, len(changes))
	for _, c := range changes {
		labels = append(labels, changeLabel(c))
	}
	fmt.Fprintf(&b, "🛫 %s on %s", status.Designator.String(), track.Date)
	if track.IsSegment {
		fmt.Fprintf(&b, " (leg %d)", track.SegmentIndex+1)
	}
	fmt.Fprintf(&b, "\n%s\n\n", strings.Join(labels, ", "))
	fmt.Fprintf(&b, "%s → %s\n", status.DepartureAirport, status.ArrivalAirport)
	fmt.Fprintf(&b, "Departure: %s", formatClock(status.ScheduledDeparture))
	if !status.ActualDeparture.IsZero() {
		fmt.Fprintf(&b, " (actual %s)", formatClock(status.ActualDeparture))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Arrival: %s", formatClock(status.ScheduledArrival))
	if !status.ActualArrival.IsZero() {
		fmt.Fprintf(&b, " (actual %s)", formatClock(status.ActualArrival))
	}
	b.WriteString("\n")
	if status.Terminal != "" {
		fmt.Fprintf(&b, "Terminal: %s\n", status.Terminal)
	}
	if status.Gate != "" {
		fmt.Fprintf(&b, "Gate: %s\n", status.Gate)
	}
	fmt.Fprintf(&b, "Status: %s", strings.ToUpper(string(status.State)))
	return b.String()
}

func formatOffers(query entity.SearchQuery, offers []entity.Offer, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✈️ %s → %s on %s", query.Origin, query.Destination, query.DepartureDate)
	if query.ReturnDate != "" {
		fmt.Fprintf(&b, ", back %s", query.ReturnDate)
	}
	b.WriteString("\n\n")
	for i, offer := range offers {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "%d. %s %s", i+1, offer.Price, offer.Currency)
		if offer.Airline != "" {
			fmt.Fprintf(&b, "  %s", offer.Airline)
		}
		b.WriteString("\n")
		b.WriteString("   " + describeSegments(offer.Segments) + "\n")
	}
	return b.String()
}

func describeSegments(segments []entity.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, fmt.Sprintf("%s %s-%s %s", s.Designator(), s.DepartureAirport, s.ArrivalAirport, s.DepartureTime.Format("15:04")))
	}
	if len(parts) == 0 {
		return "-"
	}
	stops := "direct"
	if len(segments) > 1 {
		stops = fmt.Sprintf("%d stops", len(segments)-1)
	}
	return strings.Join(parts, " | ") + " (" + stops + ")"
}

func formatAlertCreated(alert *entity.PriceAlert) string {
	target := "any price change"
	if alert.TargetPrice > 0 {
		target = "a fare of " + utils.FormatPrice(alert.TargetPrice, alert.Currency) + " or less"
	}
	return fmt.Sprintf("✅ Alert created for %s on %s. I will tell you about %s.", alert.Route(), alert.DepartureDate, target)
}

func formatTrackingStarted(tracks []*entity.FlightTrack) string {
	if len(tracks) == 1 {
		return fmt.Sprintf("✅ Tracking %s on %s. I will message you when the schedule changes.", tracks[0].Designator().String(), tracks[0].Date)
	}
	designators := make([]string, 0, len(tracks))
	for _, t := range tracks {
		designators = append(designators, t.Designator().String())
	}
	return fmt.Sprintf("✅ Tracking %d legs (%s). I will message you when any schedule changes.", len(tracks), strings.Join(designators, ", "))
}

func formatHistory(history *AlertHistory) string {
	var b strings.Builder
	alert := history.Alert
	fmt.Fprintf(&b, "📊 %s on %s\n\n", alert.Route(), alert.DepartureDate)
	if history.Stats == nil || history.Stats.Count == 0 {
		b.WriteString("No prices recorded yet.")
		return b.String()
	}
	stats := history.Stats
	fmt.Fprintf(&b, "Checks: %d\n", stats.Count)
	fmt.Fprintf(&b, "Lowest: %s\n", utils.FormatPrice(stats.Min, alert.Currency))
	fmt.Fprintf(&b, "Highest: %s\n", utils.FormatPrice(stats.Max, alert.Currency))
	fmt.Fprintf(&b, "Average: %s\n", utils.FormatPrice(stats.Average, alert.Currency))
	if len(history.Entries) > 0 {
		b.WriteString("\nLatest:\n")
		for _, e := range history.Entries {
			fmt.Fprintf(&b, "%s  %s", e.RecordedAt.Format("02 Jan 15:04"), utils.FormatPrice(e.Price, e.Currency))
			if e.Airline != "" {
				fmt.Fprintf(&b, "  %s", e.Airline)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
