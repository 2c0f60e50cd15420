package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/utils"
)

func (c *Conversation) handleTrackMethod(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	switch strings.ToLower(input) {
	case "1", methodRoute, "by route":
		return c.chooseTrackMethod(ctx, userID, state, methodRoute)
	case "2", methodNumber, "flight number", "by flight number":
		return c.chooseTrackMethod(ctx, userID, state, methodNumber)
	}
	return invalid("Please choose \"By route\" or \"By flight number\".", nil)
}

func (c *Conversation) chooseTrackMethod(ctx context.Context, userID int64, state *entity.ConversationState, method string) error {
	switch method {
	case methodRoute:
		state.Flow = entity.FlowTrackRoute
		state.Step = entity.StepTrackOrigin
		return c.advance(ctx, userID, state, msgAskOrigin, nil)
	case methodNumber:
		state.Flow = entity.FlowTrackNumber
		state.Step = entity.StepTrackAirline
		return c.advance(ctx, userID, state, msgAskAirline, nil)
	}
	return invalid("Please choose \"By route\" or \"By flight number\".", nil)
}

func (c *Conversation) handleAirline(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	code, ok := c.airlines.Resolve(input)
	if !ok {
		return invalid("I do not know that airline. Send its 2-letter code, e.g. BA.", nil)
	}
	state.Data[keyCarrier] = code
	state.Step = entity.StepTrackNumber
	return c.advance(ctx, userID, state, fmt.Sprintf("%s (%s). %s", c.airlines.Name(ctx, code), code, msgAskFlightNumber), nil)
}

func (c *Conversation) handleFlightNumber(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	number, ok := utils.ParseFlightNumber(input, state.Data[keyCarrier])
	if !ok {
		return invalid("That does not look like a flight number. Send digits only, e.g. 117.", nil)
	}
	state.Data[keyFlightNumber] = number
	state.Step = entity.StepTrackDate
	return c.advance(ctx, userID, state, msgAskTrackDate, nil)
}

func (c *Conversation) handleTrackDate(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	date, err := utils.ParseTravelDate(input, c.dateWindow())
	if err != nil {
		return invalid(dateErrorMessage(err), err)
	}

	switch state.Flow {
	case entity.FlowTrackRoute:
		return c.offerFlights(ctx, userID, state, date)
	case entity.FlowTrackNumber:
		return c.trackByNumber(ctx, userID, state, date)
	}
	return fmt.Errorf("unexpected flow %q at step %q", state.Flow, state.Step)
}

// offerFlights searches the route and lets the user pick an itinerary
func (c *Conversation) offerFlights(ctx context.Context, userID int64, state *entity.ConversationState, date string) error {
	c.notifier.Send(ctx, userID, msgSearching, nil)

	query := entity.SearchQuery{
		Origin:        state.Data[keyOrigin],
		Destination:   state.Data[keyDestination],
		DepartureDate: date,
	}
	offers, err := c.flightData.SearchOffers(ctx, query)
	if err != nil {
		return fmt.Errorf("flight search failed: %w", err)
	}
	if len(offers) == 0 {
		c.complete(ctx, userID)
		c.notifier.Send(ctx, userID, msgNoFlights, nil)
		return nil
	}

	sortOffers(offers)
	if len(offers) > c.maxOffers {
		offers = offers[:c.maxOffers]
	}

	keyboard := make(entity.Keyboard, 0, len(offers))
	for i, offer := range offers {
		refs := segmentRefs(offer, date)
		state.Data[keyOfferPrefix+strconv.Itoa(i)] = utils.EncodeSegments(refs)

		designators := make([]string, 0, len(refs))
		for _, r := range refs {
			designators = append(designators, r.CarrierCode+r.FlightNumber)
		}
		keyboard = append(keyboard, []entity.Choice{{
			Label:  fmt.Sprintf("%d. %s  %s %s", i+1, strings.Join(designators, "+"), offer.Price, offer.Currency),
			Action: entity.NewCallbackAction(entity.CallbackFlight, strconv.Itoa(i)),
		}})
	}
	state.Data[keyDate] = date
	state.Data[keyOfferCount] = strconv.Itoa(len(offers))
	state.Step = entity.StepSelectFlight
	return c.advance(ctx, userID, state, formatOffers(query, offers, c.maxOffers)+"\n"+msgChooseFlight, keyboard)
}

func segmentRefs(offer entity.Offer, date string) []utils.SegmentRef {
	refs := make([]utils.SegmentRef, 0, len(offer.Segments))
	for _, s := range offer.Segments {
		segDate := date
		if !s.DepartureTime.IsZero() {
			segDate = s.DepartureTime.Format(utils.ISO_DATE)
		}
		refs = append(refs, utils.SegmentRef{
			CarrierCode:  s.CarrierCode,
			FlightNumber: s.FlightNumber,
			From:         s.DepartureAirport,
			To:           s.ArrivalAirport,
			Date:         segDate,
		})
	}
	return refs
}

// handleFlightChoice takes the 0-based index carried by a flight callback
func (c *Conversation) handleFlightChoice(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	index, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return invalid("Please pick one of the listed flights.", err)
	}
	return c.selectFlight(ctx, userID, state, index)
}

// handleFlightText takes the 1-based number typed by the user
func (c *Conversation) handleFlightText(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return invalid("Please pick one of the listed flights.", err)
	}
	return c.selectFlight(ctx, userID, state, n-1)
}

func (c *Conversation) selectFlight(ctx context.Context, userID int64, state *entity.ConversationState, index int) error {
	raw, ok := state.Data[keyOfferPrefix+strconv.Itoa(index)]
	if !ok || index < 0 {
		return invalid("Please pick one of the listed flights.", nil)
	}
	refs, err := utils.DecodeSegments(raw)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return errors.New("selected offer has no segments")
	}

	requests := make([]entity.TrackRequest, 0, len(refs))
	for _, r := range refs {
		requests = append(requests, entity.TrackRequest{
			CarrierCode:  r.CarrierCode,
			FlightNumber: r.FlightNumber,
			Date:         r.Date,
			Origin:       r.From,
			Destination:  r.To,
		})
	}
	return c.createTracks(ctx, userID, requests)
}

// trackByNumber verifies the flight exists before tracking it
func (c *Conversation) trackByNumber(ctx context.Context, userID int64, state *entity.ConversationState, date string) error {
	carrier := state.Data[keyCarrier]
	number := state.Data[keyFlightNumber]

	status, err := c.flightData.FetchStatus(ctx, carrier, number, date)
	if errors.Is(err, entity.ErrProviderUnavailable) {
		return invalid(msgProviderBusy, err)
	}
	if err != nil {
		return fmt.Errorf("flight status lookup failed: %w", err)
	}
	if status == nil {
		c.complete(ctx, userID)
		c.notifier.Send(ctx, userID, msgFlightNotFound, nil)
		return nil
	}

	return c.createTracks(ctx, userID, []entity.TrackRequest{{
		CarrierCode:  carrier,
		FlightNumber: number,
		Date:         date,
		Origin:       status.DepartureAirport,
		Destination:  status.ArrivalAirport,
	}})
}

// createTracks is the terminal step of both tracking flows
func (c *Conversation) createTracks(ctx context.Context, userID int64, requests []entity.TrackRequest) error {
	if err := c.accounts.CheckTrackQuota(ctx, userID, len(requests)); err != nil {
		return err
	}
	c.complete(ctx, userID)

	tracks, err := c.tracker.StartTracking(ctx, userID, requests)
	if err != nil {
		return err
	}
	c.notifier.Send(ctx, userID, formatTrackingStarted(tracks), nil)
	return nil
}
