package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/utils"
)

// keys of the conversation data bag
const (
	keyOrigin        = "origin"
	keyDestination   = "destination"
	keyDepartureDate = "departure_date"
	keyReturnDate    = "return_date"
	keyCarrier       = "carrier"
	keyFlightNumber  = "flight_number"
	keyDate          = "date"
	keyOfferCount    = "offer_count"
	keyOfferPrefix   = "offer_"
)

// airport roles carried by airport selection callbacks
const (
	roleOrigin      = "origin"
	roleDestination = "destination"
)

// track method values carried by method callbacks
const (
	methodRoute  = "route"
	methodNumber = "number"
)

const maxButtonLabel = 48

type stepHandler func(ctx context.Context, userID int64, state *entity.ConversationState, input string) error

// ConversationOptions tunes the conversation state machine
type ConversationOptions struct {
	HorizonDays int
	MaxOffers   int
	Now         func() time.Time
}

// Conversation drives the multi-step dialogs: flight search, tracking by
// route, tracking by flight number and alert creation. Each step either
// advances, re-prompts on invalid input leaving the state untouched, or
// ends the flow and clears the state.
type Conversation struct {
	sessions   repository.SessionRepository
	airports   *AirportResolver
	airlines   *AirlineResolver
	flightData repository.FlightDataRepository
	alerts     *AlertService
	tracker    *FlightTracker
	accounts   *AccountService
	notifier   *Notifier
	logger     logger.Logger

	horizonDays int
	maxOffers   int
	now         func() time.Time
	locks       *keyedMutex
	steps       map[entity.Step]stepHandler
}

// NewConversation creates a new conversation state machine
func NewConversation(
	sessions repository.SessionRepository,
	airports *AirportResolver,
	airlines *AirlineResolver,
	flightData repository.FlightDataRepository,
	alerts *AlertService,
	tracker *FlightTracker,
	accounts *AccountService,
	notifier *Notifier,
	logger logger.Logger,
	opts ConversationOptions,
) *Conversation {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = utils.DEFAULT_BOOKING_HORIZON_DAYS
	}
	if opts.MaxOffers <= 0 {
		opts.MaxOffers = 5
	}
	c := &Conversation{
		sessions:    sessions,
		airports:    airports,
		airlines:    airlines,
		flightData:  flightData,
		alerts:      alerts,
		tracker:     tracker,
		accounts:    accounts,
		notifier:    notifier,
		logger:      logger,
		horizonDays: opts.HorizonDays,
		maxOffers:   opts.MaxOffers,
		now:         opts.Now,
		locks:       newKeyedMutex(),
	}
	c.steps = map[entity.Step]stepHandler{
		entity.StepSearchOrigin:             c.handleOrigin,
		entity.StepSearchDestination:        c.handleDestination,
		entity.StepSearchDepartureDate:      c.handleDepartureDate,
		entity.StepSearchReturnDate:         c.handleReturnDate,
		entity.StepSelectOriginAirport:      c.handlePendingSelection,
		entity.StepSelectDestinationAirport: c.handlePendingSelection,
		entity.StepTrackMethod:              c.handleTrackMethod,
		entity.StepTrackOrigin:              c.handleOrigin,
		entity.StepTrackDestination:         c.handleDestination,
		entity.StepTrackDate:                c.handleTrackDate,
		entity.StepTrackAirline:             c.handleAirline,
		entity.StepTrackNumber:              c.handleFlightNumber,
		entity.StepSelectFlight:             c.handleFlightText,
		entity.StepAlertTargetPrice:         c.handleTargetPrice,
	}
	return c
}

// StartSearch begins the search dialog, replacing any dialog in progress
func (c *Conversation) StartSearch(ctx context.Context, userID int64) error {
	unlock := c.locks.Lock(userID)
	defer unlock()

	state := entity.NewConversationState(entity.FlowSearch, entity.StepSearchOrigin, c.now())
	return c.advance(ctx, userID, state, msgAskOrigin, nil)
}

// StartTracking begins the tracking dialog, replacing any dialog in progress
func (c *Conversation) StartTracking(ctx context.Context, userID int64) error {
	unlock := c.locks.Lock(userID)
	defer unlock()

	state := entity.NewConversationState(entity.FlowTrack, entity.StepTrackMethod, c.now())
	keyboard := entity.Keyboard{
		{{Label: "🗺 By route", Action: entity.NewCallbackAction(entity.CallbackTrackMethod, methodRoute)}},
		{{Label: "🔢 By flight number", Action: entity.NewCallbackAction(entity.CallbackTrackMethod, methodNumber)}},
	}
	return c.advance(ctx, userID, state, msgAskTrackMethod, keyboard)
}

// Cancel drops the dialog in progress and reports whether there was one
func (c *Conversation) Cancel(ctx context.Context, userID int64) (bool, error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	_, err := c.sessions.Get(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		c.notifier.Send(ctx, userID, msgNothingToCancel, nil)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := c.sessions.Delete(ctx, userID); err != nil {
		return false, err
	}
	c.notifier.Send(ctx, userID, msgConversationCleared, nil)
	return true, nil
}

// HandleText feeds free text to the user's dialog. It reports false when
// the user has no dialog in progress.
func (c *Conversation) HandleText(ctx context.Context, msg entity.IncomingMessage) (bool, error) {
	unlock := c.locks.Lock(msg.UserID)
	defer unlock()

	state, err := c.sessions.Get(ctx, msg.UserID)
	if errors.Is(err, entity.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load conversation: %w", err)
	}

	handler, ok := c.steps[state.Step]
	if !ok {
		c.settle(ctx, msg.UserID, state, fmt.Errorf("no handler for step %q", state.Step))
		return true, nil
	}
	c.settle(ctx, msg.UserID, state, handler(ctx, msg.UserID, state, strings.TrimSpace(msg.Text)))
	return true, nil
}

// HandleCallback applies a dialog choice and returns the feedback text for
// the button press
func (c *Conversation) HandleCallback(ctx context.Context, userID int64, action entity.CallbackAction) string {
	unlock := c.locks.Lock(userID)
	defer unlock()

	if action.Kind == entity.CallbackAlertNew {
		return c.startAlert(ctx, userID, action)
	}

	state, err := c.sessions.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			c.logger.Error("Failed to load conversation", "userID", userID, "error", err)
		}
		return msgSelectionExpired
	}

	switch action.Kind {
	case entity.CallbackAirport:
		role := action.Arg(0)
		if state.Step != selectStepFor(role) {
			return msgSelectionExpired
		}
		c.settle(ctx, userID, state, c.applyAirport(ctx, userID, state, role, action.Arg(1)))
	case entity.CallbackTrackMethod:
		if state.Step != entity.StepTrackMethod {
			return msgSelectionExpired
		}
		c.settle(ctx, userID, state, c.chooseTrackMethod(ctx, userID, state, action.Arg(0)))
	case entity.CallbackFlight:
		if state.Step != entity.StepSelectFlight {
			return msgSelectionExpired
		}
		c.settle(ctx, userID, state, c.handleFlightChoice(ctx, userID, state, action.Arg(0)))
	default:
		return msgSelectionExpired
	}
	return ""
}

// settle applies the outcome of a step. Validation errors re-prompt and
// keep the stored state, anything else ends the flow.
func (c *Conversation) settle(ctx context.Context, userID int64, state *entity.ConversationState, err error) {
	if err == nil {
		return
	}
	if v, ok := IsValidationError(err); ok {
		c.logger.Debug("Conversation input rejected", "userID", userID, "step", state.Step, "error", err)
		text := v.Message
		if prompt := promptFor(state.Step); prompt != "" {
			text += "\n\n" + prompt
		}
		c.notifier.Send(ctx, userID, text, nil)
		return
	}

	c.complete(ctx, userID)
	if errors.Is(err, entity.ErrLimitReached) {
		c.notifier.Send(ctx, userID, msgLimitReached, nil)
		return
	}
	c.logger.Error("Conversation aborted", "userID", userID, "flow", state.Flow, "step", state.Step, "error", err)
	c.notifier.Send(ctx, userID, msgGenericFailure, nil)
}

// advance stores the state and prompts for the next input
func (c *Conversation) advance(ctx context.Context, userID int64, state *entity.ConversationState, text string, keyboard entity.Keyboard) error {
	state.UpdatedAt = c.now()
	if err := c.sessions.Set(ctx, userID, state); err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}
	c.notifier.Send(ctx, userID, text, keyboard)
	return nil
}

// complete clears the user's state
func (c *Conversation) complete(ctx context.Context, userID int64) {
	if err := c.sessions.Delete(ctx, userID); err != nil {
		c.logger.Error("Failed to clear conversation", "userID", userID, "error", err)
	}
}

func (c *Conversation) dateWindow() utils.DateWindow {
	return utils.DateWindow{Today: c.now(), HorizonDays: c.horizonDays}
}

func (c *Conversation) handleOrigin(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	return c.resolveAirport(ctx, userID, state, input, roleOrigin)
}

func (c *Conversation) handleDestination(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	return c.resolveAirport(ctx, userID, state, input, roleDestination)
}

func (c *Conversation) resolveAirport(ctx context.Context, userID int64, state *entity.ConversationState, input, role string) error {
	airports, err := c.airports.Resolve(ctx, input)
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return invalid("Please send a city name or a 3-letter airport code.", err)
	case errors.Is(err, entity.ErrProviderUnavailable):
		return invalid(msgProviderBusy, err)
	case err != nil:
		return err
	}

	switch len(airports) {
	case 0:
		return invalid(fmt.Sprintf("I could not find an airport for %q. Try another spelling or the 3-letter code.", input), nil)
	case 1:
		return c.applyAirport(ctx, userID, state, role, airports[0].Code)
	}

	keyboard := make(entity.Keyboard, 0, len(airports))
	for _, a := range airports {
		keyboard = append(keyboard, []entity.Choice{{
			Label:  utils.Truncate(a.Label(), maxButtonLabel),
			Action: entity.NewCallbackAction(entity.CallbackAirport, role, a.Code),
		}})
	}
	state.Step = selectStepFor(role)
	return c.advance(ctx, userID, state, msgChooseAirport, keyboard)
}

// applyAirport records the chosen airport and moves to the step after it
func (c *Conversation) applyAirport(ctx context.Context, userID int64, state *entity.ConversationState, role, input string) error {
	code, ok := utils.NormalizeIATA(input)
	if !ok {
		return invalid("That is not a valid airport code.", nil)
	}
	tracking := state.Flow == entity.FlowTrackRoute

	if role == roleOrigin {
		state.Data[keyOrigin] = code
		if tracking {
			state.Step = entity.StepTrackDestination
		} else {
			state.Step = entity.StepSearchDestination
		}
		return c.advance(ctx, userID, state, msgAskDestination, nil)
	}

	if code == state.Data[keyOrigin] {
		return invalid("Origin and destination must be different airports.", nil)
	}
	state.Data[keyDestination] = code
	if tracking {
		state.Step = entity.StepTrackDate
		return c.advance(ctx, userID, state, msgAskTrackDate, nil)
	}
	state.Step = entity.StepSearchDepartureDate
	return c.advance(ctx, userID, state, msgAskDepartureDate, nil)
}

func (c *Conversation) handlePendingSelection(_ context.Context, _ int64, _ *entity.ConversationState, _ string) error {
	return invalid("Please pick one of the airports above, or send /cancel to start over.", nil)
}

func selectStepFor(role string) entity.Step {
	if role == roleDestination {
		return entity.StepSelectDestinationAirport
	}
	return entity.StepSelectOriginAirport
}

func promptFor(step entity.Step) string {
	switch step {
	case entity.StepSearchOrigin, entity.StepTrackOrigin:
		return msgAskOrigin
	case entity.StepSearchDestination, entity.StepTrackDestination:
		return msgAskDestination
	case entity.StepSearchDepartureDate:
		return msgAskDepartureDate
	case entity.StepSearchReturnDate:
		return msgAskReturnDate
	case entity.StepTrackDate:
		return msgAskTrackDate
	case entity.StepTrackAirline:
		return msgAskAirline
	case entity.StepTrackNumber:
		return msgAskFlightNumber
	case entity.StepAlertTargetPrice:
		return msgAskTargetPrice
	default:
		return ""
	}
}

func dateErrorMessage(err error) string {
	for target, msg := range dateErrorMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return "That date is not valid."
}

// sortOffers orders offers cheapest first, unparsable prices last
func sortOffers(offers []entity.Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, errA := offers[i].Amount()
		b, errB := offers[j].Amount()
		if errA != nil || errB != nil {
			return errA == nil
		}
		return a < b
	})
}
