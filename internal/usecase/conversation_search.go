package usecase

import (
	"context"
	"errors"
	"fmt"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/utils"
)

func (c *Conversation) handleDepartureDate(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	date, err := utils.ParseTravelDate(input, c.dateWindow())
	if err != nil {
		return invalid(dateErrorMessage(err), err)
	}
	state.Data[keyDepartureDate] = date
	state.Step = entity.StepSearchReturnDate
	return c.advance(ctx, userID, state, msgAskReturnDate, nil)
}

func (c *Conversation) handleReturnDate(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	returnDate := ""
	if !utils.IsOneWay(input) {
		date, err := utils.ParseTravelDate(input, c.dateWindow())
		if err != nil {
			return invalid(dateErrorMessage(err), err)
		}
		if err := utils.ValidateReturnDate(state.Data[keyDepartureDate], date); err != nil {
			return invalid(dateErrorMessage(err), err)
		}
		returnDate = date
	}
	state.Data[keyReturnDate] = returnDate

	return c.runSearch(ctx, userID, entity.SearchQuery{
		Origin:        state.Data[keyOrigin],
		Destination:   state.Data[keyDestination],
		DepartureDate: state.Data[keyDepartureDate],
		ReturnDate:    returnDate,
	})
}

// runSearch is the terminal step of the search flow
func (c *Conversation) runSearch(ctx context.Context, userID int64, query entity.SearchQuery) error {
	c.notifier.Send(ctx, userID, msgSearching, nil)

	offers, err := c.flightData.SearchOffers(ctx, query)
	if err != nil {
		return fmt.Errorf("flight search failed: %w", err)
	}
	c.complete(ctx, userID)

	c.logger.Info("Flight search completed",
		"userID", userID,
		"origin", query.Origin,
		"destination", query.Destination,
		"offers", len(offers))

	if len(offers) == 0 {
		c.notifier.Send(ctx, userID, msgNoFlights, nil)
		return nil
	}

	sortOffers(offers)
	keyboard := entity.Keyboard{{{
		Label: "🔔 Create price alert",
		Action: entity.NewCallbackAction(entity.CallbackAlertNew,
			query.Origin, query.Destination, query.DepartureDate, query.ReturnDate),
	}}}
	c.notifier.Send(ctx, userID, formatOffers(query, offers, c.maxOffers), keyboard)
	return nil
}

// startAlert opens the target price step for a route picked from search results
func (c *Conversation) startAlert(ctx context.Context, userID int64, action entity.CallbackAction) string {
	origin, okOrigin := utils.NormalizeIATA(action.Arg(0))
	destination, okDestination := utils.NormalizeIATA(action.Arg(1))
	departure := action.Arg(2)
	if !okOrigin || !okDestination || utils.ValidateTravelDate(departure, c.dateWindow()) != nil {
		return msgSelectionExpired
	}

	if err := c.accounts.CheckAlertQuota(ctx, userID); err != nil {
		if errors.Is(err, entity.ErrLimitReached) {
			c.notifier.Send(ctx, userID, msgLimitReached, nil)
			return "Limit reached"
		}
		c.logger.Error("Failed to check alert quota", "userID", userID, "error", err)
		c.notifier.Send(ctx, userID, msgGenericFailure, nil)
		return ""
	}

	state := entity.NewConversationState(entity.FlowAlert, entity.StepAlertTargetPrice, c.now())
	state.Data[keyOrigin] = origin
	state.Data[keyDestination] = destination
	state.Data[keyDepartureDate] = departure
	state.Data[keyReturnDate] = action.Arg(3)
	if err := c.advance(ctx, userID, state, msgAskTargetPrice, nil); err != nil {
		c.logger.Error("Failed to start alert dialog", "userID", userID, "error", err)
		c.notifier.Send(ctx, userID, msgGenericFailure, nil)
	}
	return ""
}

func (c *Conversation) handleTargetPrice(ctx context.Context, userID int64, state *entity.ConversationState, input string) error {
	target, err := utils.ParsePrice(input)
	if err != nil {
		return invalid("Please send a number, e.g. 350, or 0 to hear about any change.", err)
	}

	alert, err := c.alerts.CreateAlert(ctx, userID, AlertRequest{
		Origin:        state.Data[keyOrigin],
		Destination:   state.Data[keyDestination],
		DepartureDate: state.Data[keyDepartureDate],
		ReturnDate:    state.Data[keyReturnDate],
		TargetPrice:   target,
	})
	if err != nil {
		return err
	}
	c.complete(ctx, userID)
	c.notifier.Send(ctx, userID, formatAlertCreated(alert), nil)
	return nil
}
