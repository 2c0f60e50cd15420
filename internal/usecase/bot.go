package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
)

const msgUnknownCommand = "I do not know that command. Send /help to see what I can do."

// Bot dispatches incoming chat updates to commands, the conversation
// state machine and the watch services
type Bot struct {
	router       CommandRouter
	conversation *Conversation
	alerts       *AlertService
	tracker      *FlightTracker
	accounts     *AccountService
	notifier     *Notifier
	logger       logger.Logger
}

// NewBot creates a new bot
func NewBot(
	router CommandRouter,
	conversation *Conversation,
	alerts *AlertService,
	tracker *FlightTracker,
	accounts *AccountService,
	notifier *Notifier,
	logger logger.Logger,
) *Bot {
	return &Bot{
		router:       router,
		conversation: conversation,
		alerts:       alerts,
		tracker:      tracker,
		accounts:     accounts,
		notifier:     notifier,
		logger:       logger,
	}
}

// HandleMessage processes one text message
func (b *Bot) HandleMessage(ctx context.Context, msg entity.IncomingMessage) error {
	if err := b.accounts.Touch(ctx, msg.UserID, msg.Username, msg.FirstName); err != nil {
		b.logger.Error("Failed to record user activity", "userID", msg.UserID, "error", err)
	}

	text := strings.TrimSpace(msg.Text)
	if command, ok := parseCommand(text); ok {
		handler := b.router.GetHandler(command)
		if handler == nil {
			b.logger.Debug("No handler found for command", "command", command, "userID", msg.UserID)
			b.notifier.Send(ctx, msg.UserID, msgUnknownCommand, nil)
			return nil
		}

		handlerType := fmt.Sprintf("%T", handler)
		b.logger.Info("Handling command", "command", command, "handler", handlerType, "userID", msg.UserID)
		if err := handler.Handle(ctx, msg); err != nil {
			b.logger.Error("Command failed", "command", command, "handler", handlerType, "userID", msg.UserID, "error", err)
			b.notifier.Send(ctx, msg.UserID, msgGenericFailure, nil)
		}
		return nil
	}

	handled, err := b.conversation.HandleText(ctx, msg)
	if err != nil {
		return fmt.Errorf("conversation failed for user %d: %w", msg.UserID, err)
	}
	if !handled {
		b.notifier.Send(ctx, msg.UserID, msgUnknownCommand, nil)
	}
	return nil
}

// HandleCallback processes one button press
func (b *Bot) HandleCallback(ctx context.Context, query entity.CallbackQuery) error {
	if err := b.accounts.Touch(ctx, query.UserID, query.Username, query.FirstName); err != nil {
		b.logger.Error("Failed to record user activity", "userID", query.UserID, "error", err)
	}

	action, err := entity.ParseCallbackAction(query.Data)
	if err != nil {
		b.logger.Warn("Rejected callback payload", "userID", query.UserID, "data", query.Data, "error", err)
		b.notifier.Answer(ctx, query.ID, "Unknown action")
		return nil
	}

	var answer string
	switch action.Kind {
	case entity.CallbackAirport, entity.CallbackTrackMethod, entity.CallbackFlight, entity.CallbackAlertNew:
		answer = b.conversation.HandleCallback(ctx, query.UserID, action)
	case entity.CallbackAlertCancel:
		answer = b.cancelAlert(ctx, query.UserID, action.Arg(0))
	case entity.CallbackAlertHistory:
		answer = b.showHistory(ctx, query.UserID, action.Arg(0))
	case entity.CallbackTrackCancel:
		answer = b.cancelTrack(ctx, query.UserID, action.Arg(0))
	case entity.CallbackRouteCancel:
		answer = b.cancelRoute(ctx, query.UserID, action.Arg(0))
	}

	b.notifier.Answer(ctx, query.ID, answer)
	return nil
}

func (b *Bot) cancelAlert(ctx context.Context, userID int64, alertID string) string {
	err := b.alerts.CancelAlert(ctx, userID, alertID)
	if answer, failed := b.ownershipAnswer(userID, "alert", err); failed {
		return answer
	}
	b.notifier.Send(ctx, userID, "🗑 Price alert stopped. Its history is kept.", nil)
	return "Alert cancelled"
}

func (b *Bot) showHistory(ctx context.Context, userID int64, alertID string) string {
	history, err := b.alerts.History(ctx, userID, alertID)
	if answer, failed := b.ownershipAnswer(userID, "alert", err); failed {
		return answer
	}
	b.notifier.Send(ctx, userID, formatHistory(history), nil)
	return ""
}

func (b *Bot) cancelTrack(ctx context.Context, userID int64, trackID string) string {
	err := b.tracker.CancelTrack(ctx, userID, trackID)
	if answer, failed := b.ownershipAnswer(userID, "track", err); failed {
		return answer
	}
	b.notifier.Send(ctx, userID, "🗑 Flight tracking stopped.", nil)
	return "Tracking cancelled"
}

func (b *Bot) cancelRoute(ctx context.Context, userID int64, routeKey string) string {
	n, err := b.tracker.CancelRoute(ctx, userID, routeKey)
	if answer, failed := b.ownershipAnswer(userID, "route", err); failed {
		return answer
	}
	b.notifier.Send(ctx, userID, fmt.Sprintf("🗑 Stopped tracking %d legs of the itinerary.", n), nil)
	return "Itinerary cancelled"
}

// ownershipAnswer maps a watch operation error to callback feedback
func (b *Bot) ownershipAnswer(userID int64, kind string, err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, entity.ErrNotOwner):
		return "This " + kind + " is not yours", true
	case errors.Is(err, entity.ErrNotFound):
		return "This " + kind + " no longer exists", true
	default:
		b.logger.Error("Watch operation failed", "kind", kind, "userID", userID, "error", err)
		return "Something went wrong", true
	}
}

// parseCommand extracts "search" from "/search@FlightBot extra"
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", false
	}
	command := fields[0]
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return strings.ToLower(command), command != ""
}
