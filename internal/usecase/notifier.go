package usecase

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"
)

// PriceChange is a notification-worthy price movement
type PriceChange struct {
	Alert      *entity.PriceAlert
	Reason     entity.PriceChangeReason
	Previous   *float64
	Current    float64
	Lowest     float64
	Currency   string
	Airline    string
	BookingURL string
}

// Notifier delivers decisions to users. Delivery is fire-and-forget:
// failures are logged and counted, never returned to the caller.
type Notifier struct {
	messenger repository.MessengerRepository
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(messenger repository.MessengerRepository, metrics *metrics.Metrics, logger logger.Logger) *Notifier {
	return &Notifier{
		messenger: messenger,
		metrics:   metrics,
		logger:    logger,
	}
}

// Send delivers a message with optional choices
func (n *Notifier) Send(ctx context.Context, userID int64, text string, keyboard entity.Keyboard) {
	if err := n.messenger.SendMessage(ctx, userID, text, keyboard); err != nil {
		n.logger.Error("Failed to send message", "userID", userID, "error", err)
		n.metrics.ErrorsCount.WithLabelValues("send_message").Inc()
	}
}

// Answer acknowledges a button press
func (n *Notifier) Answer(ctx context.Context, callbackID, text string) {
	if err := n.messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		n.logger.Warn("Failed to answer callback", "callbackID", callbackID, "error", err)
		n.metrics.ErrorsCount.WithLabelValues("answer_callback").Inc()
	}
}

// NotifyPriceChange tells the alert owner about a price movement
func (n *Notifier) NotifyPriceChange(ctx context.Context, change PriceChange) {
	n.logger.Info("Sending price notification",
		"alertID", change.Alert.ID,
		"userID", change.Alert.UserID,
		"reason", change.Reason,
		"price", change.Current)

	keyboard := entity.Keyboard{{
		{Label: "📊 History", Action: entity.NewCallbackAction(entity.CallbackAlertHistory, change.Alert.ID)},
		{Label: "🗑 Stop alert", Action: entity.NewCallbackAction(entity.CallbackAlertCancel, change.Alert.ID)},
	}}
	n.Send(ctx, change.Alert.UserID, formatPriceChange(change), keyboard)
	n.metrics.NotificationsSent.WithLabelValues(string(change.Reason)).Inc()
}

// NotifyFlightStatus tells the track owner about a schedule update
func (n *Notifier) NotifyFlightStatus(ctx context.Context, track *entity.FlightTrack, status *entity.FlightStatus, changes []entity.StatusChange) {
	n.logger.Info("Sending flight status notification",
		"trackID", track.ID,
		"userID", track.UserID,
		"flight", status.Designator.String(),
		"changes", changes)

	keyboard := entity.Keyboard{{
		{Label: "🗑 Stop tracking", Action: entity.NewCallbackAction(entity.CallbackTrackCancel, track.ID)},
	}}
	n.Send(ctx, track.UserID, formatFlightStatus(track, status, changes), keyboard)
	for _, c := range changes {
		n.metrics.NotificationsSent.WithLabelValues(string(c)).Inc()
	}
}
