package templates

import (
	"context"
	"fmt"
	"strings"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/utils"
)

// AlertLister lists a user's active price alerts
type AlertLister interface {
	ListActive(ctx context.Context, userID int64) ([]*entity.PriceAlert, error)
}

// AlertsHandler handles the /alerts command
type AlertsHandler struct {
	alerts AlertLister
	sender Sender
	logger logger.Logger
}

// NewAlertsHandler creates a new alerts handler
func NewAlertsHandler(alerts AlertLister, sender Sender, logger logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		alerts: alerts,
		sender: sender,
		logger: logger,
	}
}

// CanHandle determines if this handler serves the command
func (h *AlertsHandler) CanHandle(command string) bool {
	return matches(command, "alerts")
}

// Handle lists active alerts with history and cancel buttons
func (h *AlertsHandler) Handle(ctx context.Context, msg entity.IncomingMessage) error {
	alerts, err := h.alerts.ListActive(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	if len(alerts) == 0 {
		h.sender.Send(ctx, msg.UserID, "You have no price alerts. Run /search and tap \"Create alert\" on a result.", nil)
		return nil
	}

	var b strings.Builder
	keyboard := make(entity.Keyboard, 0, len(alerts))
	fmt.Fprintf(&b, "🔔 Your price alerts (%d)\n", len(alerts))
	for i, alert := range alerts {
		fmt.Fprintf(&b, "\n%d. %s on %s", i+1, alert.Route(), alert.DepartureDate)
		if alert.ReturnDate != "" {
			fmt.Fprintf(&b, ", back %s", alert.ReturnDate)
		}
		b.WriteString("\n   ")
		if alert.CurrentPrice != nil {
			fmt.Fprintf(&b, "Now %s", utils.FormatPrice(*alert.CurrentPrice, alert.Currency))
			if alert.LowestPrice != nil {
				fmt.Fprintf(&b, ", lowest %s", utils.FormatPrice(*alert.LowestPrice, alert.Currency))
			}
		} else {
			b.WriteString("Not checked yet")
		}
		if alert.TargetPrice > 0 {
			fmt.Fprintf(&b, ", target %s", utils.FormatPrice(alert.TargetPrice, alert.Currency))
		} else {
			b.WriteString(", any change")
		}

		keyboard = append(keyboard, []entity.Choice{
			{Label: fmt.Sprintf("📊 %d. History", i+1), Action: entity.NewCallbackAction(entity.CallbackAlertHistory, alert.ID)},
			{Label: fmt.Sprintf("🗑 %d. Cancel", i+1), Action: entity.NewCallbackAction(entity.CallbackAlertCancel, alert.ID)},
		})
	}

	h.sender.Send(ctx, msg.UserID, b.String(), keyboard)
	return nil
}
