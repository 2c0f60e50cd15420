package templates

import (
	"context"
	"fmt"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
)

const helpText = `Here is what I can do:

/search - find flights and their prices
/track - follow a flight's schedule, by route or by flight number
/alerts - your price alerts
/flights - the flights you are tracking
/cancel - stop the current question
/help - this message

Price alerts are checked every hour. Tracked flights every 15 minutes.`

// StartHandler greets new users and explains the commands
type StartHandler struct {
	sender Sender
	logger logger.Logger
}

// NewStartHandler creates a new start/help handler
func NewStartHandler(sender Sender, logger logger.Logger) *StartHandler {
	return &StartHandler{
		sender: sender,
		logger: logger,
	}
}

// CanHandle determines if this handler serves the command
func (h *StartHandler) CanHandle(command string) bool {
	return matches(command, "start", "help")
}

// Handle sends the welcome or help text
func (h *StartHandler) Handle(ctx context.Context, msg entity.IncomingMessage) error {
	text := helpText
	if parseCommandName(msg.Text) == "start" {
		name := msg.FirstName
		if name == "" {
			name = "there"
		}
		text = fmt.Sprintf("👋 Hi %s! I watch flight prices and schedules for you.\n\n%s", name, helpText)
	}
	h.sender.Send(ctx, msg.UserID, text, nil)
	return nil
}
