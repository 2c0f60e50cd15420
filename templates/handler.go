package templates

import (
	"context"
	"strings"

	"flightwatch-bot/internal/domain/entity"
)

// Sender delivers a chat message to a user
type Sender interface {
	Send(ctx context.Context, userID int64, text string, keyboard entity.Keyboard)
}

// matches reports whether command is one of names, ignoring case
func matches(command string, names ...string) bool {
	for _, name := range names {
		if strings.EqualFold(command, name) {
			return true
		}
	}
	return false
}

// parseCommandName returns "start" for "/start@bot payload"
func parseCommandName(text string) string {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(text), "/"))
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}
