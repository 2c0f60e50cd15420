package usecase

import (
	"context"
	"strings"

	"flightwatch-bot/internal/domain/entity"
)

// CommandAdapter adapts a user-scoped usecase call to the CommandHandler interface
type CommandAdapter struct {
	run   func(ctx context.Context, userID int64) error
	names []string
}

// NewCommandAdapter creates a new adapter answering to the given command names
func NewCommandAdapter(run func(ctx context.Context, userID int64) error, names ...string) *CommandAdapter {
	return &CommandAdapter{
		run:   run,
		names: names,
	}
}

// CanHandle checks if this handler serves the command
func (a *CommandAdapter) CanHandle(command string) bool {
	for _, name := range a.names {
		if strings.EqualFold(command, name) {
			return true
		}
	}
	return false
}

// Handle runs the wrapped call for the sender
func (a *CommandAdapter) Handle(ctx context.Context, msg entity.IncomingMessage) error {
	return a.run(ctx, msg.UserID)
}
