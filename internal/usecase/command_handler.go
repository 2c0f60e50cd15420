package usecase

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// CommandHandler defines the interface for bot command handlers
type CommandHandler interface {
	// CanHandle determines if this handler serves the given command name (without the slash)
	CanHandle(command string) bool

	// Handle runs the command for the sending user
	Handle(ctx context.Context, msg entity.IncomingMessage) error
}

// CommandRouter routes commands to the appropriate handler
type CommandRouter interface {
	// Register registers a handler
	Register(handler CommandHandler)

	// GetHandler returns the handler for a command, or nil
	GetHandler(command string) CommandHandler
}
