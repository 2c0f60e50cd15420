package router

import (
	"fmt"

	"flightwatch-bot/internal/usecase"
	"flightwatch-bot/pkg/logger"
)

// CommandRouter routes bot commands to the first handler that accepts them
type CommandRouter struct {
	handlers []usecase.CommandHandler
	logger   logger.Logger
}

// NewCommandRouter creates a new command router
func NewCommandRouter(logger logger.Logger) *CommandRouter {
	return &CommandRouter{
		handlers: make([]usecase.CommandHandler, 0),
		logger:   logger,
	}
}

// Register registers a handler
func (r *CommandRouter) Register(handler usecase.CommandHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the appropriate handler for a command name
func (r *CommandRouter) GetHandler(command string) usecase.CommandHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(command) {
			return handler
		}
	}
	return nil
}
