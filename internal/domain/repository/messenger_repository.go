package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// MessengerRepository defines the interface for chat transport operations
type MessengerRepository interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard entity.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
