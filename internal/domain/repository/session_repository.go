package repository

import (
	"context"

	"flightwatch-bot/internal/domain/entity"
)

// SessionRepository stores in-flight conversation state per user
type SessionRepository interface {
	Get(ctx context.Context, userID int64) (*entity.ConversationState, error)
	Set(ctx context.Context, userID int64, state *entity.ConversationState) error
	Delete(ctx context.Context, userID int64) error
}
