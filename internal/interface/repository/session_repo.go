package repository

import (
	"context"
	"sync"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/domain/repository"
)

// MemorySessionRepository keeps conversation state in process memory.
// State is lost on restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.ConversationState
}

// NewMemorySessionRepository creates an empty session store
func NewMemorySessionRepository() repository.SessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.ConversationState),
	}
}

// Get returns a copy of the user's state or entity.ErrNotFound
func (r *MemorySessionRepository) Get(_ context.Context, userID int64) (*entity.ConversationState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.sessions[userID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return state.Clone(), nil
}

// Set replaces the user's state with a copy of state
func (r *MemorySessionRepository) Set(_ context.Context, userID int64, state *entity.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = state.Clone()
	return nil
}

// Delete drops the user's state
func (r *MemorySessionRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}
