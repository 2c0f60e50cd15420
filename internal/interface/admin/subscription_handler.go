package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"

	"github.com/gorilla/mux"
)

// SubscriptionPath is mounted on the HTTP router with a PUT route
const SubscriptionPath = "/admin/users/{userID}/subscription"

// SubscriptionUpdater changes a user's billing tier
type SubscriptionUpdater interface {
	SetSubscription(ctx context.Context, userID int64, tier entity.SubscriptionTier, expiry *time.Time) error
}

// SubscriptionRequest is the body of a subscription change
type SubscriptionRequest struct {
	Tier      entity.SubscriptionTier `json:"tier"`
	ExpiresAt *time.Time              `json:"expiresAt,omitempty"`
}

// SubscriptionHandler lets operators change a user's tier over HTTP
type SubscriptionHandler struct {
	updater SubscriptionUpdater
	token   string
	logger  logger.Logger
}

// NewSubscriptionHandler creates the handler. Requests must carry token as a bearer token.
func NewSubscriptionHandler(updater SubscriptionUpdater, token string, logger logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		updater: updater,
		token:   token,
		logger:  logger,
	}
}

func (h *SubscriptionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		h.logger.Warn("Rejected admin call", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var req SubscriptionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	err = h.updater.SetSubscription(r.Context(), userID, req.Tier, req.ExpiresAt)
	switch {
	case err == nil:
		h.logger.Info("Subscription changed by operator", "userID", userID, "tier", req.Tier)
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, entity.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entity.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to change subscription", "userID", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
