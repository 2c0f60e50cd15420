package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/pkg/logger"
)

// SecretHeader carries the secret registered with setWebhook
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateProcessor consumes decoded chat updates
type UpdateProcessor interface {
	HandleMessage(ctx context.Context, msg entity.IncomingMessage) error
	HandleCallback(ctx context.Context, query entity.CallbackQuery) error
}

// UpdateHandler receives webhook deliveries
type UpdateHandler struct {
	processor UpdateProcessor
	secret    string
	logger    logger.Logger
}

// NewUpdateHandler creates a webhook handler. An empty secret disables the header check.
func NewUpdateHandler(processor UpdateProcessor, secret string, logger logger.Logger) *UpdateHandler {
	return &UpdateHandler{
		processor: processor,
		secret:    secret,
		logger:    logger,
	}
}

// ServeHTTP answers 200 for every authenticated delivery so the Bot API
// does not redeliver updates that failed inside the bot
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("Rejected webhook call with bad secret", "remote", r.RemoteAddr)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var update Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		h.logger.Warn("Failed to decode update", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.dispatch(r.Context(), update); err != nil {
		h.logger.Error("Failed to process update", "updateID", update.UpdateID, "error", err)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UpdateHandler) dispatch(ctx context.Context, update Update) error {
	switch {
	case update.Message != nil && update.Message.From != nil:
		msg := update.Message
		if msg.Chat.Type != "" && msg.Chat.Type != "private" {
			h.logger.Debug("Ignoring non-private chat", "chatID", msg.Chat.ID, "type", msg.Chat.Type)
			return nil
		}
		if msg.Text == "" {
			return nil
		}
		return h.processor.HandleMessage(ctx, entity.IncomingMessage{
			UserID:    msg.From.ID,
			Username:  msg.From.Username,
			FirstName: msg.From.FirstName,
			Text:      msg.Text,
		})
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		return h.processor.HandleCallback(ctx, entity.CallbackQuery{
			ID:        query.ID,
			UserID:    query.From.ID,
			Username:  query.From.Username,
			FirstName: query.From.FirstName,
			Data:      query.Data,
		})
	default:
		h.logger.Debug("Ignoring unsupported update", "updateID", update.UpdateID)
		return nil
	}
}
