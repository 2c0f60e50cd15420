package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flightwatch-bot/internal/domain/entity"
	"flightwatch-bot/internal/interface/telegram"
	"flightwatch-bot/pkg/logger"

	"github.com/go-resty/resty/v2"
)

// TelegramRepository sends messages through the Telegram Bot API
type TelegramRepository struct {
	client *resty.Client
	logger logger.Logger
}

// NewTelegramRepository creates a new Telegram repository.
// apiURL is usually https://api.telegram.org.
func NewTelegramRepository(apiURL, token string, timeout time.Duration, logger logger.Logger) *TelegramRepository {
	client := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")+"/bot"+token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &TelegramRepository{
		client: client,
		logger: logger,
	}
}

// SendMessage sends plain text with an optional inline keyboard
func (r *TelegramRepository) SendMessage(ctx context.Context, chatID int64, text string, keyboard entity.Keyboard) error {
	req := telegram.SendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}

	if len(keyboard) > 0 {
		markup, err := toMarkup(keyboard)
		if err != nil {
			return err
		}
		req.ReplyMarkup = markup
	}

	if _, err := r.call(ctx, "sendMessage", &req); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, showing text as a toast when set
func (r *TelegramRepository) AnswerCallback(ctx context.Context, callbackID, text string) error {
	req := telegram.AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	}
	if _, err := r.call(ctx, "answerCallbackQuery", &req); err != nil {
		return fmt.Errorf("failed to answer callback %s: %w", callbackID, err)
	}
	return nil
}

// SetWebhook registers url as the update endpoint of the bot
func (r *TelegramRepository) SetWebhook(ctx context.Context, url, secret string) error {
	req := telegram.SetWebhookRequest{
		URL:            url,
		SecretToken:    secret,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	if _, err := r.call(ctx, "setWebhook", &req); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	r.logger.Info("Webhook registered", "url", url)
	return nil
}

func (r *TelegramRepository) call(ctx context.Context, method string, body interface{}) (json.RawMessage, error) {
	var result telegram.APIResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&result).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}

	if resp.IsError() || !result.OK {
		return nil, fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode(), result.Description)
	}
	return result.Result, nil
}

func toMarkup(keyboard entity.Keyboard) (*telegram.InlineKeyboardMarkup, error) {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			data, err := choice.Action.Encode()
			if err != nil {
				return nil, fmt.Errorf("button %q: %w", choice.Label, err)
			}
			buttons = append(buttons, telegram.InlineKeyboardButton{
				Text:         choice.Label,
				CallbackData: data,
			})
		}
		rows = append(rows, buttons)
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}
