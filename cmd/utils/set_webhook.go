package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"flightwatch-bot/internal/infrastructure/config"
	"flightwatch-bot/internal/infrastructure/oauth"
	repo "flightwatch-bot/internal/interface/repository"
	"flightwatch-bot/pkg/logger"
)

// Registers the Telegram webhook and checks the Amadeus credentials
func main() {
	skipToken := flag.Bool("skip-token", false, "do not request an Amadeus access token")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !*skipToken {
		ts := oauth.NewAmadeusOAuth(cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret, cfg.AmadeusTokenEarlyExpiry, log).GetTokenSource(ctx)
		token, err := ts.Token()
		if err != nil {
			log.Fatal("Amadeus credentials rejected", "error", err)
		}
		fmt.Printf("Amadeus token OK, expires %s\n", token.Expiry.Format(time.RFC3339))
	}

	if cfg.TelegramWebhookURL == "" {
		log.Fatal("TELEGRAM_WEBHOOK_URL is not set")
	}
	telegram := repo.NewTelegramRepository(cfg.TelegramAPIURL, cfg.TelegramBotToken, 30*time.Second, log)
	if err := telegram.SetWebhook(ctx, cfg.TelegramWebhookURL, cfg.TelegramWebhookSecret); err != nil {
		log.Fatal("Failed to register webhook", "error", err)
	}
	fmt.Printf("Webhook registered at %s\n", cfg.TelegramWebhookURL)
}
