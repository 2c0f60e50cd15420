package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightwatch-bot/internal/domain/repository"
	"flightwatch-bot/internal/infrastructure/config"
	"flightwatch-bot/internal/infrastructure/oauth"
	"flightwatch-bot/internal/infrastructure/persistence"
	"flightwatch-bot/internal/infrastructure/router"
	"flightwatch-bot/internal/infrastructure/scheduler"
	"flightwatch-bot/internal/interface/admin"
	"flightwatch-bot/internal/interface/amadeus"
	repo "flightwatch-bot/internal/interface/repository"
	"flightwatch-bot/internal/interface/telegram"
	"flightwatch-bot/internal/usecase"
	"flightwatch-bot/pkg/logger"
	"flightwatch-bot/pkg/metrics"
	"flightwatch-bot/templates"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting FlightWatch bot", "version", cfg.AppVersion)

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up MongoDB connection
	log.Info("Connecting to MongoDB")
	mongoClient, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoUser, cfg.MongoPassword)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	db := persistence.GetDatabase(mongoClient, cfg.MongoDB)

	// Set up repositories
	userRepo := repo.NewMongoUserRepository(db)
	alertRepo := repo.NewMongoPriceAlertRepository(db)
	historyRepo := repo.NewMongoPriceHistoryRepository(db)
	trackRepo := repo.NewMongoFlightTrackRepository(db)
	sessionRepo := repo.NewMemorySessionRepository()
	telegramRepo := repo.NewTelegramRepository(cfg.TelegramAPIURL, cfg.TelegramBotToken, 30*time.Second, log)

	// Reference data is optional; without it airports come from the provider
	// and airlines from the built-in table
	var airlineRepo repository.AirlineRepository
	var airportRepo repository.AirportRepository
	if cfg.PostgresDSN != "" {
		gormDB, err := persistence.NewPostgresDB(cfg.PostgresDSN)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", "error", err)
		}
		if err := repo.MigrateReferenceData(gormDB); err != nil {
			log.Fatal("Failed to migrate reference data", "error", err)
		}
		airlineRepo = repo.NewGormAirlineRepository(gormDB)
		airportRepo = repo.NewGormAirportRepository(gormDB)
	}

	m := metrics.NewMetrics("flightwatch", prometheus.DefaultRegisterer)

	// Flight data provider
	amadeusOAuth := oauth.NewAmadeusOAuth(cfg.AmadeusBaseURL, cfg.AmadeusClientID, cfg.AmadeusClientSecret, cfg.AmadeusTokenEarlyExpiry, log)
	flightData := amadeus.NewAmadeusService(ctx, amadeusOAuth.GetTokenSource(ctx), m, log, amadeus.AmadeusOptions{
		BaseURL:      cfg.AmadeusBaseURL,
		RetryCount:   cfg.ProviderRetryCount,
		RetryWait:    cfg.ProviderRetryWait,
		RetryMaxWait: 10 * cfg.ProviderRetryWait,
		Timeout:      cfg.ProviderTimeout,
		MaxOffers:    cfg.MaxOffers,
	})

	// Usecases
	notifier := usecase.NewNotifier(telegramRepo, m, log)
	accounts := usecase.NewAccountService(userRepo, alertRepo, trackRepo, usecase.Quota{
		MaxAlerts: cfg.FreeTierMaxAlerts,
		MaxTracks: cfg.FreeTierMaxTracks,
	}, log)
	alertService := usecase.NewAlertService(alertRepo, historyRepo, accounts, log)
	priceMonitor := usecase.NewPriceMonitor(alertRepo, historyRepo, flightData, notifier, m, log, usecase.PriceMonitorOptions{
		Policy: usecase.DropPolicy{MinAmount: cfg.SignificantDropAmount, MinPercent: cfg.SignificantDropPercent},
		Delay:  cfg.PriceCheckDelay,
	})
	flightTracker := usecase.NewFlightTracker(trackRepo, flightData, notifier, m, log, usecase.FlightTrackerOptions{
		Policy: usecase.TrackerPolicy{ScheduleChangeThreshold: cfg.ScheduleChangeThreshold, Heartbeat: cfg.StatusHeartbeat},
		Delay:  cfg.FlightCheckDelay,
	})

	airlines := usecase.NewAirlineResolver()
	if airlineRepo != nil {
		added, err := airlines.LoadFrom(ctx, airlineRepo)
		if err != nil {
			log.Warn("Failed to load airline reference data", "error", err)
		} else {
			log.Info("Loaded airline reference data", "added", added)
		}
	}
	airports := usecase.NewAirportResolver(airportRepo, flightData, log)

	conversation := usecase.NewConversation(sessionRepo, airports, airlines, flightData, alertService, flightTracker, accounts, notifier, log,
		usecase.ConversationOptions{HorizonDays: cfg.BookingHorizonDays, MaxOffers: cfg.MaxOffers})

	// Commands
	commands := router.NewCommandRouter(log)
	commands.Register(templates.NewStartHandler(notifier, log))
	commands.Register(templates.NewAlertsHandler(alertService, notifier, log))
	commands.Register(templates.NewFlightsHandler(flightTracker, notifier, log))
	commands.Register(usecase.NewCommandAdapter(conversation.StartSearch, "search"))
	commands.Register(usecase.NewCommandAdapter(conversation.StartTracking, "track"))
	commands.Register(usecase.NewCommandAdapter(func(ctx context.Context, userID int64) error {
		_, err := conversation.Cancel(ctx, userID)
		return err
	}, "cancel"))

	bot := usecase.NewBot(commands, conversation, alertService, flightTracker, accounts, notifier, log)

	// Background cycles
	jobs := scheduler.NewScheduler(ctx, log)
	if err := jobs.AddJob(metrics.CyclePrice, cfg.PriceCheckSchedule, priceMonitor.CheckAllAlerts); err != nil {
		log.Fatal("Failed to schedule price checks", "error", err)
	}
	if err := jobs.AddJob(metrics.CycleFlight, cfg.FlightCheckSchedule, flightTracker.CheckAllTrackedFlights); err != nil {
		log.Fatal("Failed to schedule flight checks", "error", err)
	}
	jobs.Start()

	// Set up HTTP server for the webhook and metrics
	webhook := telegram.NewUpdateHandler(bot, cfg.TelegramWebhookSecret, log)
	var subscriptions http.Handler
	if cfg.AdminToken != "" {
		subscriptions = admin.NewSubscriptionHandler(accounts, cfg.AdminToken, log)
	}
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewHTTPRouter(webhook, subscriptions, prometheus.DefaultGatherer, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop running cycles
	jobs.Stop(10 * time.Second)

	// Disconnect from MongoDB
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error("MongoDB disconnect error", "error", err)
	}

	log.Info("FlightWatch bot stopped")
}
