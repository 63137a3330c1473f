package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wellnesschat/backend/internal/api/handler"
	"wellnesschat/backend/internal/booking"
	"wellnesschat/backend/internal/chathub"
	"wellnesschat/backend/internal/config"
	"wellnesschat/backend/internal/events"
	"wellnesschat/backend/internal/localization"
	"wellnesschat/backend/internal/storage"
	"wellnesschat/backend/internal/telegram"
	"wellnesschat/backend/internal/wellness"
	"wellnesschat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// setupStateRepository picks the live state backend. A backend that cannot be reached
// falls back to memory so the peer chat keeps working.
func setupStateRepository(ctx context.Context, cfg config.Config, log logger.Logger) (storage.StateRepository, func()) {
	switch cfg.StateBackend {
	case "redis":
		repo, err := storage.NewRedisStateRepository(ctx, cfg.RedisURL, cfg.StateKey)
		if err != nil {
			log.Warnf("Redis state backend unavailable, running in memory only: %v", err)
			return storage.NewMemoryStateRepository(), func() {}
		}
		return repo, func() { _ = repo.Close() }
	case "memory":
		return storage.NewMemoryStateRepository(), func() {}
	default:
		return storage.NewFileStateRepository(cfg.StateFile), func() {}
	}
}

func main() {
	cfg := config.MustLoad()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Infof("Starting wellness chat backend...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Archive database
	db, err := storage.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		appLog.Fatalf("Failed to open database: %v", err)
	}
	store := storage.NewStorageService(db)
	if err := store.Migrate(); err != nil {
		appLog.Fatalf("Failed to run migrations: %v", err)
	}

	// 2. Peer chat hub
	hub := chathub.NewManagerService(appLog, chathub.Options{
		WaitTTL:   cfg.PeerWaitTTL,
		Retention: cfg.Retention(),
	})
	repo, closeRepo := setupStateRepository(ctx, cfg, appLog)
	defer closeRepo()
	hub.SetStateRepository(repo)
	hub.SetArchive(store)

	if cfg.NATSURL != "" {
		nc, err := events.NewNATSClient(cfg.NATSURL)
		if err != nil {
			appLog.Warnf("NATS unavailable, room events will not be published: %v", err)
		} else {
			defer nc.Close()
			hub.SetEventPublisher(nc)
		}
	}

	go hub.Run(ctx)
	if err := hub.Restore(ctx); err != nil {
		appLog.Warnf("Starting with an empty peer chat state: %v", err)
	}

	// 3. Supporting services
	var notifier booking.Notifier
	if cfg.RabbitURL != "" {
		pub, err := booking.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			appLog.Warnf("RabbitMQ unavailable, counselors will not be notified of bookings: %v", err)
		} else {
			defer pub.Close()
			notifier = pub
		}
	}
	bookings := booking.NewService(store, notifier, appLog)

	localizer, err := localization.NewDefaultLocalizer()
	if err != nil {
		appLog.Fatalf("Failed to load translations: %v", err)
	}
	bot := wellness.NewBot(nil)

	if cfg.TelegramBotToken != "" {
		botService, err := telegram.NewBotService(cfg.TelegramBotToken, hub, bot, localizer, store, appLog)
		if err != nil {
			appLog.Errorf("Failed to start Telegram bot: %v", err)
		} else {
			go botService.Run(ctx)
		}
	}

	// 4. HTTP
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(hub, store, bot, bookings, localizer, handler.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), cfg.Locale, appLog)
	h.AdminToken = cfg.AdminToken
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(h, cfg.CORSOrigins),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		appLog.Infof("Listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	appLog.Infof("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Errorf("HTTP shutdown: %v", err)
	}
}
