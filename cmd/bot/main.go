package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"terabox-telegram-bot/internal/app"
	"terabox-telegram-bot/internal/config"
	"terabox-telegram-bot/internal/delivery"
	"terabox-telegram-bot/internal/download"
	"terabox-telegram-bot/internal/gate"
	"terabox-telegram-bot/internal/queue"
	"terabox-telegram-bot/internal/storage"
	"terabox-telegram-bot/internal/telegram"
	"terabox-telegram-bot/internal/terabox"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config validation error", "err", err)
		os.Exit(2)
	}

	if err := os.MkdirAll(cfg.TmpDir, 0o700); err != nil {
		logger.Error("failed to create download dir", "dir", cfg.TmpDir, "err", err)
		os.Exit(2)
	}

	store, err := storage.Open(context.Background(), cfg.DBPath)
	if err != nil {
		logger.Error("failed to open storage", "err", err)
		os.Exit(2)
	}
	defer store.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("failed to init telegram bot", "err", err)
		os.Exit(2)
	}
	bot.Debug = cfg.TelegramDebug
	logger.Info("telegram bot initialized", "username", bot.Self.UserName)

	resolver, err := terabox.NewClient(terabox.ClientOpts{Cookie: cfg.Cookie()})
	if err != nil {
		logger.Error("failed to init terabox client", "err", err)
		os.Exit(2)
	}

	g := gate.New(cfg.UserRateLimit, cfg.RateWindow, cfg.MaxFileBytes, cfg.UserQuotaBytes)
	g.OwnerID = cfg.OwnerID

	application := &app.App{
		Bot:       bot,
		Cfg:       cfg,
		Store:     store,
		Gate:      g,
		Resolver:  resolver,
		Fetcher:   download.New(cfg.MaxFileBytes, cfg.DownloadTimeout),
		Deliverer: delivery.New(bot, logger),
		Logger:    logger,
	}
	application.Queue = queue.New(cfg.MaxConcurrent, cfg.QueueBacklog, application.RunJob, logger)

	setMyCommands(bot, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Queue.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.TelegramWebhookURL != "" {
		mux.Handle(cfg.TelegramWebhookPath, telegram.NewWebhookHandler(telegram.WebhookHandlerOpts{
			Bot:         bot,
			SecretToken: cfg.TelegramWebhookSecret,
			Logger:      logger,
			OnUpdate:    application.HandleUpdate,
		}))
	} else {
		go pollUpdates(ctx, bot, application, logger)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	bot.StopReceivingUpdates()
	application.Queue.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("shutdown complete")
}

// pollUpdates is the long-polling mode for deployments without a public URL.
func pollUpdates(ctx context.Context, bot *tgbotapi.BotAPI, application *app.App, logger *slog.Logger) {
	// A stale webhook blocks getUpdates.
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		logger.Warn("failed to delete webhook", "err", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)
	logger.Info("long polling started")

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			go func(u tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("panic in update handler", "recover", r)
					}
				}()
				application.HandleUpdate(ctx, u)
			}(upd)
		}
	}
}

func setMyCommands(bot *tgbotapi.BotAPI, logger *slog.Logger) {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "menu", Description: "Main menu"},
		tgbotapi.BotCommand{Command: "help", Description: "How to use"},
		tgbotapi.BotCommand{Command: "limits", Description: "Limits & quotas"},
		tgbotapi.BotCommand{Command: "privacy", Description: "Privacy & terms"},
	)
	if _, err := bot.Request(cmds); err != nil {
		logger.Warn("failed to set bot commands", "err", err)
	}
}
