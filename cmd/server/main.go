package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"web_summarizer/internal/config"
	"web_summarizer/internal/llm"
	"web_summarizer/internal/publisher"
	"web_summarizer/internal/server"
	"web_summarizer/internal/service"
	"web_summarizer/internal/source/web"
	"web_summarizer/internal/source/youtube"
	"web_summarizer/internal/storage/memory"
	"web_summarizer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if cfg.LLM.APIKey == "" {
		logger.Error("llm api key is not configured")
		os.Exit(1)
	}

	sessionSecret := cfg.Server.SessionSecret
	if sessionSecret == "" {
		// Ephemeral secret: cookies do not survive a restart.
		sessionSecret = randomSecret()
		logger.Warn("no session secret configured, using an ephemeral one")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summarizer, err := llm.New(ctx, llm.Config{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		SummaryTimeout: cfg.LLM.SummaryTimeout,
		TitleTimeout:   cfg.LLM.TitleTimeout,
		Temperature:    cfg.LLM.Temperature,
		TopP:           cfg.LLM.TopP,
	}, logger)
	if err != nil {
		logger.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	// Initialize summary store
	var store service.SummaryStore
	switch cfg.Store.Backend {
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.Store.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")
		store = postgres.NewPendingSummaryStore(db, cfg.Store.TTL)
	case "memory":
		store = memory.New(cfg.Store.TTL, logger)
	default:
		logger.Error("unknown store backend", "backend", cfg.Store.Backend)
		os.Exit(1)
	}

	// Optional bookmark service integration
	var bookmarks service.BookmarkPublisher
	if cfg.Karakeep.Enabled() {
		bookmarks = publisher.NewKarakeep(publisher.KarakeepConfig{
			APIURL:   cfg.Karakeep.APIURL,
			APIKey:   cfg.Karakeep.APIKey,
			ListName: cfg.Karakeep.ListName,
		}, logger)
		logger.Info("bookmark integration enabled", "list", cfg.Karakeep.ListName)
	}

	// Optional RabbitMQ event feed
	var events service.EventPublisher
	if cfg.Events.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.RabbitMQConfig{
			URL:        cfg.Events.URL,
			Exchange:   cfg.Events.Exchange,
			RoutingKey: cfg.Events.RoutingKey,
			QueueName:  cfg.Events.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	webFetcher := web.New(web.Config{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
	}, logger)

	transcriptFetcher := youtube.New(youtube.Config{
		BaseURL: cfg.YouTube.BaseURL,
		Timeout: cfg.YouTube.Timeout,
	}, logger)

	summaryService := service.NewSummaryService(
		webFetcher,
		transcriptFetcher,
		summarizer,
		store,
		bookmarks,
		events,
		logger,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server.New(summaryService, sessionSecret, logger),
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("starting web summarizer",
		"address", cfg.Server.Address,
		"store", cfg.Store.Backend,
		"model", cfg.LLM.Model,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
