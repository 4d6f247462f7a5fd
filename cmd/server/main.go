// BallIQ - fantasy football assistant web front end
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

	"github.com/balliq/balliq-web/internal/account"
	"github.com/balliq/balliq-web/internal/api"
	"github.com/balliq/balliq-web/internal/auth"
	"github.com/balliq/balliq-web/internal/chat"
	"github.com/balliq/balliq-web/internal/config"
	"github.com/balliq/balliq-web/internal/contact"
	"github.com/balliq/balliq-web/internal/engine"
	"github.com/balliq/balliq-web/internal/session"
	"github.com/balliq/balliq-web/internal/store"
	"github.com/balliq/balliq-web/web"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	content, err := web.LoadContent(cfg.ContentFile)
	if err != nil {
		slog.Error("Failed to load site content", "error", err)
		os.Exit(1)
	}
	renderer, err := web.NewRenderer(logger)
	if err != nil {
		slog.Error("Failed to parse templates", "error", err)
		os.Exit(1)
	}

	// Answering engine (optional). Without it every reply is the fallback message.
	var eng engine.Engine = engine.Unconfigured{}
	var engineHealth api.EngineChecker
	if cfg.Engine.Addr != "" {
		grpcCfg := engine.DefaultGrpcClientConfig()
		grpcCfg.Address = cfg.Engine.Addr
		grpcCfg.RequestTimeout = cfg.Engine.Timeout

		grpcClient, err := engine.NewGrpcClientWithConfig(grpcCfg, logger)
		if err != nil {
			slog.Warn("Failed to connect to answering engine, chat replies will use the fallback message", "error", err)
		} else {
			defer grpcClient.Close()
			eng = grpcClient
			engineHealth = grpcClient
		}
	} else {
		slog.Info("Answering engine disabled (ENGINE_ADDR not set)")
	}

	conversationLogger, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:   cfg.ConversationLog.Enabled,
		Dir:       cfg.ConversationLog.Dir,
		QueueSize: cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Warn("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize services.
	accounts := account.NewAdapter(repo, logger)
	sessions := session.NewManager(repo, session.Config{
		TTL:    cfg.SessionTTL,
		Secure: !cfg.IsDevelopment(),
	}, logger)
	authService := auth.NewService(accounts, auth.Config{
		RedirectDelay: cfg.RedirectDelay,
		RegisterDelay: cfg.RegisterDelay,
	}, logger)
	orchestrator := chat.NewOrchestrator(eng, chat.Config{
		Pacing: chat.Pacing{
			SpaceDelay:   cfg.Chat.SpaceDelay,
			NewlineDelay: cfg.Chat.NewlineDelay,
		},
		ContextVersion: cfg.Engine.ContextVersion,
	}, conversationLogger, logger)

	// Initialize handlers.
	handler := api.NewHandler(api.Deps{
		Sessions:  sessions,
		Auth:      authService,
		Chat:      orchestrator,
		Contact:   contact.NewRelay(cfg.ContactRelayURL, logger),
		Renderer:  renderer,
		Content:   content,
		Logger:    logger,
		PublicURL: cfg.PublicURL,
		IsDev:     cfg.IsDevelopment(),
	})

	allowedOrigins := []string{"*"}
	if !cfg.IsDevelopment() {
		allowedOrigins = []string{cfg.PublicURL}
	}
	router := api.NewRouter(api.RouterConfig{
		Handler:        handler,
		Health:         api.NewHealthHandler(repo, engineHealth),
		Sessions:       sessions,
		AllowedOrigins: allowedOrigins,
	})

	// Create server.
	// Chat replies stream over SSE, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartSweeper(ctx, cfg.SessionSweepInterval)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
