package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/AhhHereWeGoAgain/Leonid/internal/auth"
	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/jwt"
	"github.com/AhhHereWeGoAgain/Leonid/internal/auth/password"
	"github.com/AhhHereWeGoAgain/Leonid/internal/config"
	"github.com/AhhHereWeGoAgain/Leonid/internal/events"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/chat"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/history"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/login"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/logout"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/refresh"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/handlers/register"
	"github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/authn"
	rateLimit "github.com/AhhHereWeGoAgain/Leonid/internal/http_server/middleware/ratelimit"
	"github.com/AhhHereWeGoAgain/Leonid/internal/llm"
	"github.com/AhhHereWeGoAgain/Leonid/internal/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad(configPath())

	log := setupLogger(cfg)

	log.Info("starting leonid", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	publisher, err := events.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer publisher.Close()

	tokens := jwt.NewManager(cfg.Tokens.JWTSecret, cfg.Tokens.AccessTokenTTL)
	hasher := password.NewHasher(password.DefaultParams())

	authService := auth.New(
		log,
		storage,
		storage,
		storage,
		publisher,
		hasher,
		tokens,
		cfg.Tokens.SessionTTL,
	)

	llmClient := llm.New(cfg.LLM)

	router := setupRouter(log, cfg, authService, tokens, storage, llmClient)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.LLM.Timeout + cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", slog.String("err", err.Error()))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", slog.String("err", err.Error()))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Main service stopped")
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	authService *auth.Auth,
	tokens *jwt.Manager,
	storage *postgres.PostgresRepo,
	llmClient *llm.Client,
) *chi.Mux {
	validate := validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.With(rateLimit.Register()).Post("/register",
		register.New(log, validate, authService),
	)
	r.With(rateLimit.Login()).Post("/login",
		login.New(log, validate, authService, cfg.Cookie, cfg.Tokens.SessionTTL),
	)
	r.With(rateLimit.Refresh()).Post("/refresh",
		refresh.New(log, authService, cfg.Cookie),
	)
	r.With(rateLimit.Logout()).Post("/logout",
		logout.New(log, authService, cfg.Cookie),
	)

	guard := authn.New(log, tokens, cfg.AuthDebug)

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.With(rateLimit.Chat()).Post("/chat",
			chat.New(log, validate, storage, llmClient),
		)
		r.Get("/history",
			history.New(log, storage),
		)
	})

	return r
}

func setupLogger(cfg *config.Config) *slog.Logger {
	fileOut := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Logs.Dir, "app.log"),
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
	}

	out := io.MultiWriter(os.Stdout, fileOut)

	var log *slog.Logger

	switch cfg.Env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "./config/config.yaml"
}
