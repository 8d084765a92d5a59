package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/config"
	"github.com/kosarica/catalog-service/internal/ai"
	"github.com/kosarica/catalog-service/internal/auth"
	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/chat"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/handlers"
	"github.com/kosarica/catalog-service/internal/telemetry"
)

// @title Catalog Service API
// @version 1.0
// @description Croatian grocery price catalog: ingestion control plane, product search, and the shopping assistant.
// @BasePath /
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog service")

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	shutdownTelemetry := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down telemetry")
		}
	}()

	if cfg.Golden.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, search falls back to lexical matching and chat turns will fail")
	}
	provider := ai.NewOpenAIProvider(cfg.Golden.OpenAIAPIKey, cfg.Golden.LLMModel, cfg.Golden.EmbeddingModel)

	pool := database.Pool()
	catalogSvc := catalog.NewService(pool, provider)

	jwtManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	authSvc := auth.NewService(pool, jwtManager, nil)

	registry := chat.NewRegistry(catalogSvc)
	orchestrator := chat.New(provider, chat.NewStore(pool), registry, cfg.Chat.MaxToolCalls)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.Deps{
		Pool:           pool,
		Catalog:        catalogSvc,
		Auth:           authSvc,
		ChatRunner:     orchestrator,
		InternalAPIKey: cfg.Crawler.InternalAPIKey,
		RateLimitRPS:   float64(cfg.RateLimit.APIRequestsPerSecond),
		RateLimitBurst: cfg.RateLimit.APIBurst,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// No write timeout: chat responses are long-lived SSE streams.
		WriteTimeout: 0,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "catalog-service").Logger()
	zlog.Logger = logger
	return logger
}
