package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodatlas-backend/internal/handlers"
	"foodatlas-backend/internal/repository/ddb"
	"foodatlas-backend/internal/service/llm"
	"foodatlas-backend/internal/service/search"
	"foodatlas-backend/internal/service/taxonomy"
	"foodatlas-backend/internal/tracing"
	"foodatlas-backend/pkg/config"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()

	logger, err := newLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(), awsConfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	repo := ddb.NewRepository(dbClient, cfg.TableName, cfg.IdentityIndexName, cfg.ItemNameIndexName)
	provider := newProvider(cfg)

	if cfg.TracingEndpoint != "" {
		tp, err := tracing.InitTracing("foodatlas-backend", cfg.Environment, cfg.TracingEndpoint)
		if err != nil {
			logger.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown error", zap.Error(err))
			}
		}()
		repo = tracing.TraceRepository(repo, tp.Tracer())
		provider = tracing.TraceProvider(provider, tp.Tracer())
	}

	taxonomyService := taxonomy.NewService(repo)
	generator := llm.NewService(provider)
	searchService := search.NewService(repo, taxonomyService, generator, cfg.GenerationTimeout)

	foodHandler := handlers.NewFoodHandler(taxonomyService, searchService, cfg, logger)
	router := handlers.NewRouter(foodHandler, logger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("provider", cfg.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
}

// newProvider selects the generation provider from configuration.
// Selection happens once at construction; there is no runtime switch.
func newProvider(cfg *config.Config) llm.Provider {
	if cfg.Provider == "mock" {
		return llm.NewMockProvider()
	}
	return llm.NewHTTPProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderModel)
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
