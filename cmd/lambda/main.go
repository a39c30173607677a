package main

import (
	"context"
	"log"

	"foodatlas-backend/internal/handlers"
	"foodatlas-backend/internal/repository/ddb"
	"foodatlas-backend/internal/service/llm"
	"foodatlas-backend/internal/service/search"
	"foodatlas-backend/internal/service/taxonomy"
	"foodatlas-backend/internal/tracing"
	"foodatlas-backend/pkg/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"
)

var chiLambda *chiadapter.ChiLambdaV2

func init() {
	cfg := config.New()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	repo := ddb.NewRepository(dbClient, cfg.TableName, cfg.IdentityIndexName, cfg.ItemNameIndexName)

	var provider llm.Provider
	if cfg.Provider == "mock" {
		provider = llm.NewMockProvider()
	} else {
		provider = llm.NewHTTPProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderModel)
	}

	if cfg.TracingEndpoint != "" {
		tp, err := tracing.InitTracing("foodatlas-backend", cfg.Environment, cfg.TracingEndpoint)
		if err != nil {
			logger.Fatal("failed to initialize tracing", zap.Error(err))
		}
		repo = tracing.TraceRepository(repo, tp.Tracer())
		provider = tracing.TraceProvider(provider, tp.Tracer())
	}

	taxonomyService := taxonomy.NewService(repo)
	generator := llm.NewService(provider)
	searchService := search.NewService(repo, taxonomyService, generator, cfg.GenerationTimeout)

	foodHandler := handlers.NewFoodHandler(taxonomyService, searchService, cfg, logger)
	router := handlers.NewRouter(foodHandler, logger)

	chiLambda = chiadapter.NewV2(router)

	logger.Info("Service initialized successfully")
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return chiLambda.ProxyWithContextV2(ctx, req)
}

func main() {
	lambda.Start(handler)
}
