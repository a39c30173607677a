// Command sweep runs the offline deduplication pass over the node table.
// It is a batch cleanup for the duplicates the read-then-write ensure
// pattern can leave behind; run it while the system is otherwise idle.
package main

import (
	"context"
	"log"

	"foodatlas-backend/internal/repository/ddb"
	"foodatlas-backend/internal/service/taxonomy"
	"foodatlas-backend/pkg/config"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()

	logger, err := zap.NewProduction()
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

	sweeper := taxonomy.NewSweeper(repo)
	result, err := sweeper.Run(context.Background())
	if err != nil {
		logger.Fatal("dedup sweep failed", zap.Error(err))
	}

	logger.Info("dedup sweep complete",
		zap.Int("scanned", result.Scanned),
		zap.Int("deleted", result.Deleted),
	)
}
