// Command seed loads an initial taxonomy from a JSON dataset. It writes
// through the same find-or-create path the API uses, so running it
// against a populated table only fills the gaps.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"foodatlas-backend/internal/repository/ddb"
	"foodatlas-backend/internal/service/taxonomy"
	"foodatlas-backend/pkg/config"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()

	file := flag.String("file", "cmd/seed/seed.json", "path to the seed dataset")
	city := flag.String("city", cfg.DefaultCity, "city partition to seed")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("failed to read seed dataset", zap.String("file", *file), zap.Error(err))
	}
	var categories []taxonomy.SeedCategory
	if err := json.Unmarshal(raw, &categories); err != nil {
		logger.Fatal("failed to parse seed dataset", zap.String("file", *file), zap.Error(err))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(), awsConfig.WithRegion(cfg.Region))
	if err != nil {
		logger.Fatal("unable to load SDK config", zap.Error(err))
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	repo := ddb.NewRepository(dbClient, cfg.TableName, cfg.IdentityIndexName, cfg.ItemNameIndexName)

	seeder := taxonomy.NewSeeder(taxonomy.NewService(repo))
	result, err := seeder.Apply(context.Background(), categories, *city)
	if err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}

	logger.Info("seeding complete",
		zap.String("city", *city),
		zap.Int("categories", result.Categories),
		zap.Int("items", result.Items),
	)
}
