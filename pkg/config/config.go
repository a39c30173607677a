package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	TableName         string
	IdentityIndexName string
	ItemNameIndexName string
	Region            string
	ServerAddress     string
	Environment       string
	LogLevel          string

	// CityScoped requires every request to carry a city; when false the
	// city defaults to DefaultCity.
	CityScoped  bool
	DefaultCity string

	// Generation provider selection: "deepseek", "openai" or "mock".
	Provider          string
	ProviderAPIKey    string
	ProviderBaseURL   string
	ProviderModel     string
	GenerationTimeout time.Duration

	// TracingEndpoint enables OTLP trace export when set.
	TracingEndpoint string
}

// New creates a new configuration from environment variables
func New() *Config {
	return &Config{
		TableName:         getEnv("TABLE_NAME", "foodatlas"),
		IdentityIndexName: getEnv("IDENTITY_INDEX_NAME", "IdentityIndex"),
		ItemNameIndexName: getEnv("ITEM_NAME_INDEX_NAME", "ItemNameIndex"),
		Region:            getEnv("AWS_REGION", "us-east-1"),
		ServerAddress:     getEnv("SERVER_ADDRESS", ":8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		CityScoped:        getBoolEnv("CITY_SCOPED", true),
		DefaultCity:       getEnv("DEFAULT_CITY", "Beijing"),
		Provider:          getEnv("GENERATION_PROVIDER", "deepseek"),
		ProviderAPIKey:    getEnv("GENERATION_API_KEY", ""),
		ProviderBaseURL:   getEnv("GENERATION_BASE_URL", "https://api.deepseek.com"),
		ProviderModel:     getEnv("GENERATION_MODEL", "deepseek-chat"),
		GenerationTimeout: getDurationEnv("GENERATION_TIMEOUT_SECONDS", 20*time.Second),
		TracingEndpoint:   getEnv("TRACING_ENDPOINT", ""),
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
