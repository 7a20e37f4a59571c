// Package configs provides application configuration loaded from environment
// variables. All configuration is externalized; a local .env file is honored
// for development.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using Load().
type AppConfig struct {
	// DBDSN is the ClickHouse connection string.
	DBDSN string

	// ServerPort is the port the search API listens on.
	ServerPort string

	// MaxResults caps the number of routes returned per search.
	MaxResults int

	// KafkaPrice contains Kafka connection settings for the price feed.
	KafkaPrice KafkaConfig

	// Refresher contains settings for the Kafka-to-ClickHouse price refresher.
	Refresher RefresherConfig

	// Feed contains settings for the price-feed publisher.
	Feed FeedConfig
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the Kafka topic for price updates.
	Topic string

	// GroupID is the consumer group ID for the refresher.
	GroupID string
}

// RefresherConfig holds settings for batch price ingestion.
type RefresherConfig struct {
	// BatchSize is the maximum number of price updates to accumulate
	// before flushing.
	BatchSize int

	// BatchTimeoutSeconds is the maximum seconds to wait before flushing.
	BatchTimeoutSeconds int
}

// FeedConfig holds settings for the price-feed publisher.
type FeedConfig struct {
	// WSURL is the websocket ticker stream endpoint.
	WSURL string

	// HTTPBaseURL is the REST ticker endpoint polled for coins the
	// stream does not cover.
	HTTPBaseURL string

	// RequestsPerSecond limits the REST poller.
	RequestsPerSecond float64

	// Pairs lists the coin/base pairs to feed (comma-separated in env,
	// e.g. "BTC/USD,ETH/BTC").
	Pairs []string
}

// getDatabaseDSN constructs the ClickHouse DSN from environment variables.
func getDatabaseDSN() string {
	dbUser := getEnv("CLICKHOUSE_USER", "user")
	dbPassword := getEnv("CLICKHOUSE_PASSWORD", "password")
	dbHost := getEnv("CLICKHOUSE_HOST", "localhost")
	dbPort := getEnv("CLICKHOUSE_TCP_PORT", "9000")
	dbName := getEnv("CLICKHOUSE_DB", "exchange_path")

	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%s/%s?dial_timeout=10s&read_timeout=20s",
		dbUser, dbPassword, dbHost, dbPort, dbName,
	)
}

// getFeedConfig loads price-feed settings from environment.
func getFeedConfig() FeedConfig {
	pairsEnv := getEnv("FEED_PAIRS", "")
	var pairs []string
	if pairsEnv != "" {
		pairs = strings.Split(pairsEnv, ",")
	}

	return FeedConfig{
		WSURL:             getEnv("FEED_WS_URL", ""),
		HTTPBaseURL:       getEnv("FEED_HTTP_URL", ""),
		RequestsPerSecond: getEnvFloat("FEED_REQUESTS_PER_SECOND", 2),
		Pairs:             pairs,
	}
}

// Load loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func Load() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		DBDSN:      getDatabaseDSN(),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MaxResults: getEnvInt("MAX_RESULTS", 10),
		KafkaPrice: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_PRICE_TOPIC", "exchange_path_prices"),
			GroupID: getEnv("KAFKA_PRICE_GROUP_ID", "exchange-path-refresher"),
		},
		Refresher: RefresherConfig{
			BatchSize:           getEnvInt("BATCH_SIZE", 200),
			BatchTimeoutSeconds: getEnvInt("BATCH_TIMEOUT_SECONDS", 5),
		},
		Feed: getFeedConfig(),
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
