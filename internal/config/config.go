package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Database
	DatabaseURL    string
	DatabaseDriver string

	// Redis (optional, shared snapshot cache)
	RedisURL string

	// Kafka
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string

	// API Configuration
	APIPort string
	APIHost string

	// Commerce proxy
	ShopifyAPIVersion    string
	ShopifyWebhookSecret string
	ProxyRatePerSecond   float64
	ProxyBurst           int

	// Snapshot cache
	SnapshotTTL      time.Duration
	SnapshotPrefetch bool

	// OpenAI
	OpenAIBaseURL string
	OpenAIModel   string

	// Square
	SquareBaseURL string

	// Environment
	Env       string
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		DatabaseURL:          v.GetString("DATABASE_URL"),
		DatabaseDriver:       v.GetString("DB_DRIVER"),
		RedisURL:             v.GetString("REDIS_URL"),
		KafkaBrokers:         v.GetString("KAFKA_BROKERS"),
		KafkaTopic:           v.GetString("KAFKA_TOPIC"),
		KafkaGroupID:         v.GetString("KAFKA_GROUP_ID"),
		APIPort:              v.GetString("API_PORT"),
		APIHost:              v.GetString("API_HOST"),
		ShopifyAPIVersion:    v.GetString("SHOPIFY_API_VERSION"),
		ShopifyWebhookSecret: v.GetString("SHOPIFY_WEBHOOK_SECRET"),
		ProxyRatePerSecond:   v.GetFloat64("PROXY_RATE_PER_SECOND"),
		ProxyBurst:           v.GetInt("PROXY_BURST"),
		SnapshotTTL:          v.GetDuration("SNAPSHOT_TTL"),
		SnapshotPrefetch:     v.GetBool("SNAPSHOT_PREFETCH"),
		OpenAIBaseURL:        v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:          v.GetString("OPENAI_MODEL"),
		SquareBaseURL:        v.GetString("SQUARE_BASE_URL"),
		Env:                  v.GetString("ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DATABASE_URL", "sqlite://stockpulse.db")
	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "inventory-events")
	v.SetDefault("KAFKA_GROUP_ID", "stockpulse-worker")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("API_HOST", "0.0.0.0")
	v.SetDefault("SHOPIFY_API_VERSION", "2024-01")
	v.SetDefault("PROXY_RATE_PER_SECOND", 2.0)
	v.SetDefault("PROXY_BURST", 40)
	v.SetDefault("SNAPSHOT_TTL", 5*time.Minute)
	v.SetDefault("SNAPSHOT_PREFETCH", true)
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("SQUARE_BASE_URL", "https://connect.squareup.com")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
