package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Search   SearchConfig
	Queue    QueueConfig
	Cache    CacheConfig
	Producer ProducerConfig
	HTTP     HTTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timeout  time.Duration
}

type SearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	IndexName string
	Timeout   time.Duration
}

// QueueConfig carries the broker topology. Exchange, queue and routing key
// must be identical between the topology initializer, the producer and the
// consumer or messages are silently undelivered.
type QueueConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	ConsumerEnabled bool
}

type CacheConfig struct {
	RedisURL string
	Enabled  bool
	TTL      time.Duration
}

type ProducerConfig struct {
	BufferSize int
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; env vars may come from the environment.
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnvRequired("DB_HOST"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			Name:     getEnvRequired("DB_NAME"),
			User:     getEnvRequired("VIDEO_INDEXER_DB_USER"),
			Password: getEnvRequired("VIDEO_INDEXER_DB_PASSWORD"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "prefer"),
			Timeout:  10 * time.Second,
		},
		Search: SearchConfig{
			Addresses: strings.Split(getEnvRequired("ELASTICSEARCH_URL"), ","),
			Username:  getEnvOrDefault("ELASTICSEARCH_USER", ""),
			Password:  getEnvOrDefault("ELASTICSEARCH_PASSWORD", ""),
			IndexName: getEnvOrDefault("VIDEO_INDEX_NAME", "video-metadata"),
			Timeout:   15 * time.Second,
		},
		Queue: QueueConfig{
			URL:             getEnvRequired("RABBITMQ_URL"),
			Exchange:        getEnvOrDefault("SYNC_EXCHANGE", "video-metadata-sync"),
			Queue:           getEnvOrDefault("SYNC_QUEUE", "video-metadata-indexing"),
			RoutingKey:      getEnvOrDefault("SYNC_ROUTING_KEY", "video-metadata"),
			ConsumerEnabled: getEnvBool("CONSUMER_ENABLED", true),
		},
		Cache: CacheConfig{
			RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
			Enabled:  getEnvBool("CATEGORY_CACHE_ENABLED", false),
			TTL:      getEnvDuration("CATEGORY_CACHE_TTL", 5*time.Minute),
		},
		Producer: ProducerConfig{
			BufferSize: getEnvInt("PRODUCER_BUFFER_SIZE", 256),
		},
		HTTP: HTTPConfig{
			Addr:              getEnvOrDefault("HTTP_ADDR", ":9400"),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	slog.Info("Configuration loaded",
		"db_host", cfg.Database.Host,
		"elasticsearch", cfg.Search.Addresses,
		"index", cfg.Search.IndexName,
		"exchange", cfg.Queue.Exchange,
		"queue", cfg.Queue.Queue,
	)

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnvRequired(key string) string {
	// Check for _FILE suffix (Docker Secrets)
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
