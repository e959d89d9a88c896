package config

import (
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" envDefault:"thistle-api"`
	Version                       string   `env:"APP_VERSION" envDefault:"dev"`
	Port                          int      `env:"PORT" envDefault:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" envDefault:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" envDefault:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" envDefault:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" envDefault:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" envDefault:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" envDefault:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" envDefault:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" envDefault:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" envDefault:"5"`

	// Storage backend: memory or postgres
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`

	// Database host
	DatabaseHost string `env:"DB_HOST" envDefault:"localhost"`
	// Database port
	DatabasePort string `env:"DB_PORT" envDefault:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" envDefault:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" envDefault:""`
	// Database name
	DatabaseName string `env:"DB_NAME" envDefault:"thistle"`
	// Database SSL Mode
	DatabaseSSLMode string `env:"DB_SSL_MODE" envDefault:"disable"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" envDefault:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion uint `env:"DB_MIGRATION_VERSION" envDefault:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" envDefault:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" envDefault:"true"`

	// Redis is optional; moderation locking and dashboard caching are skipped without it
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// TTL of the moderation lock held around approve/reject
	ModerationLockTTL time.Duration `env:"MODERATION_LOCK_TTL" envDefault:"5s"`
	// TTL of the cached dashboard metrics. Writes invalidate it.
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"30s"`

	// Kafka brokers (comma-separated)
	KafkaEnabled     bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers     string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaReviewTopic string `env:"KAFKA_REVIEW_TOPIC" envDefault:"review-events"`
	// Upper bound on one event publish; events are best effort
	KafkaPublishTimeout time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"2s"`

	// Enable OTLP tracing export
	OTLPEnabled bool `env:"OTLP_ENABLED" envDefault:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" envDefault:"grpc"`
	// Disable TLS for OTLP
	OTLPInsecure bool `env:"OTLP_INSECURE" envDefault:"true"`

	// Upstream review source
	HostawayBaseURL   string        `env:"HOSTAWAY_BASE_URL" envDefault:"https://api.hostaway.com/v1"`
	HostawayAccountID string        `env:"HOSTAWAY_ACCOUNT_ID" envDefault:"61148"`
	HostawayAPIKey    string        `env:"HOSTAWAY_API_KEY" envDefault:""`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	// JMESPath expression selecting the review array in the upstream body
	UpstreamResultPath string `env:"UPSTREAM_RESULT_PATH" envDefault:"result"`

	// Load sample properties and reviews into an empty store
	SeedOnStartup bool `env:"SEED_ON_STARTUP" envDefault:"true"`
	// Pull reviews from upstream once the server is up
	SyncOnStartup bool `env:"SYNC_ON_STARTUP" envDefault:"false"`

	// Recognised review categories as key:label pairs
	MetricCategories []string `env:"METRIC_CATEGORIES" envDefault:"cleanliness:cleanliness,communication:communication,respect_house_rules:house_rules"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
