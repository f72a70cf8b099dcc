package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/ledgerline/spendtrack/pkg/config"
	"github.com/ledgerline/spendtrack/pkg/database"
)

// Config holds all configuration for the spendtrack server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Base URL used to build absolute avatar links in API responses.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"spendtrack"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"spendtrack_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"spendtrack"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (dashboard summary cache)
	RedisHost       string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass       string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	SummaryCacheTTL time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"5m"`

	// Slow query logging threshold; 0 disables it.
	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT. Access and refresh tokens are signed with separate secrets so a
	// leaked access secret cannot mint refresh tokens.
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"change-this-to-another-secret"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Session lifetime. Matches the refresh token expiry by default.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// Avatar uploads
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`

	// Rate limiting on auth endpoints
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:""`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// Profiling endpoints, restricted by CIDR allowlist.
	PprofEnabled    bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowCIDRs []string `env:"PPROF_ALLOW_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid session TTL: %s", cfg.SessionTTL)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		for name, secret := range map[string]string{
			"JWT_ACCESS_SECRET":  cfg.JWTAccessSecret,
			"JWT_REFRESH_SECRET": cfg.JWTRefreshSecret,
		} {
			if secret == "change-this-to-a-secure-secret" || secret == "change-this-to-another-secret" {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, cfg.Environment)
			}
			if len(secret) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
	}

	return cfg, nil
}

// Postgres returns the connection pool configuration for the primary database.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// Redis returns the connection configuration for the summary cache.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
