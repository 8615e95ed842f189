package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	RabbitMQ      RabbitMQConfig
	Tokens        TokenConfig
	Keys          KeyConfig
	Cookies       CookieConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	BaseURL       string
	Environment   string
	BcryptCost    int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	InitSchema       bool
}

// RedisConfig holds the Redis connection used by the rate limiter.
// An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// RabbitMQConfig holds the broker used for auth events. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL         string
	Queue       string
	WorkerCount int
	BufferSize  int
}

// TokenConfig holds JWT issuance and verification settings
type TokenConfig struct {
	Issuer             string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	RefreshTokenSecret string
	JWKSURI            string
	JWKSCacheTTL       time.Duration
	JWKSRatePerMinute  int
	JWKSHTTPTimeout    time.Duration
}

// KeyConfig selects where the RSA signing key comes from.
// Source is "static" (PEM from env or file) or "remote" (PEM fetched over HTTP).
type KeyConfig struct {
	Source         string
	PrivateKeyPEM  string
	PrivateKeyFile string
	RemoteURL      string
	RemoteTimeout  time.Duration
}

// CookieConfig holds attributes for the session cookies
type CookieConfig struct {
	Domain string
	Secure bool
}

// RateLimitConfig holds the token bucket settings for the public auth endpoints
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")

	// .env.<environment> wins over .env; neither is required
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load(".env")
	env = getEnv("ENVIRONMENT", env)

	port := getPort()
	cfg := &Config{
		Environment: env,
		BaseURL:     getEnv("BASE_URL", "/pizza-app/auth-service/api/v1"),
		BcryptCost:  getEnvAsInt("BCRYPT_COST", 10),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            port,
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://*"}),
		},
		Database: loadDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TLS:      getEnvAsBool("REDIS_TLS", false),
		},
		RabbitMQ: RabbitMQConfig{
			URL:         getEnv("RABBITMQ_URL", ""),
			Queue:       getEnv("RABBITMQ_QUEUE", "auth.events"),
			WorkerCount: getEnvAsInt("EVENTS_WORKER_COUNT", 2),
			BufferSize:  getEnvAsInt("EVENTS_BUFFER_SIZE", 1000),
		},
		Tokens: TokenConfig{
			Issuer:             getEnv("TOKEN_ISSUER", "Auth-services"),
			AccessTokenTTL:     getEnvAsDuration("ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL:    getEnvAsDuration("REFRESH_TOKEN_TTL", 365*24*time.Hour),
			RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", defaultRefreshSecret(env)),
			JWKSURI:            getEnv("JWKS_URI", fmt.Sprintf("http://localhost:%d/.well-known/jwks.json", port)),
			JWKSCacheTTL:       getEnvAsDuration("JWKS_CACHE_TTL", 10*time.Minute),
			JWKSRatePerMinute:  getEnvAsInt("JWKS_RATE_LIMIT_PER_MINUTE", 10),
			JWKSHTTPTimeout:    getEnvAsDuration("JWKS_HTTP_TIMEOUT", 5*time.Second),
		},
		Keys: KeyConfig{
			Source:         getEnv("KEY_SOURCE", "static"),
			PrivateKeyPEM:  strings.ReplaceAll(getEnv("PRIVATE_KEY", ""), `\n`, "\n"),
			PrivateKeyFile: getEnv("PRIVATE_KEY_FILE", "certs/private.pem"),
			RemoteURL:      getEnv("KEY_REMOTE_URL", ""),
			RemoteTimeout:  getEnvAsDuration("KEY_REMOTE_TIMEOUT", 5*time.Second),
		},
		Cookies: CookieConfig{
			Domain: getEnv("COOKIE_DOMAIN", "localhost"),
			Secure: getEnvAsBool("COOKIE_SECURE", true),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Capacity:       getEnvAsInt("RATE_LIMIT_CAPACITY", 20),
			RefillTokens:   getEnvAsInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: getEnvAsDuration("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
			TTL:            getEnvAsDuration("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         getEnv("RATE_LIMIT_PREFIX", "rl:auth"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Tokens.Issuer == "" {
		return fmt.Errorf("token issuer is required")
	}
	if c.Tokens.AccessTokenTTL <= 0 || c.Tokens.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.Tokens.RefreshTokenSecret == "" {
		return fmt.Errorf("refresh token secret is required")
	}
	if c.Tokens.JWKSRatePerMinute <= 0 {
		return fmt.Errorf("JWKS rate limit must be positive")
	}

	switch c.Keys.Source {
	case "static":
		if c.Keys.PrivateKeyPEM == "" && c.Keys.PrivateKeyFile == "" {
			return fmt.Errorf("PRIVATE_KEY or PRIVATE_KEY_FILE is required when KEY_SOURCE=static")
		}
	case "remote":
		if c.Keys.RemoteURL == "" {
			return fmt.Errorf("KEY_REMOTE_URL is required when KEY_SOURCE=remote")
		}
	default:
		return fmt.Errorf("unknown key source: %s", c.Keys.Source)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsTest returns true if running in the test environment
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Enabled reports whether a Redis address is configured
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// Enabled reports whether a broker URL is configured
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	cfg := DatabaseConfig{
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		InitSchema:      getEnvAsBool("DB_INIT_SCHEMA", true),
	}
	if dbURL := getEnv("DATABASE_URL", ""); dbURL != "" {
		cfg.ConnectionString = dbURL
		return cfg
	}
	cfg.Host = getEnv("DB_HOST", "127.0.0.1")
	cfg.Port = getEnvAsInt("DB_PORT", 5432)
	cfg.User = getEnv("DB_USERNAME", "postgres")
	cfg.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database = getEnv("DB_DATABASE", "auth_service_dev")
	cfg.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg
}

// Helper functions

// defaultRefreshSecret only fills in outside production, where the secret must be explicit
func defaultRefreshSecret(env string) string {
	if env == "production" || env == "prod" {
		return ""
	}
	return "dev-refresh-secret"
}

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 5501)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 5501
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
