package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/travelhub/travel-hub/models"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	AuthService   AuthServiceConfig
	Desks         DesksConfig
	Session       SessionConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// LoginRatePerMinute caps login attempts per client IP.
	LoginRatePerMinute int
}

// AuthServiceConfig holds the remote authentication service configuration.
// BaseURL is the root of the login/me/logout API.
type AuthServiceConfig struct {
	BaseURL    string
	Timeout    time.Duration
	LoginPath  string
	MePath     string
	LogoutPath string
}

// DesksConfig holds the role-routing table and redirect behavior.
// Each canonical role maps to the base URL of a separately hosted desk.
type DesksConfig struct {
	URLs         map[models.Role]string
	LoginURL     string // central login portal, guard failures bounce here
	LegacyTokens bool   // when true the redirect carries token= instead of code=
	CodeTTL      time.Duration
}

// SessionConfig holds hub session cookie and JWT settings. The cookie name
// itself is fixed: tokens always land under the canonical auth_token name.
type SessionConfig struct {
	Secret       string // HS256 signing key shared with the desks
	Issuer       string
	TTL          time.Duration
	CookieDomain string // shared parent domain (e.g. .corp.example.com)
	CookieSecure bool
}

// DatabaseConfig holds PostgreSQL configuration for exchange codes and the
// auth audit trail. When ConnectionString (from DATABASE_URL) is set, it
// takes precedence over individual fields. Optional: when neither is set,
// exchange codes stay in memory and auditing logs only.
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
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present; real environment wins over file values.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),

			LoginRatePerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		},
		AuthService: AuthServiceConfig{
			BaseURL:    getEnv("AUTH_SERVICE_URL", "http://localhost:9000/api/auth"),
			Timeout:    getEnvAsDuration("AUTH_SERVICE_TIMEOUT", 10*time.Second),
			LoginPath:  getEnv("AUTH_LOGIN_PATH", "/login"),
			MePath:     getEnv("AUTH_ME_PATH", "/me"),
			LogoutPath: getEnv("AUTH_LOGOUT_PATH", "/logout"),
		},
		Desks:    loadDesksConfig(),
		Session:  loadSessionConfig(),
		Database: loadDatabaseConfig(),
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
	if c.AuthService.BaseURL == "" {
		return fmt.Errorf("auth service URL is required")
	}
	if _, err := url.Parse(c.AuthService.BaseURL); err != nil {
		return fmt.Errorf("auth service URL is invalid: %w", err)
	}

	if len(c.Desks.URLs) == 0 {
		return fmt.Errorf("at least one desk URL is required: set DESK_URL_<ROLE>")
	}
	for role, base := range c.Desks.URLs {
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("desk URL for role %s is invalid: %q", role, base)
		}
	}
	if c.Desks.LoginURL == "" {
		return fmt.Errorf("login portal URL is required")
	}

	if c.IsProduction() {
		if c.Session.Secret == "" {
			return fmt.Errorf("session secret is required in production")
		}
		if c.Desks.LegacyTokens {
			return fmt.Errorf("legacy token redirects must not be enabled in production")
		}
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

// HasDatabase reports whether a PostgreSQL backend is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.ConnectionString != "" || c.Database.Host != ""
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
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadDesksConfig loads the role-routing table from DESK_URL_<ROLE> env
// vars (DESK_URL_ADMIN, DESK_URL_HR, ...), with localhost defaults for
// development mirroring the historical per-role ports.
func loadDesksConfig() DesksConfig {
	defaults := map[models.Role]string{
		models.RoleAdmin:       "http://localhost:3006",
		models.RoleHR:          "http://localhost:3001",
		models.RoleManager:     "http://localhost:3002",
		models.RoleEmployee:    "http://localhost:3003",
		models.RoleTravelDesk:  "http://localhost:3004",
		models.RoleFinanceDesk: "http://localhost:3005",
	}

	urls := make(map[models.Role]string, len(defaults))
	for role, def := range defaults {
		key := "DESK_URL_" + strings.ToUpper(string(role))
		urls[role] = getEnv(key, def)
	}

	return DesksConfig{
		URLs:         urls,
		LoginURL:     getEnv("LOGIN_PORTAL_URL", "http://localhost:3000"),
		LegacyTokens: getEnvAsBool("LEGACY_TOKEN_REDIRECTS", false),
		CodeTTL:      getEnvAsDuration("EXCHANGE_CODE_TTL", 60*time.Second),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Secret:       getEnv("SESSION_SECRET", ""),
		Issuer:       getEnv("SESSION_ISSUER", "travel-hub"),
		TTL:          getEnvAsDuration("SESSION_TTL", 8*time.Hour),
		CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
		CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
	}
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars.
// Leaves the zero value when neither is set, which disables persistence.
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	host := getEnv("DB_HOST", "")
	if host == "" {
		return DatabaseConfig{}
	}
	return DatabaseConfig{
		Host:            host,
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "travelhub"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "travelhub"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Helper functions

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
