// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// AuthStrategy selects which authentication guard protects API routes.
// This is a closed set chosen at startup -- there is no dynamic loading.
type AuthStrategy string

const (
	// StrategyNone disables the route guard entirely.
	StrategyNone AuthStrategy = "none"

	// StrategyBasic authenticates via the Authorization: Basic header.
	StrategyBasic AuthStrategy = "basic"

	// StrategySession authenticates via the session cookie.
	StrategySession AuthStrategy = "session"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS origin checks.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// Redact holds PII log-redaction settings.
	Redact RedactConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "gatehouse").
	User string

	// Password is the MariaDB password (default: "gatehouse").
	Password string

	// Name is the database name (default: "gatehouse").
	Name string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Strategy selects the route-guard authentication strategy.
	Strategy AuthStrategy

	// ExcludedPaths lists paths the route guard never protects. A trailing
	// "*" matches any suffix (e.g. "/api/v1/stat*").
	ExcludedPaths []string
}

// RedactConfig holds the PII redaction settings applied to every rendered
// log line before it is emitted.
type RedactConfig struct {
	// Fields are the field names whose values are scrubbed from logs.
	Fields []string

	// Placeholder replaces each redacted value.
	Placeholder string

	// Separator delimits field=value pairs in a log line.
	Separator string
}

// defaultPIIFields are the field names treated as personally identifiable
// in log output when REDACT_FIELDS is not set.
var defaultPIIFields = []string{
	"name",
	"email",
	"phone",
	"address",
	"ssn",
	"password",
	"ip",
	"last_login",
	"user_agent",
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if a value is present but invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "gatehouse"),
			Password:        getEnv("DB_PASSWORD", "gatehouse"),
			Name:            getEnv("DB_NAME", "gatehouse"),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Auth: AuthConfig{
			Strategy: AuthStrategy(strings.ToLower(getEnv("AUTH_TYPE", string(StrategySession)))),
			ExcludedPaths: getEnvList("AUTH_EXCLUDED_PATHS", []string{
				"/", "/healthz", "/users", "/sessions", "/reset_password",
			}),
		},

		Redact: RedactConfig{
			Fields:      getEnvList("REDACT_FIELDS", defaultPIIFields),
			Placeholder: getEnv("REDACT_PLACEHOLDER", "***"),
			Separator:   getEnv("REDACT_SEPARATOR", ";"),
		},
	}

	switch cfg.Auth.Strategy {
	case StrategyNone, StrategyBasic, StrategySession:
	default:
		return nil, fmt.Errorf("unknown AUTH_TYPE %q (want none, basic, or session)", cfg.Auth.Strategy)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default.
// Entries are trimmed; empty entries are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
