package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	Provider ProviderConfig
	Alerts   AlertConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SecurityConfig drives the lockout, rate-limit, CSRF, session and audit-log
// behavior of the gateway.
type SecurityConfig struct {
	MaxLoginAttempts  int           // failed attempts before lockout
	LockoutWindow     time.Duration // trailing window failed attempts count in
	SessionTimeout    time.Duration // sliding session inactivity timeout
	SessionHMACSecret string        // non-empty switches the session tag to HMAC-SHA256
	CSRFEnabled       bool
	CSRFTokenTTL      time.Duration
	RateLimitWindow   time.Duration // fixed window shared by all scopes
	SignupMaxAttempts int
	ResetMaxAttempts  int
	JanitorInterval   time.Duration
	LogMaxEntries     int
	LogRetention      time.Duration
}

type ProviderConfig struct {
	APIKey             string
	BaseURL            string
	Timeout            time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type AlertConfig struct {
	Enabled     bool
	AWSRegion   string
	FromAddress string
	ToAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	apiKey := getEnv("PROVIDER_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("PROVIDER_API_KEY is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitAndTrim(getEnv("TRUSTED_PROXIES", "")),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "mockify_auth"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Security: SecurityConfig{
			MaxLoginAttempts:  getEnvAsInt("MOCKIFY_MAX_LOGIN_ATTEMPTS", 5),
			LockoutWindow:     getEnvAsDuration("MOCKIFY_LOCKOUT_WINDOW", 15*time.Minute),
			SessionTimeout:    getEnvAsDuration("MOCKIFY_SESSION_TIMEOUT", 24*time.Hour),
			SessionHMACSecret: getEnv("MOCKIFY_SESSION_HMAC_SECRET", ""),
			CSRFEnabled:       getEnvAsBool("MOCKIFY_CSRF_ENABLED", true),
			CSRFTokenTTL:      getEnvAsDuration("MOCKIFY_CSRF_TOKEN_TTL", 1*time.Hour),
			RateLimitWindow:   getEnvAsDuration("MOCKIFY_RATE_LIMIT_WINDOW", 15*time.Minute),
			SignupMaxAttempts: getEnvAsInt("MOCKIFY_SIGNUP_MAX_ATTEMPTS", 2),
			ResetMaxAttempts:  getEnvAsInt("MOCKIFY_RESET_MAX_ATTEMPTS", 3),
			JanitorInterval:   getEnvAsDuration("MOCKIFY_JANITOR_INTERVAL", 10*time.Minute),
			LogMaxEntries:     getEnvAsInt("MOCKIFY_LOG_MAX_ENTRIES", 1000),
			LogRetention:      getEnvAsDuration("MOCKIFY_LOG_RETENTION", 30*24*time.Hour),
		},
		Provider: ProviderConfig{
			APIKey:             apiKey,
			BaseURL:            getEnv("PROVIDER_BASE_URL", "https://identitytoolkit.googleapis.com/v1"),
			Timeout:            getEnvAsDuration("PROVIDER_TIMEOUT", 10*time.Second),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Alerts: AlertConfig{
			Enabled:     getEnvAsBool("ALERTS_ENABLED", false),
			AWSRegion:   getEnv("ALERTS_AWS_REGION", "us-east-1"),
			FromAddress: getEnv("ALERTS_FROM_ADDRESS", ""),
			ToAddress:   getEnv("ALERTS_TO_ADDRESS", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSecurityConfig(&cfg.Security, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurityConfig rejects configurations that would neuter the
// hardening layer.
func validateSecurityConfig(sec *SecurityConfig, env string) error {
	if sec.MaxLoginAttempts < 1 {
		return fmt.Errorf("MOCKIFY_MAX_LOGIN_ATTEMPTS must be at least 1")
	}
	if sec.SessionTimeout < time.Minute {
		return fmt.Errorf("MOCKIFY_SESSION_TIMEOUT must be at least 1m")
	}
	if sec.SessionHMACSecret != "" && len(sec.SessionHMACSecret) < 32 && env == "production" {
		return fmt.Errorf("MOCKIFY_SESSION_HMAC_SECRET must be at least 32 characters in production (got %d)",
			len(sec.SessionHMACSecret))
	}
	if !sec.CSRFEnabled && env == "production" {
		return fmt.Errorf("CSRF protection cannot be disabled in production")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// The browser build configured this as raw milliseconds; accept that too.
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		return splitAndTrim(originsStr)
	}

	// Development: allow localhost variants used by the web client
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
