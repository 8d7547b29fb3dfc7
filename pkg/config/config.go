package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type APIConfig struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func (c DBConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

type SessionConfig struct {
	CookieName   string
	TTL          time.Duration
	CookieSecure bool
}

type LogConfig struct {
	Level     string
	Format    string
	File      string
	FileMaxMB int
}

type AppConfig struct {
	Port          string
	GinMode       string
	API           APIConfig
	DB            DBConfig
	Session       SessionConfig
	Log           LogConfig
	RedisURL      string
	NewsCacheTTL  time.Duration
	CORSOrigins   []string
	PaymentVerify bool
}

// Load reads an optional .env file and then the process environment.
func Load(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
	}

	cfg := &AppConfig{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "release"),
		API: APIConfig{
			BaseURL:            strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:4000"), "/"),
			Timeout:            getEnvAsDuration("API_TIMEOUT", 30*time.Second),
			BreakerMaxFailures: getEnvAsInt("BREAKER_MAX_FAILURES", 5),
			BreakerTimeout:     getEnvAsDuration("BREAKER_TIMEOUT", 30*time.Second),
		},
		DB: DBConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Host:       getEnv("DB_HOST", "postgres"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "program"),
			Password:   getEnv("DB_PASSWORD", "test"),
			Name:       getEnv("DB_NAME", "dormweb"),
			SQLitePath: getEnv("SQLITE_PATH", "dormweb.db"),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "dormweb_session"),
			TTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			File:      getEnv("LOG_FILE", ""),
			FileMaxMB: getEnvAsInt("LOG_FILE_MAX_MB", 10),
		},
		RedisURL:      getEnv("REDIS_URL", ""),
		NewsCacheTTL:  getEnvAsDuration("NEWS_CACHE_TTL", 600*time.Second),
		CORSOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		PaymentVerify: getEnvAsBool("PAYMENT_VERIFY", false),
	}

	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: %s=%q is not an int, using %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: %s=%q is not a bool, using %t", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
