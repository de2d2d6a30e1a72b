package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/project-task-api/internal/constants"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultJWTSecret = "default-secret-key-change-me"

var (
	ErrMissingJWTSecret   = errors.New("JWT_SECRET must be set in release mode")
	ErrUnknownStoreDriver = errors.New("unknown STORE_DRIVER")
)

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	StoreDriver       string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	SQLitePath        string
	JWTSecret         string
	TokenTTL          time.Duration
	CookieSecure      bool
	SessionSecret     string
	AllowedOrigins    []string
	RedisAddr         string
	RedisPassword     string
	RequestTimeout    time.Duration
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:              v.GetString("PORT"),
		GinMode:           v.GetString("GIN_MODE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		StoreDriver:       strings.ToLower(v.GetString("STORE_DRIVER")),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDB:           v.GetString("MONGO_DB"),
		MongoTransactions: v.GetBool("MONGO_TRANSACTIONS"),
		DBHost:            v.GetString("DB_HOST"),
		DBPort:            v.GetString("DB_PORT"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		SQLitePath:        v.GetString("SQLITE_PATH"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		TokenTTL:          v.GetDuration("TOKEN_TTL"),
		CookieSecure:      v.GetBool("COOKIE_SECURE"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		AllowedOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RequestTimeout:    v.GetDuration("REQUEST_TIMEOUT"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "4000")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "project_tasks")
	v.SetDefault("MONGO_TRANSACTIONS", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "taskuser")
	v.SetDefault("DB_PASSWORD", "taskpassword")
	v.SetDefault("DB_NAME", "project_tasks")
	v.SetDefault("SQLITE_PATH", "project_tasks.db")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", constants.TokenTTL)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// HasDefaultJWTSecret reports whether the signing secret was left unset.
func (c *Config) HasDefaultJWTSecret() bool {
	return c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret
}

// Validate checks settings that must not be left at their defaults.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo, DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return ErrUnknownStoreDriver
	}
	if c.IsRelease() && c.HasDefaultJWTSecret() {
		return ErrMissingJWTSecret
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
