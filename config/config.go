package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Env Environment

	// Server configuration
	ServerHost string
	ServerPort string
	GinMode    string

	// Database configuration
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	SQLitePath    string
	MigrationsDir string

	// Redis configuration. Empty RedisURL and RedisHost disables redis.
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Image storage
	StorageDriver string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	MediaDir      string
	MediaURL      string

	CORSOrigins []string

	LogLevel  string
	LogFormat string

	RecipeCreateLimit  int
	RecipeCreateWindow time.Duration
}

// LoadConfig builds a Config from .env, the environment and docker secrets.
// Secrets take precedence over plain environment variables for sensitive values.
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	env := GetEnvironment()
	cfg := &Config{
		Env:           env,
		ServerHost:    getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", ginModeFor(env)),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        secretOrEnv("db_user", "DB_USER", "postgres"),
		DBPassword:    secretOrEnv("db_password", "DB_PASSWORD", ""),
		DBName:        getEnv("DB_NAME", "foodgram"),
		DBSSLMode:     getEnv("DB_SSL_MODE", "disable"),
		SQLitePath:    getEnv("SQLITE_PATH", "foodgram.db"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		RedisURL:      secretOrEnv("redis_url", "REDIS_URL", ""),
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: secretOrEnv("redis_password", "REDIS_PASSWORD", ""),
		JWTSecret:     secretOrEnv("jwt_secret", "JWT_SECRET", ""),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "disk")),
		S3Bucket:      getEnv("S3_BUCKET_NAME", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		MediaDir:      getEnv("MEDIA_DIR", "media"),
		MediaURL:      getEnv("MEDIA_URL", "/media/"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", logFormatFor(env)),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RecipeCreateLimit, err = getInt("RECIPE_CREATE_LIMIT", 30); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RecipeCreateWindow, err = getDuration("RECIPE_CREATE_WINDOW", time.Hour); err != nil {
		return nil, err
	}

	if env != Production && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-insecure-secret"
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the lib/pq connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// RedisEnabled reports whether any redis endpoint is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func ginModeFor(env Environment) string {
	switch env {
	case Production:
		return "release"
	case Test, CI:
		return "test"
	default:
		return "debug"
	}
}

func logFormatFor(env Environment) string {
	if env == Development {
		return "console"
	}
	return "json"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: "must be an integer"}
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: "must be a duration such as 1h or 30m"}
	}
	return d, nil
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

// secretOrEnv prefers the docker secret, then the env var, then the fallback
func secretOrEnv(secret, key, fallback string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return getEnv(key, fallback)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	data, err := os.ReadFile(filepath.Join(secretsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
