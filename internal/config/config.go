package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	CORSOrigins   []string
	ServerTimeout time.Duration

	// NexHealth upstream provider
	NexHealthBaseURL           string
	NexHealthAPIKey            string
	NexHealthSubdomain         string
	NexHealthLocationID        string
	NexHealthTimeout           time.Duration
	NexHealthDefaultProviderID int64

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// AWS / DynamoDB user store
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	UsersTable          string

	// Redis appointment-type cache (optional)
	RedisAddr     string
	RedisPassword string
	TypeCacheTTL  time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ServerTimeout: getEnvAsDuration("SERVER_TIMEOUT", 15*time.Second),

		NexHealthBaseURL:           getEnv("NEXHEALTH_API_URL", "https://nexhealth.info"),
		NexHealthAPIKey:            getEnv("NEXHEALTH_API_KEY", ""),
		NexHealthSubdomain:         getEnv("NEXHEALTH_SUBDOMAIN", ""),
		NexHealthLocationID:        getEnv("NEXHEALTH_LOCATION_ID", ""),
		NexHealthTimeout:           getEnvAsDuration("NEXHEALTH_TIMEOUT", 20*time.Second),
		NexHealthDefaultProviderID: getEnvAsInt64("NEXHEALTH_DEFAULT_PROVIDER_ID", 339157019),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", 12*time.Hour),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		UsersTable:          getEnv("USERS_TABLE", "users"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		TypeCacheTTL:  getEnvAsDuration("TYPE_CACHE_TTL", 10*time.Minute),
	}
}

// LocationIDInt returns the configured location id as an integer. A missing
// or non-numeric value is an error so startup fails before the first booking
// silently queries location 0.
func (c *Config) LocationIDInt() (int64, error) {
	id, err := strconv.ParseInt(c.NexHealthLocationID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: NEXHEALTH_LOCATION_ID %q is not numeric", c.NexHealthLocationID)
	}
	return id, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as an int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
