package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by STORE_BACKEND.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Appointment persistence
	StoreBackend  string
	AgendaKey     string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	// Booking rules
	BookingYear     int
	BookingMonths   []time.Month
	BlackoutWeekday time.Weekday
	BookingSlots    []string

	// HTTP surface
	CORSAllowedOrigins []string
	SubmitRateLimit    float64
	SubmitRateBurst    int
	// TrustProxyHeaders honours X-Forwarded-For / X-Real-IP; enable only behind a proxy.
	TrustProxyHeaders bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", BackendRedis))),
		AgendaKey:     getEnv("AGENDA_KEY", "agendamentos"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		BookingYear:     getEnvAsInt("BOOKING_YEAR", 2025),
		BookingMonths:   getEnvAsMonths("BOOKING_MONTHS", []time.Month{time.October, time.November, time.December}),
		BlackoutWeekday: getEnvAsWeekday("BOOKING_BLACKOUT_WEEKDAY", time.Sunday),
		BookingSlots:    getEnvAsList("BOOKING_SLOTS", nil),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		SubmitRateLimit:    getEnvAsFloat("SUBMIT_RATE_LIMIT", 1),
		SubmitRateBurst:    getEnvAsInt("SUBMIT_RATE_BURST", 5),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
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

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvAsMonths parses "10,11,12"; any invalid entry falls back to the default.
func getEnvAsMonths(key string, defaultValue []time.Month) []time.Month {
	parts := getEnvAsList(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	months := make([]time.Month, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 12 {
			return defaultValue
		}
		months = append(months, time.Month(n))
	}
	return months
}

// getEnvAsWeekday accepts 0-6 (Sunday=0) or an English weekday name.
func getEnvAsWeekday(key string, defaultValue time.Weekday) time.Weekday {
	raw := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if raw == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n)
		}
		return defaultValue
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == raw {
			return d
		}
	}
	return defaultValue
}
