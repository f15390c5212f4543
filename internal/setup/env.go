package setup

import (
	"log/slog"
	"os"
	"strconv"
)

// Getenv returns the environment variable key, or fallback when it is unset.
func Getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetenvInt64 is Getenv for integers. A malformed value is logged and ignored.
func GetenvInt64(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("ignoring malformed environment variable", "key", key, "value", v)
		return fallback
	}
	return n
}

// GetenvFloat is Getenv for floating point numbers. A malformed value is
// logged and ignored.
func GetenvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring malformed environment variable", "key", key, "value", v)
		return fallback
	}
	return f
}
