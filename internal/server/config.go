package server

import (
	"os"
	"strconv"
	"time"
)

// Config carries everything the HTTP layer and the cleaner need.
// All values come from the environment; see LoadConfig for defaults.
type Config struct {
	Addr    string
	Version string

	// BaseURL is used to build absolute share URLs. Empty means relative
	// URLs ("/s/<token>"), which is what the original frontends expect.
	BaseURL string

	LinkTTL         time.Duration // share link lifetime
	FreeRetention   time.Duration // cloud retention on the free plan
	PutTTL          time.Duration // presigned PUT validity
	ShareGetTTL     time.Duration // presigned GET behind /s/<token>
	ListGetTTL      time.Duration // presigned GET for listing previews
	CleanupInterval time.Duration
	CleanupBatch    int

	RateMax    int
	RateWindow time.Duration
}

// LoadConfig reads configuration from MIXTLI_* environment variables,
// falling back to the defaults the deployed service has always used.
func LoadConfig() Config {
	return Config{
		Addr:            getenvDefault("MIXTLI_ADDR", ":8080"),
		Version:         getenvDefault("MIXTLI_VERSION", "dev"),
		BaseURL:         os.Getenv("MIXTLI_BASE_URL"),
		LinkTTL:         time.Duration(envInt("MIXTLI_LINK_TTL_DAYS", 7)) * 24 * time.Hour,
		FreeRetention:   time.Duration(envInt("MIXTLI_FREE_RETENTION_DAYS", 30)) * 24 * time.Hour,
		PutTTL:          envDuration("MIXTLI_PUT_TTL", 15*time.Minute),
		ShareGetTTL:     envDuration("MIXTLI_SHARE_GET_TTL", 5*time.Minute),
		ListGetTTL:      envDuration("MIXTLI_LIST_GET_TTL", time.Hour),
		CleanupInterval: envDuration("MIXTLI_CLEANUP_INTERVAL", 10*time.Minute),
		CleanupBatch:    envInt("MIXTLI_CLEANUP_BATCH", 100),
		RateMax:         envInt("MIXTLI_RATE_MAX", 60),
		RateWindow:      envDuration("MIXTLI_RATE_WINDOW", time.Minute),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
