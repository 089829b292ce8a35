package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// FetchInterval controls how often the weather is refreshed.
	FetchInterval time.Duration

	// RetryDelay and MaxRetries bound the DNS-failure retry loop between
	// periodic ticks.
	RetryDelay time.Duration
	MaxRetries int

	// Outbound HTTP behavior.
	HTTPTimeout       time.Duration
	RequestsPerSecond float64
	Burst             int

	// RefreshFloor is the minimum age before the current-location fix is
	// re-resolved.
	RefreshFloor time.Duration

	// MyLocProvider names the current-location provider variant
	// (ipinfo, ipapi, system, disabled).
	MyLocProvider string

	// GoogleAPIKey enables reverse geocoding for the system provider.
	GoogleAPIKey string

	// SystemLat/SystemLon are the OS-supplied coordinates for the system
	// provider, when the host exports them.
	SystemLat *float64
	SystemLon *float64

	// Locations are serialized saved locations seeding the settings store
	// on first run.
	Locations []string

	MainLocationIndex int

	// UnitPreset picks the initial unit preferences (us, uk, metric);
	// empty means decide from the resolved country on first run.
	UnitPreset string

	// Timezone is the IANA zone sent to the weather upstream so forecast
	// timestamps come back in local wall time; "auto" lets the upstream
	// geolocate the request.
	Timezone string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	interval, err := getenvDuration("FETCH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.FetchInterval = interval

	cfg.RetryDelay, err = getenvDuration("RETRY_DELAY", 7500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.MaxRetries = getenvInt("MAX_RETRIES", 10)

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.RequestsPerSecond = getenvFloat("HTTP_REQUESTS_PER_SECOND", 1)
	cfg.Burst = getenvInt("HTTP_BURST", 3)

	cfg.RefreshFloor, err = getenvDuration("LOCATION_REFRESH_FLOOR", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.MyLocProvider = getenvDefault("MY_LOCATION_PROVIDER", "ipinfo")
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.SystemLat = getenvFloatPtr("SYSTEM_LATITUDE")
	cfg.SystemLon = getenvFloatPtr("SYSTEM_LONGITUDE")

	if raw := os.Getenv("LOCATIONS"); raw != "" {
		cfg.Locations = splitLocations(raw)
	}
	cfg.MainLocationIndex = getenvInt("MAIN_LOCATION_INDEX", 0)
	cfg.UnitPreset = os.Getenv("UNIT_PRESET")
	cfg.Timezone = getenvDefault("TIMEZONE", getenvDefault("TZ", "auto"))

	return cfg, nil
}

// splitLocations splits on semicolons since the serialized entries are JSON
// objects containing commas.
func splitLocations(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvFloatPtr(key string) *float64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
