package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/agroplan/crop-window-planner/internal/agro"
)

type AppConfig struct {
	WeatherAPIKey  string
	GeocoderAPIKey string

	// FetchInterval controls how often the scheduler prefetches weather for
	// each field.
	FetchInterval time.Duration

	// Prefetch range around today.
	LookbackDays int
	ForecastDays int

	// Fields to plan for.
	Fields []agro.Field

	// Catalog file with crop profiles; empty means built-in defaults only.
	CatalogPath string

	// Candidate search settings.
	MaxLookaheadDays          int
	FilterRedundantCandidates bool

	// In-memory series store retention.
	StoreMaxDays int           // max daily records per field (0 = unlimited)
	StoreMaxAge  time.Duration // max record age relative to newest (0 = unlimited)

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Info("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	intervalStr := getenvDefault("FETCH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	cfg.LookbackDays = getenvInt("PREFETCH_LOOKBACK_DAYS", 30)
	cfg.ForecastDays = getenvInt("PREFETCH_FORECAST_DAYS", 14)

	cfg.CatalogPath = os.Getenv("CROP_CATALOG_PATH")

	cfg.MaxLookaheadDays = getenvInt("MAX_LOOKAHEAD_DAYS", 240)
	cfg.FilterRedundantCandidates = getenvBool("FILTER_REDUNDANT_CANDIDATES", true)

	cfg.StoreMaxDays = getenvInt("STORE_MAX_DAYS", 0)

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "0s")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "15s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	fields, err := loadFields()
	if err != nil {
		return nil, err
	}
	cfg.Fields = fields

	return cfg, nil
}

// loadFields parses parallel comma-separated lists of field ids, cities and
// countries, e.g. PLANNER_FIELD_IDS=north,south with matching city/country
// lists.
func loadFields() ([]agro.Field, error) {
	idsEnv := os.Getenv("PLANNER_FIELD_IDS")
	if idsEnv == "" {
		return nil, nil
	}

	ids := strings.Split(idsEnv, ",")
	cities := strings.Split(os.Getenv("PLANNER_FIELD_CITIES"), ",")
	countries := strings.Split(os.Getenv("PLANNER_FIELD_COUNTRIES"), ",")
	if len(ids) != len(cities) || len(ids) != len(countries) {
		return nil, fmt.Errorf("PLANNER_FIELD_IDS, PLANNER_FIELD_CITIES and PLANNER_FIELD_COUNTRIES must have the same length")
	}

	fields := make([]agro.Field, 0, len(ids))
	for i := range ids {
		fields = append(fields, agro.Field{
			FieldID: strings.TrimSpace(ids[i]),
			City:    strings.TrimSpace(cities[i]),
			Country: strings.TrimSpace(countries[i]),
		})
	}
	return fields, nil
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

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
