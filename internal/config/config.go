package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default endpoints for the city's L&I open data layers.
const (
	defaultPermitsURL = "https://services.arcgis.com/fLeGjb7u4uXqeF9q/ArcGIS/rest/services/PERMITS/FeatureServer/0/query"
	defaultAppealsURL = "https://services.arcgis.com/fLeGjb7u4uXqeF9q/ArcGIS/rest/services/APPEALS/FeatureServer/0/query"

	// Carto SQL endpoint, used only by the boundary downloader.
	defaultCartoURL = "https://phl.carto.com/api/v2/sql"

	defaultNeighborhoodsURL = "https://raw.githubusercontent.com/opendataphilly/open-geo-data/master/philadelphia-neighborhoods/philadelphia-neighborhoods.geojson"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	PermitsURL       string
	AppealsURL       string
	CartoURL         string
	NeighborhoodsURL string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	LookbackDays   int
	MinUnits       int
	StaleAfterDays int
	MatchWorkers   int

	GeodataDir   string
	BoundaryFile string

	// Buttondown email delivery, enabled by token presence.
	ButtondownToken   string
	ButtondownEnabled bool

	// Optional Kafka sink publishing enriched records downstream.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Optional Postgres archive of enriched records.
	PostgresDSN string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDurationEnv("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	lookbackDays, err := parseIntEnv("LOOKBACK_DAYS", 7)
	if err != nil {
		return nil, err
	}
	minUnits, err := parseIntEnv("MIN_UNITS", 1)
	if err != nil {
		return nil, err
	}
	staleAfterDays, err := parseIntEnv("STALE_AFTER_DAYS", 3)
	if err != nil {
		return nil, err
	}
	matchWorkers, err := parseIntEnv("MATCH_WORKERS", 4)
	if err != nil {
		return nil, err
	}

	buttondownToken := os.Getenv("BUTTONDOWN_API_KEY")
	buttondownEnabled := buttondownToken != ""
	if v := os.Getenv("BUTTONDOWN_ENABLED"); v != "" {
		buttondownEnabled = v == "true"
	}

	geodataDir := envOrDefault("GEODATA_DIR", "geodata")

	cfg := &Config{
		PermitsURL:       envOrDefault("PERMITS_URL", defaultPermitsURL),
		AppealsURL:       envOrDefault("APPEALS_URL", defaultAppealsURL),
		CartoURL:         envOrDefault("CARTO_URL", defaultCartoURL),
		NeighborhoodsURL: envOrDefault("NEIGHBORHOODS_URL", defaultNeighborhoodsURL),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RequestTimeout:  requestTimeout,

		LookbackDays:   lookbackDays,
		MinUnits:       minUnits,
		StaleAfterDays: staleAfterDays,
		MatchWorkers:   matchWorkers,

		GeodataDir:   geodataDir,
		BoundaryFile: envOrDefault("BOUNDARY_FILE", geodataDir+"/neighborhoods.geojson"),

		ButtondownToken:   buttondownToken,
		ButtondownEnabled: buttondownEnabled,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "enriched-development-records"),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}

	if cfg.PermitsURL == "" {
		return nil, errors.New("PERMITS_URL is required")
	}
	if cfg.AppealsURL == "" {
		return nil, errors.New("APPEALS_URL is required")
	}
	if cfg.LookbackDays <= 0 {
		return nil, errors.New("LOOKBACK_DAYS must be positive")
	}
	if cfg.MinUnits < 1 {
		return nil, errors.New("MIN_UNITS must be at least 1")
	}
	if cfg.MatchWorkers < 1 {
		return nil, errors.New("MATCH_WORKERS must be at least 1")
	}
	if cfg.ButtondownEnabled && cfg.ButtondownToken == "" {
		return nil, errors.New("BUTTONDOWN_ENABLED is true but BUTTONDOWN_API_KEY is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseIntEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
