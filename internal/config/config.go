package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Training table and model.
	DatasetPath      string
	DatasetSize      int
	Seed             uint64
	ForestTrees      int
	TestFraction     float64
	StrictCategories bool

	// Kafka scoring pipeline.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaAlertTopic  string
	KafkaGroupID     string

	BatchSize          int
	BatchFlushInterval time.Duration

	// Escalation collaborators.
	AlertRecipients []string
	TTSEnabled      bool
	TTSBaseURL      string
	TTSTimeout      time.Duration
	TTSCacheSize    int

	// Mapbox static map rendering.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	// Prediction audit log; empty driver disables it.
	StoreDriver string
	StoreDSN    string
}

// DefaultTTSBaseURL is the public text-to-speech endpoint used when TTS_BASE_URL is unset.
const DefaultTTSBaseURL = "https://translate.google.com/translate_tts"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	datasetSize, err := parsePositiveInt("DATASET_SIZE", 2000)
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SEED")
	}
	trees, err := parsePositiveInt("FOREST_TREES", 200)
	if err != nil {
		return nil, err
	}
	testFraction, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TEST_FRACTION", "0.2"), 64)
	if err != nil || testFraction <= 0 || testFraction >= 1 {
		return nil, errors.New("invalid TEST_FRACTION: must be between 0 and 1")
	}

	ttsTimeout, err := parseDuration("TTS_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	ttsCacheSize, err := parsePositiveInt("TTS_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:      sharedcfg.EnvOrDefault("DATASET_PATH", "data/emergency_dataset.csv"),
		DatasetSize:      datasetSize,
		Seed:             seed,
		ForestTrees:      trees,
		TestFraction:     testFraction,
		StrictCategories: os.Getenv("STRICT_CATEGORIES") == "true",

		KafkaEnabled:     os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "situation-reports"),
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "scored-situations"),
		KafkaAlertTopic:  sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "emergency-alerts"),
		KafkaGroupID:     sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "emergency-severity"),

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		AlertRecipients: parseList(os.Getenv("ALERT_RECIPIENTS")),
		TTSEnabled:      os.Getenv("TTS_ENABLED") == "true",
		TTSBaseURL:      sharedcfg.EnvOrDefault("TTS_BASE_URL", DefaultTTSBaseURL),
		TTSTimeout:      ttsTimeout,
		TTSCacheSize:    ttsCacheSize,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		StoreDriver: os.Getenv("STORE_DRIVER"),
		StoreDSN:    os.Getenv("STORE_DSN"),
	}

	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	switch cfg.StoreDriver {
	case "", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want sqlite or postgres", cfg.StoreDriver)
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
