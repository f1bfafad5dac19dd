package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agroclima/crop-risk-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Risk model configuration.
	RuleTable domain.RuleTable

	// Station registry enrichment configuration.
	RegistryURL       string
	RegistryEnabled   bool
	RegistryTimeout   time.Duration
	RegistryCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	registryTimeout, err := parsePositiveDuration("REGISTRY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parsePositiveDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	ruleTable, err := domain.ParseRuleTable(envOrDefault("RULE_TABLE", string(domain.RuleTableProduction)))
	if err != nil {
		return nil, fmt.Errorf("RULE_TABLE: %w", err)
	}

	registryURL := os.Getenv("REGISTRY_URL")
	registryEnabled := registryURL != ""
	if v := os.Getenv("REGISTRY_ENABLED"); v != "" {
		registryEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-field-readings"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "crop-risk-assessments"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "crop-risk-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		RuleTable: ruleTable,

		RegistryURL:       registryURL,
		RegistryEnabled:   registryEnabled,
		RegistryTimeout:   registryTimeout,
		RegistryCacheSize: parseRegistryCacheSize(),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.RegistryEnabled && cfg.RegistryURL == "" {
		return nil, errors.New("REGISTRY_ENABLED is true but REGISTRY_URL is not set")
	}

	return cfg, nil
}

// envOrDefault returns the environment value for key, or def when unset.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseBatchSize bounds BATCH_SIZE to [1, 1000]; larger batches hold too
// many uncommitted offsets during a sink outage.
func parseBatchSize() (int, error) {
	s := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 1000 {
		return 0, fmt.Errorf("invalid BATCH_SIZE %q (want 1-1000)", s)
	}
	return n, nil
}

func parseRegistryCacheSize() int {
	if s := os.Getenv("REGISTRY_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
