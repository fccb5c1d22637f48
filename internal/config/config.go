// Package config loads the immutable process configuration: defaults,
// then an optional YAML file, then WINLOGMCP_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Limits bounds every query the system will issue. Loaded once at
// process start and treated as immutable afterwards.
type Limits struct {
	MaxResults      int
	MaxLookbackHrs  int
	QueryTimeout    time.Duration
	MaxFilterLength int
	MaxNestingDepth int
	MaxPredicates   int
}

// Config is the full process configuration: limits plus the plumbing
// knobs (listen address, audit trail, optional Kafka forwarding).
type Config struct {
	Limits Limits

	ListenAddr   string
	AuditPath    string
	KafkaBrokers []string
	KafkaTopic   string
}

// yamlConfig mirrors the file format. Durations travel as strings
// ("30s") and optional fields as pointers so absence is
// distinguishable from zero.
type yamlConfig struct {
	Limits struct {
		MaxResults       *int    `yaml:"max_results"`
		MaxLookbackHours *int    `yaml:"max_lookback_hours"`
		QueryTimeout     *string `yaml:"query_timeout"`
		MaxFilterLength  *int    `yaml:"max_filter_length"`
		MaxNestingDepth  *int    `yaml:"max_nesting_depth"`
		MaxPredicates    *int    `yaml:"max_predicates"`
	} `yaml:"limits"`
	ListenAddr   *string  `yaml:"listen_addr"`
	AuditPath    *string  `yaml:"audit_path"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   *string  `yaml:"kafka_topic"`
}

// DefaultLimits returns the fixed recognized defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxResults:      1000,
		MaxLookbackHrs:  168,
		QueryTimeout:    30 * time.Second,
		MaxFilterLength: 500,
		MaxNestingDepth: 5,
		MaxPredicates:   10,
	}
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Limits:     DefaultLimits(),
		ListenAddr: ":8484",
		AuditPath:  "winlogmcp-audit.jsonl",
		KafkaTopic: "winlog-incidents",
	}
}

// Load builds the configuration. path may be empty; a .env file is
// honored if present.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		var yc yamlConfig
		if err := yaml.Unmarshal(data, &yc); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := applyFile(&cfg, yc); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, yc yamlConfig) error {
	l := yc.Limits
	if l.MaxResults != nil {
		cfg.Limits.MaxResults = *l.MaxResults
	}
	if l.MaxLookbackHours != nil {
		cfg.Limits.MaxLookbackHrs = *l.MaxLookbackHours
	}
	if l.QueryTimeout != nil {
		d, err := time.ParseDuration(*l.QueryTimeout)
		if err != nil {
			return fmt.Errorf("invalid query_timeout %q: %w", *l.QueryTimeout, err)
		}
		cfg.Limits.QueryTimeout = d
	}
	if l.MaxFilterLength != nil {
		cfg.Limits.MaxFilterLength = *l.MaxFilterLength
	}
	if l.MaxNestingDepth != nil {
		cfg.Limits.MaxNestingDepth = *l.MaxNestingDepth
	}
	if l.MaxPredicates != nil {
		cfg.Limits.MaxPredicates = *l.MaxPredicates
	}
	if yc.ListenAddr != nil {
		cfg.ListenAddr = *yc.ListenAddr
	}
	if yc.AuditPath != nil {
		cfg.AuditPath = *yc.AuditPath
	}
	if len(yc.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = yc.KafkaBrokers
	}
	if yc.KafkaTopic != nil {
		cfg.KafkaTopic = *yc.KafkaTopic
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WINLOGMCP_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("WINLOGMCP_AUDIT_PATH"); v != "" {
		cfg.AuditPath = v
	}
	if v := os.Getenv("WINLOGMCP_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WINLOGMCP_KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	if v := os.Getenv("WINLOGMCP_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxResults = n
		}
	}
	if v := os.Getenv("WINLOGMCP_MAX_LOOKBACK_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxLookbackHrs = n
		}
	}
	if v := os.Getenv("WINLOGMCP_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Limits.QueryTimeout = d
		}
	}
}

func (c Config) validate() error {
	l := c.Limits
	if l.MaxResults < 1 {
		return fmt.Errorf("limits: max_results must be >= 1, got %d", l.MaxResults)
	}
	if l.MaxLookbackHrs < 1 {
		return fmt.Errorf("limits: max_lookback_hours must be >= 1, got %d", l.MaxLookbackHrs)
	}
	if l.QueryTimeout <= 0 {
		return fmt.Errorf("limits: query_timeout must be positive, got %v", l.QueryTimeout)
	}
	if l.MaxFilterLength < 1 || l.MaxNestingDepth < 1 || l.MaxPredicates < 1 {
		return fmt.Errorf("limits: filter bounds must be >= 1")
	}
	return nil
}
