package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rzbill/bigid/pkg/id"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	EpochMillis  int64  `json:"epochMillis" yaml:"epochMillis"`
	ShardID      uint64 `json:"shardId" yaml:"shardId"`
	ShardBits    uint8  `json:"shardBits" yaml:"shardBits"`
	SequenceBits uint8  `json:"sequenceBits" yaml:"sequenceBits"`

	// Wraparound is wait|fail.
	Wraparound string `json:"wraparound" yaml:"wraparound"`
	MaxWaitMs  int    `json:"maxWaitMs" yaml:"maxWaitMs"`
	// ClockRegression is fail|wait.
	ClockRegression  string `json:"clockRegression" yaml:"clockRegression"`
	ClockToleranceMs int    `json:"clockToleranceMs" yaml:"clockToleranceMs"`

	DefaultNamespace   string `json:"defaultNamespace" yaml:"defaultNamespace"`
	NamespaceNameRegex string `json:"namespaceNameRegex" yaml:"namespaceNameRegex"`
	// AllowedNamespaces, when non-empty, is the closed set of namespaces.
	AllowedNamespaces []string `json:"allowedNamespaces" yaml:"allowedNamespaces"`

	// WatermarkLeaseMs is how far ahead of the clock each persisted
	// reservation reaches.
	WatermarkLeaseMs int `json:"watermarkLeaseMs" yaml:"watermarkLeaseMs"`
	// StartupFenceMs bounds the wait, on open, for the clock to pass a
	// persisted reservation.
	StartupFenceMs int `json:"startupFenceMs" yaml:"startupFenceMs"`
	MaxBatch       int `json:"maxBatch" yaml:"maxBatch"`

	// Journal enables the per-namespace event journal.
	Journal bool `json:"journal" yaml:"journal"`
	// JournalRetentionMs drops journal events older than this; 0 keeps them.
	JournalRetentionMs int64 `json:"journalRetentionMs" yaml:"journalRetentionMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		EpochMillis:        id.DefaultEpochMillis,
		ShardID:            0,
		ShardBits:          id.DefaultShardBits,
		SequenceBits:       id.DefaultSequenceBits,
		Wraparound:         id.WraparoundWait.String(),
		MaxWaitMs:          int(id.DefaultMaxWait / time.Millisecond),
		ClockRegression:    id.RegressionFail.String(),
		ClockToleranceMs:   int(id.DefaultClockTolerance / time.Millisecond),
		DefaultNamespace:   "default",
		NamespaceNameRegex: "[a-z0-9_.-]{1,64}",
		WatermarkLeaseMs:   1000,
		StartupFenceMs:     3000,
		MaxBatch:           1000,
		Journal:            true,
		JournalRetentionMs: int64(7 * 24 * time.Hour / time.Millisecond),
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults. Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Layout returns the configured bit split.
func (c Config) Layout() id.Layout {
	return id.Layout{ShardBits: c.ShardBits, SequenceBits: c.SequenceBits}
}

// GeneratorOptions converts the config into generator options. The clock is
// left nil so the generator uses the system clock. Every field is carried
// over as set: a zero layout is an error and a zero wait means no wait.
func (c Config) GeneratorOptions() (id.Options, error) {
	if err := c.Layout().Validate(); err != nil {
		return id.Options{}, err
	}
	wrap, err := id.ParseWraparoundPolicy(c.Wraparound)
	if err != nil {
		return id.Options{}, err
	}
	regress, err := id.ParseRegressionPolicy(c.ClockRegression)
	if err != nil {
		return id.Options{}, err
	}
	return id.Options{
		EpochMillis:    c.EpochMillis,
		ShardID:        c.ShardID,
		Layout:         c.Layout(),
		Wraparound:     wrap,
		MaxWait:        millisOrNoWait(c.MaxWaitMs),
		Regression:     regress,
		ClockTolerance: millisOrNoWait(c.ClockToleranceMs),
	}, nil
}

func millisOrNoWait(ms int) time.Duration {
	if ms == 0 {
		return id.NoWait
	}
	return time.Duration(ms) * time.Millisecond
}

// Validate checks every field, including the generator settings against the
// system clock.
func (c Config) Validate() error {
	if c.EpochMillis <= 0 {
		return &id.ConfigError{Field: "epochMillis", Value: fmt.Sprint(c.EpochMillis), Reason: "must be positive"}
	}
	if c.MaxWaitMs < 0 {
		return &id.ConfigError{Field: "maxWaitMs", Value: fmt.Sprint(c.MaxWaitMs), Reason: "must not be negative"}
	}
	if c.ClockToleranceMs < 0 {
		return &id.ConfigError{Field: "clockToleranceMs", Value: fmt.Sprint(c.ClockToleranceMs), Reason: "must not be negative"}
	}
	opts, err := c.GeneratorOptions()
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if c.WatermarkLeaseMs <= 0 {
		return &id.ConfigError{Field: "watermarkLeaseMs", Value: fmt.Sprint(c.WatermarkLeaseMs), Reason: "must be positive"}
	}
	if c.StartupFenceMs < 0 {
		return &id.ConfigError{Field: "startupFenceMs", Value: fmt.Sprint(c.StartupFenceMs), Reason: "must not be negative"}
	}
	if c.MaxBatch <= 0 {
		return &id.ConfigError{Field: "maxBatch", Value: fmt.Sprint(c.MaxBatch), Reason: "must be positive"}
	}
	if c.JournalRetentionMs < 0 {
		return &id.ConfigError{Field: "journalRetentionMs", Value: fmt.Sprint(c.JournalRetentionMs), Reason: "must not be negative"}
	}
	if _, err := regexp.Compile("^(?:" + c.NamespaceNameRegex + ")$"); err != nil {
		return &id.ConfigError{Field: "namespaceNameRegex", Value: c.NamespaceNameRegex, Reason: err.Error()}
	}
	if c.DefaultNamespace == "" {
		return &id.ConfigError{Field: "defaultNamespace", Value: "", Reason: "must not be empty"}
	}
	return nil
}

// WatermarkLease returns WatermarkLeaseMs as a duration.
func (c Config) WatermarkLease() time.Duration {
	return time.Duration(c.WatermarkLeaseMs) * time.Millisecond
}

// StartupFence returns StartupFenceMs as a duration.
func (c Config) StartupFence() time.Duration {
	return time.Duration(c.StartupFenceMs) * time.Millisecond
}

// JournalRetention returns JournalRetentionMs as a duration.
func (c Config) JournalRetention() time.Duration {
	return time.Duration(c.JournalRetentionMs) * time.Millisecond
}
