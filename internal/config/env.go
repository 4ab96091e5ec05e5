package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays BIGID_* environment variables onto cfg. Unparseable
// numbers are ignored and leave the current value in place.
func FromEnv(cfg *Config) {
	if v := os.Getenv("BIGID_EPOCH_MILLIS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.EpochMillis = n
		}
	}
	if v := os.Getenv("BIGID_SHARD_ID"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.ShardID = n
		}
	}
	if v := os.Getenv("BIGID_SHARD_BITS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.ShardBits = uint8(n)
		}
	}
	if v := os.Getenv("BIGID_SEQUENCE_BITS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.SequenceBits = uint8(n)
		}
	}
	if v := os.Getenv("BIGID_WRAPAROUND"); v != "" {
		cfg.Wraparound = v
	}
	if v := os.Getenv("BIGID_MAX_WAIT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxWaitMs = n
		}
	}
	if v := os.Getenv("BIGID_CLOCK_REGRESSION"); v != "" {
		cfg.ClockRegression = v
	}
	if v := os.Getenv("BIGID_CLOCK_TOLERANCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ClockToleranceMs = n
		}
	}
	if v := os.Getenv("BIGID_DEFAULT_NAMESPACE"); v != "" {
		cfg.DefaultNamespace = v
	}
	if v := os.Getenv("BIGID_NAMESPACE_NAME_REGEX"); v != "" {
		cfg.NamespaceNameRegex = v
	}
	if v := os.Getenv("BIGID_ALLOWED_NAMESPACES"); v != "" {
		parts := strings.Split(v, ",")
		cfg.AllowedNamespaces = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.AllowedNamespaces = append(cfg.AllowedNamespaces, p)
			}
		}
	}
	if v := os.Getenv("BIGID_WATERMARK_LEASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WatermarkLeaseMs = n
		}
	}
	if v := os.Getenv("BIGID_STARTUP_FENCE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.StartupFenceMs = n
		}
	}
	if v := os.Getenv("BIGID_MAX_BATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxBatch = n
		}
	}
	if v := os.Getenv("BIGID_JOURNAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Journal = b
		}
	}
	if v := os.Getenv("BIGID_JOURNAL_RETENTION_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.JournalRetentionMs = n
		}
	}
}
