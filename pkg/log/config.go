package log

import (
	"fmt"
	"strings"
)

// Config is the declarative form of a logger.
type Config struct {
	// Level is debug|info|warn|error.
	Level string `json:"level" yaml:"level"`
	// Format is text|json.
	Format string `json:"format" yaml:"format"`
	// File, when set, adds a file output next to the console.
	File string `json:"file" yaml:"file"`
	// Quiet drops the console output.
	Quiet bool `json:"quiet" yaml:"quiet"`
	// ShowCaller adds the caller file:line to each entry.
	ShowCaller bool `json:"showCaller" yaml:"showCaller"`
}

// ApplyConfig builds a logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{ShowCaller: cfg.ShowCaller}
	case "json":
		formatter = &JSONFormatter{ShowCaller: cfg.ShowCaller}
	default:
		return nil, fmt.Errorf("log: unknown format %q; use text|json", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	if !cfg.Quiet {
		opts = append(opts, WithOutput(NewConsoleOutput()))
	}
	if cfg.File != "" {
		out, err := NewFileOutput(cfg.File)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithOutput(out))
	}
	if cfg.Quiet && cfg.File == "" {
		opts = append(opts, WithOutput(NullOutput{}))
	}
	return NewLogger(opts...), nil
}
