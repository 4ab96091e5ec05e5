package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	cfgpkg "github.com/rzbill/bigid/internal/config"
	"github.com/rzbill/bigid/internal/journal"
	"github.com/rzbill/bigid/internal/namespace"
	"github.com/rzbill/bigid/internal/registry"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/internal/watermark"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/rzbill/bigid/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Clock overrides the system clock for every generator.
	Clock  id.Clock
	Logger log.Logger
	// JanitorInterval is how often expired journal events are trimmed.
	// Zero means one minute.
	JanitorInterval time.Duration
}

// StorageStats counts pebble traffic since Open.
type StorageStats struct {
	Writes     uint64 `json:"writes"`
	WriteBytes uint64 `json:"writeBytes"`
	Reads      uint64 `json:"reads"`
	ReadBytes  uint64 `json:"readBytes"`
}

type storageMetrics struct {
	writes, writeBytes, reads, readBytes atomic.Uint64
}

func (m *storageMetrics) ObserveWrite(_ time.Duration, bytes int) {
	m.writes.Add(1)
	m.writeBytes.Add(uint64(bytes))
}

func (m *storageMetrics) ObserveRead(_ time.Duration, bytes int) {
	m.reads.Add(1)
	m.readBytes.Add(uint64(bytes))
}

// Runtime wires storage, config and the registry for a single-node instance.
type Runtime struct {
	db       *pebblestore.DB
	config   cfgpkg.Config
	registry *registry.Registry
	metrics  *storageMetrics
	clock    id.Clock
	logger   log.Logger
	closed   atomic.Bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Open validates the config, opens storage and builds the registry.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	gopts, err := cfg.GeneratorOptions()
	if err != nil {
		return nil, err
	}
	gopts.Clock = opts.Clock
	validator, err := namespace.NewValidator(cfg.NamespaceNameRegex, cfg.AllowedNamespaces)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	metrics := &storageMetrics{}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       metrics,
	})
	if err != nil {
		return nil, err
	}
	var jrnl *journal.Journal
	if cfg.Journal {
		jrnl = journal.New(db)
	}
	reg, err := registry.New(registry.Options{
		DB:           db,
		Generator:    gopts,
		Validator:    validator,
		Watermarks:   watermark.New(db, cfg.WatermarkLease()),
		StartupFence: cfg.StartupFence(),
		MaxBatch:     cfg.MaxBatch,
		Journal:      jrnl,
		Logger:       logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = id.SystemClock
	}
	r := &Runtime{
		db:       db,
		config:   cfg,
		registry: reg,
		metrics:  metrics,
		clock:    clock,
		logger:   logger.WithComponent("runtime"),
		stop:     make(chan struct{}),
	}
	if jrnl != nil && cfg.JournalRetentionMs > 0 {
		interval := opts.JanitorInterval
		if interval <= 0 {
			interval = time.Minute
		}
		r.wg.Add(1)
		go r.janitor(interval)
	}
	return r, nil
}

// janitor trims expired journal events until Close.
func (r *Runtime) janitor(interval time.Duration) {
	defer r.wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			r.TrimJournal(context.Background())
		}
	}
}

// TrimJournal drops journal events older than the configured retention.
func (r *Runtime) TrimJournal(ctx context.Context) int {
	if r.config.JournalRetentionMs <= 0 || r.closed.Load() {
		return 0
	}
	cutoff := r.clock.NowMillis() - r.config.JournalRetentionMs
	n, err := r.registry.TrimJournal(ctx, cutoff)
	if err != nil {
		r.logger.Warn("journal trim failed", log.Err(err))
	}
	if n > 0 {
		r.logger.Debug("journal trimmed", log.Int("events", n), log.Int64("cutoff_ms", cutoff))
	}
	return n
}

// Close stops background work and closes underlying resources. It is safe
// to call more than once.
func (r *Runtime) Close() error {
	if r.db == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)
	r.wg.Wait()
	return r.db.Close()
}

// CheckHealth verifies storage is open and readable.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil || r.closed.Load() {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.db.Get([]byte("health/probe")); err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return err
	}
	return nil
}

// Registry returns the namespace generator registry.
func (r *Runtime) Registry() *registry.Registry { return r.registry }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// StorageStats returns pebble counters since Open.
func (r *Runtime) StorageStats() StorageStats {
	return StorageStats{
		Writes:     r.metrics.writes.Load(),
		WriteBytes: r.metrics.writeBytes.Load(),
		Reads:      r.metrics.reads.Load(),
		ReadBytes:  r.metrics.readBytes.Load(),
	}
}
