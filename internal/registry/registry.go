// Package registry owns one generator per namespace. Generators are opened
// lazily: the namespace is validated, its layout pinned in storage, the
// clock fenced against the persisted watermark, and the generator resumed
// above it. Opens and refused requests are written to the namespace journal
// when one is configured.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzbill/bigid/internal/journal"
	"github.com/rzbill/bigid/internal/namespace"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/internal/watermark"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/rzbill/bigid/pkg/log"
)

// DefaultMaxBatch caps NextN when Options.MaxBatch is zero.
const DefaultMaxBatch = 1000

// noteEvery limits request failures journaled per namespace and kind.
const noteEvery = time.Second

// Options configures a Registry.
type Options struct {
	DB *pebblestore.DB
	// Generator is the template every namespace's generator is built from.
	Generator id.Options
	// Validator checks namespace names. Nil accepts any non-empty name
	// without '/'.
	Validator *namespace.Validator
	// Watermarks defaults to a store over DB with the default lease.
	Watermarks   *watermark.Store
	StartupFence time.Duration
	MaxBatch     int
	// Journal records opens and failures per namespace. Nil disables it.
	Journal *journal.Journal
	Logger  log.Logger
}

type entry struct {
	ready chan struct{}
	gen   *id.Generator
	meta  namespace.Meta
	err   error
}

type noteKey struct {
	ns   string
	kind journal.Kind
}

// Registry maps namespaces to generators. It is safe for concurrent use.
type Registry struct {
	opts  Options
	clock id.Clock

	mu      sync.RWMutex
	entries map[string]*entry

	noteMu sync.Mutex
	noted  map[noteKey]time.Time
}

// New validates opts and returns an empty registry.
func New(opts Options) (*Registry, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("registry: Options.DB is required")
	}
	if err := opts.Generator.Validate(); err != nil {
		return nil, err
	}
	if opts.Validator == nil {
		v, err := namespace.NewValidator(".+", nil)
		if err != nil {
			return nil, err
		}
		opts.Validator = v
	}
	if opts.Watermarks == nil {
		opts.Watermarks = watermark.New(opts.DB, 0)
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	opts.Logger = opts.Logger.WithComponent("registry")
	clock := opts.Generator.Clock
	if clock == nil {
		clock = id.SystemClock
	}
	return &Registry{
		opts:    opts,
		clock:   clock,
		entries: make(map[string]*entry),
		noted:   make(map[noteKey]time.Time),
	}, nil
}

// Generator returns the generator for ns, opening it on first use.
func (r *Registry) Generator(ctx context.Context, ns string) (*id.Generator, error) {
	r.mu.RLock()
	e, ok := r.entries[ns]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if e, ok = r.entries[ns]; !ok {
			e = &entry{ready: make(chan struct{})}
			r.entries[ns] = e
			r.mu.Unlock()
			// other callers wait on e, so the open outlives this caller's
			// cancellation; the startup fence bounds it
			go r.open(context.WithoutCancel(ctx), ns, e)
		} else {
			r.mu.Unlock()
		}
	}
	select {
	case <-e.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.gen, nil
}

func (r *Registry) open(ctx context.Context, ns string, e *entry) {
	defer close(e.ready)
	e.gen, e.meta, e.err = r.build(ctx, ns)
	if e.err != nil {
		// forget the failure so a later call can retry
		r.mu.Lock()
		delete(r.entries, ns)
		r.mu.Unlock()
		r.opts.Logger.Warn("open namespace failed", log.Namespace(ns), log.Err(e.err))
		return
	}
	last, _ := e.gen.LastMillis()
	r.opts.Logger.Info("namespace opened", log.Namespace(ns), log.Uint64("shard", e.meta.ShardID), log.Int64("resume_ms", last))
	r.record(ctx, ns, journal.KindOpened, fmt.Sprintf("shard=%d resume_ms=%d", e.meta.ShardID, last))
}

func (r *Registry) build(ctx context.Context, ns string) (*id.Generator, namespace.Meta, error) {
	if err := r.opts.Validator.Validate(ns); err != nil {
		return nil, namespace.Meta{}, err
	}
	gopts := r.opts.Generator
	g, err := id.NewGenerator(gopts)
	if err != nil {
		return nil, namespace.Meta{}, err
	}
	meta, err := namespace.Ensure(r.opts.DB, namespace.Meta{
		Name:         ns,
		EpochMillis:  g.EpochMillis(),
		ShardID:      g.ShardID(),
		ShardBits:    g.Layout().ShardBits,
		SequenceBits: g.Layout().SequenceBits,
	})
	if err != nil {
		var cerr *id.ConfigError
		if errors.As(err, &cerr) {
			r.recordLimited(ctx, ns, journal.KindLayoutMismatch, cerr.Error())
		}
		return nil, namespace.Meta{}, err
	}
	wm, err := r.opts.Watermarks.Fence(ctx, ns, gopts.Clock, r.opts.StartupFence)
	if err != nil {
		if errors.Is(err, id.ErrClockRegression) {
			r.recordLimited(ctx, ns, journal.KindFenceFailed, fmt.Sprintf("now_ms=%d", r.clock.NowMillis()))
		}
		return nil, namespace.Meta{}, err
	}
	if wm > 0 {
		gopts.LastMillis = wm
		if g, err = id.NewGenerator(gopts); err != nil {
			return nil, namespace.Meta{}, err
		}
	}
	return g, meta, nil
}

// Next issues one ID in ns. The ID's millisecond is covered by a persisted
// reservation before it is returned.
func (r *Registry) Next(ctx context.Context, ns string) (id.ID, error) {
	g, err := r.Generator(ctx, ns)
	if err != nil {
		return 0, err
	}
	v, err := g.NextContext(ctx)
	if err != nil {
		r.note(ctx, ns, err)
		return 0, err
	}
	if _, err := r.opts.Watermarks.Reserve(ns, g.Decode(v).Millis); err != nil {
		return 0, err
	}
	return v, nil
}

// NextN issues n IDs in ns, 1 <= n <= MaxBatch. On error the IDs issued so
// far are returned alongside it.
func (r *Registry) NextN(ctx context.Context, ns string, n int) ([]id.ID, error) {
	if n < 1 || n > r.opts.MaxBatch {
		return nil, &id.ConfigError{Field: "count", Value: fmt.Sprint(n), Reason: fmt.Sprintf("must be between 1 and %d", r.opts.MaxBatch)}
	}
	g, err := r.Generator(ctx, ns)
	if err != nil {
		return nil, err
	}
	ids, genErr := g.NextN(ctx, n)
	if genErr != nil {
		r.note(ctx, ns, genErr)
	}
	if len(ids) > 0 {
		if _, err := r.opts.Watermarks.Reserve(ns, g.Decode(ids[len(ids)-1]).Millis); err != nil {
			return nil, err
		}
	}
	return ids, genErr
}

// record appends one event to the journal. Journal failures are logged and
// otherwise ignored.
func (r *Registry) record(ctx context.Context, ns string, kind journal.Kind, detail string) {
	if r.opts.Journal == nil {
		return
	}
	ev := journal.Event{Kind: kind, AtMs: r.clock.NowMillis(), Detail: detail}
	if _, err := r.opts.Journal.Append(context.WithoutCancel(ctx), ns, ev); err != nil {
		r.opts.Logger.Warn("journal append failed", log.Namespace(ns), log.Str("kind", kind.String()), log.Err(err))
	}
}

// note journals an issuance failure.
func (r *Registry) note(ctx context.Context, ns string, err error) {
	switch {
	case errors.Is(err, id.ErrSequenceExhausted):
		r.recordLimited(ctx, ns, journal.KindExhausted, err.Error())
	case errors.Is(err, id.ErrClockRegression):
		r.recordLimited(ctx, ns, journal.KindRegression, err.Error())
	}
}

// recordLimited is record, at most once per noteEvery for each namespace
// and kind.
func (r *Registry) recordLimited(ctx context.Context, ns string, kind journal.Kind, detail string) {
	if r.opts.Journal == nil {
		return
	}
	k := noteKey{ns: ns, kind: kind}
	now := time.Now()
	r.noteMu.Lock()
	if last, ok := r.noted[k]; ok && now.Sub(last) < noteEvery {
		r.noteMu.Unlock()
		return
	}
	r.noted[k] = now
	r.noteMu.Unlock()
	r.record(ctx, ns, kind, detail)
}

// Events pages through the journal of ns. It returns nothing when the
// journal is disabled.
func (r *Registry) Events(ns string, opts journal.ReadOptions) ([]journal.Event, uint64, error) {
	if err := r.opts.Validator.Validate(ns); err != nil {
		return nil, 0, err
	}
	if r.opts.Journal == nil {
		return nil, 0, nil
	}
	return r.opts.Journal.Read(ns, opts)
}

// TrimJournal drops journal events older than cutoffMs in every stored
// namespace and returns how many were removed.
func (r *Registry) TrimJournal(ctx context.Context, cutoffMs int64) (int, error) {
	if r.opts.Journal == nil {
		return 0, nil
	}
	metas, err := namespace.List(r.opts.DB)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range metas {
		n, err := r.opts.Journal.TrimOlderThan(ctx, m.Name, cutoffMs, 1024, 0)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Decode splits v using the registry's layout and epoch.
func (r *Registry) Decode(v id.ID) id.Parts {
	o := r.opts.Generator
	d := id.DefaultOptions()
	if o.EpochMillis == 0 {
		o.EpochMillis = d.EpochMillis
	}
	if o.Layout == (id.Layout{}) {
		o.Layout = d.Layout
	}
	return id.DecodeParts(v, o.Layout, o.EpochMillis)
}

// Namespaces lists every namespace ever opened against the store.
func (r *Registry) Namespaces() ([]namespace.Meta, error) {
	return namespace.List(r.opts.DB)
}

// NamespaceStats is a snapshot of one open generator.
type NamespaceStats struct {
	Namespace  string   `json:"namespace"`
	LastMillis int64    `json:"lastMillis"`
	Stats      id.Stats `json:"stats"`
}

// Stats returns counters for every generator opened by this process, sorted
// by namespace.
func (r *Registry) Stats() []NamespaceStats {
	r.mu.RLock()
	out := make([]NamespaceStats, 0, len(r.entries))
	for ns, e := range r.entries {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.err != nil {
			continue
		}
		last, _ := e.gen.LastMillis()
		out = append(out, NamespaceStats{Namespace: ns, LastMillis: last, Stats: e.gen.Stats()})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	return out
}

// MaxBatch returns the effective batch cap.
func (r *Registry) MaxBatch() int { return r.opts.MaxBatch }
