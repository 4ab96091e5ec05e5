package id

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxWait bounds the wait for the next millisecond after the
	// sequence is exhausted.
	DefaultMaxWait = 5 * time.Millisecond
	// DefaultClockTolerance bounds how far behind the clock may be for
	// RegressionWait to wait instead of failing.
	DefaultClockTolerance = 5 * time.Millisecond
	// DefaultPollInterval is the sleep between clock reads while waiting.
	DefaultPollInterval = 100 * time.Microsecond

	// NoWait, as MaxWait or ClockTolerance, allows no wait at all. Zero
	// selects the default instead.
	NoWait time.Duration = -1

	// maxSteps caps the number of counter steps per issuance. Each wait makes
	// progress, so this only trips on a clock that keeps jumping backwards.
	maxSteps = 4
)

// Options configures a Generator. Zero values select the defaults, so a
// caller holding an explicit layout validates it before passing it in. Use
// NoWait for a zero wait.
type Options struct {
	// EpochMillis is the custom epoch in Unix milliseconds.
	EpochMillis int64
	// ShardID must fit Layout.ShardBits.
	ShardID uint64
	Layout  Layout
	Clock   Clock

	Wraparound WraparoundPolicy
	// MaxWait bounds WraparoundWait.
	MaxWait time.Duration

	Regression RegressionPolicy
	// ClockTolerance bounds RegressionWait.
	ClockTolerance time.Duration

	PollInterval time.Duration

	// LastMillis resumes a generator after a restart: nothing is issued at or
	// before it.
	LastMillis int64
}

// DefaultOptions returns the defaults for shard 0.
func DefaultOptions() Options {
	return Options{
		EpochMillis:    DefaultEpochMillis,
		Layout:         DefaultLayout(),
		Clock:          SystemClock,
		Wraparound:     WraparoundWait,
		MaxWait:        DefaultMaxWait,
		Regression:     RegressionFail,
		ClockTolerance: DefaultClockTolerance,
		PollInterval:   DefaultPollInterval,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EpochMillis == 0 {
		o.EpochMillis = d.EpochMillis
	}
	if o.Layout == (Layout{}) {
		o.Layout = d.Layout
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.MaxWait == 0 {
		o.MaxWait = d.MaxWait
	}
	if o.ClockTolerance == 0 {
		o.ClockTolerance = d.ClockTolerance
	}
	if o.PollInterval == 0 {
		o.PollInterval = d.PollInterval
	}
	return o
}

// Validate checks o after defaults are applied, reading the clock once to
// reject an epoch in the future.
func (o Options) Validate() error {
	o = o.withDefaults()
	return o.validate()
}

func (o Options) validate() error {
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if o.EpochMillis < 0 {
		return newConfigError("epochMillis", o.EpochMillis, "must not be negative")
	}
	if o.ShardID > o.Layout.MaxShard() {
		return newConfigError("shardId", o.ShardID, "must be between 0 and %d (%d bits)",
			o.Layout.MaxShard(), o.Layout.ShardBits)
	}
	if o.MaxWait < 0 && o.MaxWait != NoWait {
		return newConfigError("maxWait", o.MaxWait, "must not be negative")
	}
	if o.ClockTolerance < 0 && o.ClockTolerance != NoWait {
		return newConfigError("clockTolerance", o.ClockTolerance, "must not be negative")
	}
	if o.PollInterval < 0 {
		return newConfigError("pollInterval", o.PollInterval, "must not be negative")
	}
	if o.Wraparound != WraparoundWait && o.Wraparound != WraparoundFail {
		return newConfigError("wraparound", o.Wraparound, "unknown policy")
	}
	if o.Regression != RegressionFail && o.Regression != RegressionWait {
		return newConfigError("clockRegression", o.Regression, "unknown policy")
	}
	if now := o.Clock.NowMillis(); now < o.EpochMillis {
		return newConfigError("epochMillis", o.EpochMillis, "is %dms ahead of the clock", o.EpochMillis-now)
	}
	return nil
}

// Stats are cumulative generator counters.
type Stats struct {
	Issued      uint64 `json:"issued"`
	Exhausted   uint64 `json:"exhausted"`
	Regressions uint64 `json:"regressions"`
	Waits       uint64 `json:"waits"`
	Failures    uint64 `json:"failures"`
}

type counters struct {
	issued      atomic.Uint64
	exhausted   atomic.Uint64
	regressions atomic.Uint64
	waits       atomic.Uint64
	failures    atomic.Uint64
}

// Generator issues IDs for one shard. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	seq  *Sequence
	opts Options

	stats counters
}

// NewGenerator validates opts and returns a Generator.
func NewGenerator(opts Options) (*Generator, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	g := &Generator{seq: NewSequence(opts.Layout.SequenceBits), opts: opts}
	if opts.LastMillis > 0 {
		g.seq.Resume(opts.LastMillis)
	}
	return g, nil
}

// Next returns a new ID.
func (g *Generator) Next() (ID, error) {
	return g.NextContext(context.Background())
}

// NextContext returns a new ID. ctx only bounds the optional waits.
func (g *Generator) NextContext(ctx context.Context) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next(ctx)
}

// NextN issues n IDs under one lock acquisition. On error the IDs issued so
// far are returned with it.
func (g *Generator) NextN(ctx context.Context, n int) ([]ID, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]ID, 0, n)
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(out) < n {
		v, err := g.next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (g *Generator) next(ctx context.Context) (ID, error) {
	now := g.opts.Clock.NowMillis()
	for step := 0; step < maxSteps; step++ {
		seq, res := g.seq.Next(now)
		switch res {
		case StepAdvanced, StepSame:
			return g.encode(now, seq)

		case StepExhausted:
			g.stats.exhausted.Add(1)
			last, _ := g.seq.Last()
			if g.opts.Wraparound == WraparoundFail {
				return 0, g.fail(fmt.Errorf("%w: shard %d issued %d ids in millisecond %d",
					ErrSequenceExhausted, g.opts.ShardID, g.opts.Layout.MaxSequence()+1, last))
			}
			maxWait := waitBudget(g.opts.MaxWait)
			next, ok, err := g.waitFor(ctx, maxWait, func(ms int64) bool { return ms > last })
			if err != nil {
				return 0, g.fail(err)
			}
			if !ok {
				return 0, g.fail(fmt.Errorf("%w: clock did not leave millisecond %d within %s",
					ErrSequenceExhausted, last, maxWait))
			}
			now = next

		case StepRegressed:
			g.stats.regressions.Add(1)
			last, _ := g.seq.Last()
			behind := time.Duration(last-now) * time.Millisecond
			tolerance := waitBudget(g.opts.ClockTolerance)
			if g.opts.Regression == RegressionFail || behind > tolerance {
				return 0, g.fail(fmt.Errorf("%w: clock reads %d, %s behind last issued millisecond %d",
					ErrClockRegression, now, behind, last))
			}
			next, ok, err := g.waitFor(ctx, behind+tolerance, func(ms int64) bool { return ms >= last })
			if err != nil {
				return 0, g.fail(err)
			}
			if !ok {
				return 0, g.fail(fmt.Errorf("%w: clock did not return to millisecond %d within %s",
					ErrClockRegression, last, behind+tolerance))
			}
			now = next
		}
	}
	return 0, g.fail(fmt.Errorf("%w: clock unstable around millisecond %d", ErrClockRegression, now))
}

func (g *Generator) encode(now int64, seq uint64) (ID, error) {
	delta := now - g.opts.EpochMillis
	if delta < 0 {
		return 0, g.fail(newConfigError("epochMillis", g.opts.EpochMillis, "is %dms ahead of the clock", -delta))
	}
	g.stats.issued.Add(1)
	return g.opts.Layout.Encode(uint64(delta), g.opts.ShardID, seq), nil
}

func waitBudget(d time.Duration) time.Duration {
	if d == NoWait {
		return 0
	}
	return d
}

// waitFor polls the clock until ready reports true or budget (real time)
// runs out.
func (g *Generator) waitFor(ctx context.Context, budget time.Duration, ready func(int64) bool) (int64, bool, error) {
	g.stats.waits.Add(1)
	deadline := time.Now().Add(budget)
	timer := time.NewTimer(g.opts.PollInterval)
	defer timer.Stop()
	for {
		now := g.opts.Clock.NowMillis()
		if ready(now) {
			return now, true, nil
		}
		if !time.Now().Before(deadline) {
			return now, false, nil
		}
		select {
		case <-ctx.Done():
			return now, false, ctx.Err()
		case <-timer.C:
			timer.Reset(g.opts.PollInterval)
		}
	}
}

func (g *Generator) fail(err error) error {
	g.stats.failures.Add(1)
	return err
}

// Decode splits v using this generator's layout and epoch.
func (g *Generator) Decode(v ID) Parts {
	return DecodeParts(v, g.opts.Layout, g.opts.EpochMillis)
}

// Layout returns the bit split.
func (g *Generator) Layout() Layout { return g.opts.Layout }

// EpochMillis returns the custom epoch.
func (g *Generator) EpochMillis() int64 { return g.opts.EpochMillis }

// ShardID returns the shard embedded in every ID.
func (g *Generator) ShardID() uint64 { return g.opts.ShardID }

// LastMillis returns the last millisecond an ID was issued for (or resumed
// from), and false if there is none.
func (g *Generator) LastMillis() (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq.Last()
}

// Stats returns a snapshot of the counters.
func (g *Generator) Stats() Stats {
	return Stats{
		Issued:      g.stats.issued.Load(),
		Exhausted:   g.stats.exhausted.Load(),
		Regressions: g.stats.regressions.Load(),
		Waits:       g.stats.waits.Load(),
		Failures:    g.stats.failures.Load(),
	}
}
