package id

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testEpoch int64 = 1514764800000

type manualClock struct{ ms atomic.Int64 }

func newManualClock(ms int64) *manualClock {
	c := &manualClock{}
	c.ms.Store(ms)
	return c
}

func (c *manualClock) NowMillis() int64 { return c.ms.Load() }
func (c *manualClock) Set(ms int64)     { c.ms.Store(ms) }

func newTestGenerator(t *testing.T, clock Clock, mutate func(*Options)) *Generator {
	t.Helper()
	opts := Options{EpochMillis: testEpoch, Clock: clock}
	if mutate != nil {
		mutate(&opts)
	}
	g, err := NewGenerator(opts)
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	return g
}

func TestConcreteScenario(t *testing.T) {
	clock := newManualClock(1514764800005)
	g := newTestGenerator(t, clock, nil)

	v, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if v != 5242880 {
		t.Fatalf("got %d want 5242880", v)
	}
	p := g.Decode(v)
	if p.Delta != 5 || p.Shard != 0 || p.Sequence != 0 || p.Millis != 1514764800005 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestShardEmbedded(t *testing.T) {
	clock := newManualClock(testEpoch + 10)
	g := newTestGenerator(t, clock, func(o *Options) { o.ShardID = 1023 })
	v, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p := g.Decode(v); p.Shard != 1023 || p.Delta != 10 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestOrderingMonotonic(t *testing.T) {
	clock := newManualClock(testEpoch + 1000)
	g := newTestGenerator(t, clock, nil)

	var last ID
	for i := 0; i < 5000; i++ {
		if i%700 == 0 {
			clock.Set(clock.NowMillis() + 1)
		}
		v, err := g.Next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if i > 0 && v <= last {
			t.Fatalf("id %d not increasing: %d <= %d", i, v, last)
		}
		last = v
	}
}

func TestUniquenessConcurrent(t *testing.T) {
	g := newTestGenerator(t, SystemClock, func(o *Options) { o.MaxWait = 100 * time.Millisecond })

	const workers, per = 8, 2000
	results := make(chan []ID, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]ID, 0, per)
			for i := 0; i < per; i++ {
				v, err := g.Next()
				if err != nil {
					t.Errorf("next: %v", err)
					return
				}
				ids = append(ids, v)
			}
			results <- ids
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[ID]struct{}, workers*per)
	for ids := range results {
		var prev ID
		for i, v := range ids {
			if _, dup := seen[v]; dup {
				t.Fatalf("duplicate id %d", v)
			}
			seen[v] = struct{}{}
			if i > 0 && v <= prev {
				t.Fatalf("per-goroutine order broken: %d <= %d", v, prev)
			}
			prev = v
		}
	}
	if len(seen) != workers*per {
		t.Fatalf("got %d ids, want %d", len(seen), workers*per)
	}
	if s := g.Stats(); s.Issued != workers*per {
		t.Fatalf("issued counter = %d", s.Issued)
	}
}

func TestSequenceRolloverFails(t *testing.T) {
	clock := newManualClock(testEpoch + 2000)
	g := newTestGenerator(t, clock, func(o *Options) { o.Wraparound = WraparoundFail })

	for i := 0; i < 1024; i++ {
		if _, err := g.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	_, err := g.Next()
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("want ErrSequenceExhausted, got %v", err)
	}
	if s := g.Stats(); s.Exhausted != 1 || s.Failures != 1 || s.Issued != 1024 {
		t.Fatalf("stats %+v", s)
	}

	clock.Set(testEpoch + 2001)
	v, err := g.Next()
	if err != nil {
		t.Fatalf("next after advance: %v", err)
	}
	if p := g.Decode(v); p.Delta != 2001 || p.Sequence != 0 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestSequenceOverflowWaitsNextMs(t *testing.T) {
	clock := newManualClock(testEpoch + 2000)
	g := newTestGenerator(t, clock, func(o *Options) { o.MaxWait = time.Second })

	for i := 0; i < 1024; i++ {
		if _, err := g.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}

	type result struct {
		v   ID
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := g.Next()
		done <- result{v, err}
	}()

	time.AfterFunc(10*time.Millisecond, func() { clock.Set(testEpoch + 2001) })

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("next: %v", r.err)
		}
		if p := g.Decode(r.v); p.Delta != 2001 || p.Sequence != 0 {
			t.Fatalf("decoded %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for overflow handling")
	}
}

func TestSequenceOverflowWaitIsBounded(t *testing.T) {
	clock := newManualClock(testEpoch + 2000)
	g := newTestGenerator(t, clock, func(o *Options) { o.MaxWait = 3 * time.Millisecond })

	for i := 0; i < 1024; i++ {
		if _, err := g.Next(); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	start := time.Now()
	_, err := g.Next()
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("want ErrSequenceExhausted, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("wait not bounded: %s", time.Since(start))
	}
}

func TestWaitHonoursContext(t *testing.T) {
	clock := newManualClock(testEpoch + 2000)
	g := newTestGenerator(t, clock, func(o *Options) { o.MaxWait = time.Minute })
	if _, err := g.NextN(context.Background(), 1024); err != nil {
		t.Fatalf("fill: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := g.NextContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestClockRegressionFails(t *testing.T) {
	clock := newManualClock(testEpoch + 1000)
	g := newTestGenerator(t, clock, nil)

	a, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Set(testEpoch + 900)
	if _, err := g.Next(); !errors.Is(err, ErrClockRegression) {
		t.Fatalf("want ErrClockRegression, got %v", err)
	}
	if s := g.Stats(); s.Regressions != 1 {
		t.Fatalf("stats %+v", s)
	}

	clock.Set(testEpoch + 1000)
	b, err := g.Next()
	if err != nil {
		t.Fatalf("next after recovery: %v", err)
	}
	if b <= a {
		t.Fatalf("expected b>a after recovery, got %d <= %d", b, a)
	}
}

func TestClockRegressionWaitsWithinTolerance(t *testing.T) {
	clock := newManualClock(testEpoch + 1000)
	g := newTestGenerator(t, clock, func(o *Options) {
		o.Regression = RegressionWait
		o.ClockTolerance = 50 * time.Millisecond
	})

	a, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Set(testEpoch + 998)
	time.AfterFunc(10*time.Millisecond, func() { clock.Set(testEpoch + 1000) })

	b, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if b <= a {
		t.Fatalf("expected b>a, got %d <= %d", b, a)
	}
	if p := g.Decode(b); p.Delta != 1000 || p.Sequence != 1 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestClockRegressionBeyondTolerance(t *testing.T) {
	clock := newManualClock(testEpoch + 1000)
	g := newTestGenerator(t, clock, func(o *Options) {
		o.Regression = RegressionWait
		o.ClockTolerance = 5 * time.Millisecond
	})
	if _, err := g.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Set(testEpoch + 900)
	start := time.Now()
	if _, err := g.Next(); !errors.Is(err, ErrClockRegression) {
		t.Fatalf("want ErrClockRegression, got %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("expected immediate failure beyond tolerance")
	}
}

func TestZeroToleranceFailsAnyRegression(t *testing.T) {
	clock := newManualClock(testEpoch + 1000)
	g := newTestGenerator(t, clock, func(o *Options) {
		o.Regression = RegressionWait
		o.ClockTolerance = NoWait
	})
	if _, err := g.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	clock.Set(testEpoch + 997)
	time.AfterFunc(50*time.Millisecond, func() { clock.Set(testEpoch + 1000) })
	if _, err := g.Next(); !errors.Is(err, ErrClockRegression) {
		t.Fatalf("want ErrClockRegression, got %v", err)
	}
	if s := g.Stats(); s.Waits != 0 {
		t.Fatalf("expected no wait, stats %+v", s)
	}
}

func TestNoMaxWaitFailsOnExhaustion(t *testing.T) {
	clock := newManualClock(testEpoch + 2000)
	g := newTestGenerator(t, clock, func(o *Options) { o.MaxWait = NoWait })
	if _, err := g.NextN(context.Background(), 1024); err != nil {
		t.Fatalf("fill: %v", err)
	}
	time.AfterFunc(50*time.Millisecond, func() { clock.Set(testEpoch + 2001) })
	if _, err := g.Next(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("want ErrSequenceExhausted, got %v", err)
	}
}

func TestResumeFromLastMillis(t *testing.T) {
	clock := newManualClock(testEpoch + 500)
	g := newTestGenerator(t, clock, func(o *Options) {
		o.LastMillis = testEpoch + 500
		o.Wraparound = WraparoundFail
	})
	if last, ok := g.LastMillis(); !ok || last != testEpoch+500 {
		t.Fatalf("last = %d,%v", last, ok)
	}
	if _, err := g.Next(); !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("resumed millisecond reused: %v", err)
	}
	clock.Set(testEpoch + 499)
	if _, err := g.Next(); !errors.Is(err, ErrClockRegression) {
		t.Fatalf("want ErrClockRegression, got %v", err)
	}
	clock.Set(testEpoch + 501)
	v, err := g.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p := g.Decode(v); p.Delta != 501 || p.Sequence != 0 {
		t.Fatalf("decoded %+v", p)
	}
}

func TestNextN(t *testing.T) {
	clock := newManualClock(testEpoch + 7)
	g := newTestGenerator(t, clock, func(o *Options) {
		o.Layout = Layout{ShardBits: 10, SequenceBits: 4}
		o.Wraparound = WraparoundFail
	})

	ids, err := g.NextN(context.Background(), 10)
	if err != nil {
		t.Fatalf("next n: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("got %d ids", len(ids))
	}
	ids, err = g.NextN(context.Background(), 10)
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Fatalf("want ErrSequenceExhausted, got %v", err)
	}
	if len(ids) != 6 {
		t.Fatalf("want the 6 ids left in the millisecond, got %d", len(ids))
	}
	if ids, _ := g.NextN(context.Background(), 0); ids != nil {
		t.Fatalf("expected nil for n=0")
	}
}

func TestConfigErrors(t *testing.T) {
	now := testEpoch + 1000
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"shard out of range", func(o *Options) { o.ShardID = 1024 }},
		{"shard out of narrow range", func(o *Options) { o.Layout = Layout{ShardBits: 2, SequenceBits: 10}; o.ShardID = 4 }},
		{"no timestamp bits", func(o *Options) { o.Layout = Layout{ShardBits: 40, SequenceBits: 24} }},
		{"zero sequence bits", func(o *Options) { o.Layout = Layout{ShardBits: 10} }},
		{"epoch in future", func(o *Options) { o.EpochMillis = now + 1 }},
		{"negative epoch", func(o *Options) { o.EpochMillis = -1 }},
		{"negative max wait", func(o *Options) { o.MaxWait = -time.Millisecond }},
		{"negative tolerance", func(o *Options) { o.ClockTolerance = -time.Millisecond }},
		{"unknown wraparound", func(o *Options) { o.Wraparound = WraparoundPolicy(9) }},
		{"unknown regression", func(o *Options) { o.Regression = RegressionPolicy(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{EpochMillis: testEpoch, Clock: newManualClock(now)}
			tt.mutate(&opts)
			_, err := NewGenerator(opts)
			if err == nil {
				t.Fatalf("expected error")
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) || !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want *ConfigError wrapping ErrInvalidConfig, got %T %v", err, err)
			}
		})
	}
}

func TestEpochAheadOfClockOnCall(t *testing.T) {
	clock := newManualClock(testEpoch + 5)
	g := newTestGenerator(t, clock, nil)
	clock.Set(testEpoch - 10)
	if _, err := g.Next(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestPolicyParsing(t *testing.T) {
	if p, err := ParseWraparoundPolicy("FAIL"); err != nil || p != WraparoundFail {
		t.Fatalf("got %v %v", p, err)
	}
	if p, err := ParseRegressionPolicy(" wait "); err != nil || p != RegressionWait {
		t.Fatalf("got %v %v", p, err)
	}
	if _, err := ParseWraparoundPolicy("spin"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want config error, got %v", err)
	}
	if WraparoundWait.String() != "wait" || RegressionFail.String() != "fail" {
		t.Fatalf("policy strings")
	}
}

func BenchmarkNext(b *testing.B) {
	g, err := NewGenerator(Options{MaxWait: 10 * time.Millisecond})
	if err != nil {
		b.Fatalf("new: %v", err)
	}
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := g.Next(); err != nil {
				b.Fatalf("next: %v", err)
			}
		}
	})
}
