package journal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
)

// Kind classifies a journal event.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindOpened records a generator opening, with the millisecond it resumed above.
	KindOpened
	// KindFenceFailed records a refused open because the clock stayed behind
	// the persisted watermark.
	KindFenceFailed
	// KindExhausted records a request that ran out of sequence values.
	KindExhausted
	// KindRegression records a request refused because the clock went back.
	KindRegression
	// KindLayoutMismatch records an open refused because the configured
	// layout differs from the one pinned for the namespace.
	KindLayoutMismatch
)

var kindNames = map[Kind]string{
	KindOpened:         "opened",
	KindFenceFailed:    "fence_failed",
	KindExhausted:      "exhausted",
	KindRegression:     "regression",
	KindLayoutMismatch: "layout_mismatch",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// MarshalText renders the kind name in JSON.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event is one journal entry.
type Event struct {
	Seq    uint64 `json:"seq"`
	AtMs   int64  `json:"atMs"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// Journal appends and reads per-namespace event logs. It is safe for
// concurrent use.
type Journal struct {
	db *pebblestore.DB

	mu      sync.Mutex
	lastSeq map[string]uint64
}

// New returns a journal over db.
func New(db *pebblestore.DB) *Journal {
	return &Journal{db: db, lastSeq: make(map[string]uint64)}
}

// last loads the last assigned sequence for ns. Callers hold j.mu.
func (j *Journal) last(ns string) (uint64, error) {
	if seq, ok := j.lastSeq[ns]; ok {
		return seq, nil
	}
	meta, err := j.db.Get(KeyMeta(ns))
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
		j.lastSeq[ns] = 0
		return 0, nil
	case err != nil:
		return 0, err
	case len(meta) != 8:
		return 0, fmt.Errorf("journal: corrupt meta for %q (%d bytes)", ns, len(meta))
	}
	seq := binary.BigEndian.Uint64(meta)
	j.lastSeq[ns] = seq
	return seq, nil
}

// Append writes events to ns as a single atomic batch and returns their
// assigned sequence numbers.
func (j *Journal) Append(ctx context.Context, ns string, events ...Event) ([]uint64, error) {
	if len(events) == 0 {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	last, err := j.last(ns)
	if err != nil {
		return nil, err
	}
	b := j.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(events))
	for i, e := range events {
		last++
		if err := b.Set(KeyEntry(ns, last), EncodeEvent(e), nil); err != nil {
			return nil, err
		}
		seqs[i] = last
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], last)
	if err := b.Set(KeyMeta(ns), meta[:], nil); err != nil {
		return nil, err
	}
	if err := j.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	j.lastSeq[ns] = last
	return seqs, nil
}

// ReadOptions selects a page of events.
type ReadOptions struct {
	// After skips events with Seq <= After (forward) or >= After (reverse).
	// Zero starts at the oldest (forward) or newest (reverse) event.
	After   uint64
	Limit   int
	Reverse bool
}

// Read returns up to Limit events of ns and the cursor to pass as After for
// the next page, zero when there are no more events. Corrupt records are
// skipped.
func (j *Journal) Read(ns string, opts ReadOptions) ([]Event, uint64, error) {
	prefix := KeyEntryPrefix(ns)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: KeyEntry(ns, ^uint64(0)),
	})
	if err != nil {
		return nil, 0, err
	}
	defer iter.Close()

	var ok bool
	step := iter.Next
	switch {
	case opts.Reverse && opts.After == 0:
		ok = iter.Last()
		step = iter.Prev
	case opts.Reverse:
		ok = iter.SeekLT(KeyEntry(ns, opts.After))
		step = iter.Prev
	case opts.After == 0:
		ok = iter.First()
	default:
		ok = iter.SeekGE(KeyEntry(ns, opts.After+1))
	}

	items := make([]Event, 0, max(1, opts.Limit))
	var next uint64
	for ; ok; ok = step() {
		if opts.Limit > 0 && len(items) == opts.Limit {
			next = items[len(items)-1].Seq
			break
		}
		e, okDec := DecodeEvent(iter.Value())
		if !okDec {
			continue
		}
		e.Seq = seqFromKey(iter.Key())
		items = append(items, e)
	}
	return items, next, iter.Error()
}

// TrimOlderThan deletes events of ns recorded before cutoffMs, oldest first,
// committing at most batchLimit deletes per batch. It stops at the first
// event at or after the cutoff and returns how many were deleted.
func (j *Journal) TrimOlderThan(ctx context.Context, ns string, cutoffMs int64, batchLimit int, throttle time.Duration) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}
	prefix := KeyEntryPrefix(ns)
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: KeyEntry(ns, ^uint64(0)),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	for ok := iter.First(); ok; {
		b := j.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			e, okDec := DecodeEvent(iter.Value())
			if okDec && e.AtMs >= cutoffMs {
				ok = false
				break
			}
			// corrupt records are dropped along with expired ones
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, err
			}
			n++
			ok = iter.Next()
		}
		if n > 0 {
			if err := j.db.CommitBatch(ctx, b); err != nil {
				b.Close()
				return deleted, err
			}
			deleted += n
			if throttle > 0 && ok {
				time.Sleep(throttle)
			}
		}
		b.Close()
	}
	return deleted, iter.Error()
}
