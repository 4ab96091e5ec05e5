// Package watermark persists, per namespace, a millisecond that no issued ID
// has passed. A restarted generator resumes above it, so a clock that went
// backwards while the process was down cannot reissue IDs.
package watermark

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/bigid/internal/namespace"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
)

// DefaultLease is how far past the issuing millisecond a reservation reaches.
const DefaultLease = time.Second

const fencePoll = time.Millisecond

// Store reserves millisecond ranges ahead of issuance. Persisting once per
// lease keeps writes off the hot path.
type Store struct {
	db    *pebblestore.DB
	lease int64

	mu       sync.Mutex
	reserved map[string]int64
}

// New returns a Store over db. A non-positive lease uses DefaultLease.
func New(db *pebblestore.DB, lease time.Duration) *Store {
	if lease <= 0 {
		lease = DefaultLease
	}
	return &Store{db: db, lease: lease.Milliseconds(), reserved: make(map[string]int64)}
}

// Lease returns the reservation length.
func (s *Store) Lease() time.Duration { return time.Duration(s.lease) * time.Millisecond }

// Load returns the persisted reservation for ns, or 0 if none exists.
func (s *Store) Load(ns string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ns)
}

func (s *Store) loadLocked(ns string) (int64, error) {
	if v, ok := s.reserved[ns]; ok {
		return v, nil
	}
	b, err := s.db.Get(namespace.WatermarkKey(ns))
	if errors.Is(err, pebblestore.ErrNotFound) {
		s.reserved[ns] = 0
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("watermark %s: corrupt record (%d bytes)", ns, len(b))
	}
	v := int64(binary.BigEndian.Uint64(b))
	s.reserved[ns] = v
	return v, nil
}

// Reserve makes sure the persisted reservation for ns covers ms. It returns
// the reservation in effect afterwards. Only a millisecond beyond the
// current reservation causes a (synced) write.
func (s *Store) Reserve(ns string, ms int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.loadLocked(ns)
	if err != nil {
		return 0, err
	}
	if ms <= cur {
		return cur, nil
	}
	next := ms + s.lease
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(next))
	if err := s.db.SetSync(namespace.WatermarkKey(ns), buf[:]); err != nil {
		return cur, fmt.Errorf("watermark %s: reserve: %w", ns, err)
	}
	s.reserved[ns] = next
	return next, nil
}

// Fence blocks until clock reads at or past the reservation for ns, waiting
// at most max. It returns the reservation, which the caller seeds its
// generator with. A clock still behind after max yields id.ErrClockRegression.
func (s *Store) Fence(ctx context.Context, ns string, clock id.Clock, max time.Duration) (int64, error) {
	wm, err := s.Load(ns)
	if err != nil {
		return 0, err
	}
	if clock == nil {
		clock = id.SystemClock
	}
	behind := wm - clock.NowMillis()
	if behind <= 0 {
		return wm, nil
	}
	if max <= 0 || time.Duration(behind)*time.Millisecond > max {
		return 0, fmt.Errorf("watermark %s: clock is %dms behind reservation %d: %w", ns, behind, wm, id.ErrClockRegression)
	}

	deadline := time.NewTimer(max)
	defer deadline.Stop()
	tick := time.NewTicker(fencePoll)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline.C:
			return 0, fmt.Errorf("watermark %s: clock did not reach reservation %d within %s: %w", ns, wm, max, id.ErrClockRegression)
		case <-tick.C:
			if clock.NowMillis() >= wm {
				return wm, nil
			}
		}
	}
}
