package watermark

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rzbill/bigid/internal/namespace"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	return db
}

func TestReserveAndLoad(t *testing.T) {
	db := openDB(t, t.TempDir())
	defer db.Close()
	s := New(db, 100*time.Millisecond)

	wm, err := s.Load("orders_id_seq")
	require.NoError(t, err)
	require.Zero(t, wm)

	wm, err = s.Reserve("orders_id_seq", 1000)
	require.NoError(t, err)
	require.EqualValues(t, 1100, wm)

	// inside the lease: no change
	wm, err = s.Reserve("orders_id_seq", 1050)
	require.NoError(t, err)
	require.EqualValues(t, 1100, wm)

	wm, err = s.Reserve("orders_id_seq", 1101)
	require.NoError(t, err)
	require.EqualValues(t, 1201, wm)

	b, err := db.Get(namespace.WatermarkKey("orders_id_seq"))
	require.NoError(t, err)
	require.EqualValues(t, 1201, binary.BigEndian.Uint64(b))
}

func TestReservationSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	_, err := New(db, time.Second).Reserve("users_id_seq", 5000)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db = openDB(t, dir)
	defer db.Close()
	wm, err := New(db, time.Second).Load("users_id_seq")
	require.NoError(t, err)
	require.EqualValues(t, 6000, wm)
}

func TestCorruptRecord(t *testing.T) {
	db := openDB(t, t.TempDir())
	defer db.Close()
	require.NoError(t, db.Set(namespace.WatermarkKey("bad"), []byte{1, 2}))
	_, err := New(db, 0).Load("bad")
	require.Error(t, err)
}

type fakeClock struct{ ms atomic.Int64 }

func (c *fakeClock) NowMillis() int64 { return c.ms.Load() }

func TestFence(t *testing.T) {
	db := openDB(t, t.TempDir())
	defer db.Close()
	s := New(db, 10*time.Millisecond)
	_, err := s.Reserve("ns", 1000)
	require.NoError(t, err) // reservation 1010

	clk := &fakeClock{}
	clk.ms.Store(2000)
	wm, err := s.Fence(context.Background(), "ns", clk, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1010, wm)

	// far behind: fails immediately
	clk.ms.Store(0)
	_, err = s.Fence(context.Background(), "ns", clk, 50*time.Millisecond)
	require.ErrorIs(t, err, id.ErrClockRegression)

	// slightly behind: waits for the clock to catch up
	clk.ms.Store(1005)
	go func() {
		time.Sleep(5 * time.Millisecond)
		clk.ms.Store(1010)
	}()
	wm, err = s.Fence(context.Background(), "ns", clk, time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 1010, wm)

	// clock never catches up within the budget
	clk.ms.Store(1005)
	_, err = s.Fence(context.Background(), "ns", clk, 20*time.Millisecond)
	require.ErrorIs(t, err, id.ErrClockRegression)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Fence(ctx, "ns", clk, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
