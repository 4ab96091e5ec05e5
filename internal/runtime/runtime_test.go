package runtime

import (
	"context"
	"sync/atomic"
	"testing"

	cfgpkg "github.com/rzbill/bigid/internal/config"
	"github.com/rzbill/bigid/internal/journal"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := rt.CheckHealth(context.Background()); err == nil {
		t.Fatalf("expected health error after close")
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.ShardID = 5000
	if _, err := Open(Options{DataDir: t.TempDir(), Config: cfg}); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestRegistryWiring(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.ShardID = 9
	cfg.AllowedNamespaces = []string{"orders_id_seq"}
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	v, err := rt.Registry().Next(context.Background(), "orders_id_seq")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := rt.Registry().Decode(v).Shard; got != 9 {
		t.Fatalf("shard = %d", got)
	}
	if _, err := rt.Registry().Next(context.Background(), "users_id_seq"); err == nil {
		t.Fatalf("expected namespace outside the allow-list to fail")
	}
	if s := rt.StorageStats(); s.Writes == 0 {
		t.Fatalf("expected storage writes, got %+v", s)
	}
	if rt.Config().ShardID != 9 {
		t.Fatalf("config not retained")
	}
}

func TestJournalRetention(t *testing.T) {
	var now atomic.Int64
	now.Store(1514764800005)
	clk := id.ClockFunc(now.Load)

	cfg := cfgpkg.Default()
	cfg.JournalRetentionMs = 1000
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg, Clock: clk})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	if _, err := rt.Registry().Next(context.Background(), "orders_id_seq"); err != nil {
		t.Fatalf("next: %v", err)
	}
	events, _, err := rt.Registry().Events("orders_id_seq", journal.ReadOptions{})
	if err != nil || len(events) != 1 || events[0].Kind != journal.KindOpened {
		t.Fatalf("events = %+v, %v", events, err)
	}

	if n := rt.TrimJournal(context.Background()); n != 0 {
		t.Fatalf("trimmed %d events inside retention", n)
	}
	now.Add(5000)
	if n := rt.TrimJournal(context.Background()); n != 1 {
		t.Fatalf("trimmed %d, want 1", n)
	}
}

func TestJournalDisabled(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Journal = false
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	if _, err := rt.Registry().Next(context.Background(), "a"); err != nil {
		t.Fatalf("next: %v", err)
	}
	events, _, err := rt.Registry().Events("a", journal.ReadOptions{})
	if err != nil || len(events) != 0 {
		t.Fatalf("events = %+v, %v", events, err)
	}
}
