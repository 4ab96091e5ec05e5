package namespace

import (
	"errors"
	"testing"

	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func meta(name string) Meta {
	return Meta{Name: name, EpochMillis: id.DefaultEpochMillis, ShardBits: 10, SequenceBits: 10}
}

func TestSequenceName(t *testing.T) {
	cases := map[[2]string]string{
		{"orders", "id"}:      "orders_id_seq",
		{`"user"`, "id"}:      "user_id_seq",
		{"Invoice", "Number"}: "invoice_number_seq",
	}
	for in, want := range cases {
		got, err := SequenceName(in[0], in[1])
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := SequenceName("orders", " ")
	require.ErrorIs(t, err, id.ErrInvalidConfig)
}

func TestValidator(t *testing.T) {
	v, err := NewValidator("[a-z0-9_.-]{1,64}", nil)
	require.NoError(t, err)
	require.NoError(t, v.Validate("orders_id_seq"))
	for _, bad := range []string{"", "Orders", "a b", "x/y", "orders_id_seq!"} {
		require.ErrorIs(t, v.Validate(bad), id.ErrInvalidConfig, bad)
	}

	v, err = NewValidator("[a-z_]+", []string{"orders_id_seq"})
	require.NoError(t, err)
	require.NoError(t, v.Validate("orders_id_seq"))
	require.Error(t, v.Validate("users_id_seq"))

	_, err = NewValidator("(", nil)
	var ce *id.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "namespaceNameRegex", ce.Field)
}

func TestEnsureIdempotent(t *testing.T) {
	db := openDB(t)

	m1, err := Ensure(db, meta("default"))
	require.NoError(t, err)
	require.NotZero(t, m1.CreatedAtMs)

	m2, err := Ensure(db, meta("default"))
	require.NoError(t, err)
	require.Equal(t, m1, m2)
}

func TestEnsureRefusesLayoutChange(t *testing.T) {
	db := openDB(t)
	_, err := Ensure(db, meta("orders_id_seq"))
	require.NoError(t, err)

	other := meta("orders_id_seq")
	other.SequenceBits = 12
	_, err = Ensure(db, other)
	var ce *id.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "layout", ce.Field)

	other = meta("orders_id_seq")
	other.ShardID = 3
	_, err = Ensure(db, other)
	require.ErrorIs(t, err, id.ErrInvalidConfig)
}

func TestListAndGet(t *testing.T) {
	db := openDB(t)
	for _, n := range []string{"users_id_seq", "orders_id_seq"} {
		_, err := Ensure(db, meta(n))
		require.NoError(t, err)
	}
	// watermark records share the prefix and must be skipped
	require.NoError(t, db.Set(WatermarkKey("orders_id_seq"), []byte{0, 0, 0, 0, 0, 0, 0, 1}))

	all, err := List(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "orders_id_seq", all[0].Name)
	require.Equal(t, "users_id_seq", all[1].Name)

	_, ok, err := Get(db, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
