package id

import (
	"math"
	"time"
)

const (
	// DefaultEpochMillis is 2018-01-01T00:00:00Z.
	DefaultEpochMillis int64 = 1514764800000
	// DefaultShardBits allows shards 0-1023.
	DefaultShardBits uint8 = 10
	// DefaultSequenceBits allows 1024 IDs per shard per millisecond.
	DefaultSequenceBits uint8 = 10
)

// Layout is the bit split between shard id and sequence. The timestamp delta
// takes the remaining high-order bits.
type Layout struct {
	ShardBits    uint8 `json:"shardBits" yaml:"shardBits"`
	SequenceBits uint8 `json:"sequenceBits" yaml:"sequenceBits"`
}

// DefaultLayout returns the 10/10 split.
func DefaultLayout() Layout {
	return Layout{ShardBits: DefaultShardBits, SequenceBits: DefaultSequenceBits}
}

// Validate requires a non-empty sequence field and at least one timestamp bit.
func (l Layout) Validate() error {
	if l.SequenceBits == 0 {
		return newConfigError("sequenceBits", l.SequenceBits, "must be at least 1")
	}
	if int(l.ShardBits)+int(l.SequenceBits) > 63 {
		return newConfigError("shardBits+sequenceBits", int(l.ShardBits)+int(l.SequenceBits),
			"fields must leave at least one of 64 bits for the timestamp")
	}
	return nil
}

// TimestampBits is the width of the timestamp delta field.
func (l Layout) TimestampBits() uint8 { return 64 - l.ShardBits - l.SequenceBits }

// MaxShard is the largest shard id the layout can carry.
func (l Layout) MaxShard() uint64 { return 1<<l.ShardBits - 1 }

// MaxSequence is the last sequence value issued within one millisecond.
func (l Layout) MaxSequence() uint64 { return 1<<l.SequenceBits - 1 }

// MaxDelta is the largest timestamp delta that fits the layout.
func (l Layout) MaxDelta() uint64 { return 1<<l.TimestampBits() - 1 }

// Lifetime is how long after the epoch the layout keeps IDs within a signed
// 64-bit integer. Durations beyond what time.Duration holds are clamped.
func (l Layout) Lifetime() time.Duration {
	ms := l.MaxDelta() >> 1
	if ms > uint64(math.MaxInt64/int64(time.Millisecond)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms) * time.Millisecond
}

// Encode packs the fields. Callers keep shard and seq within their widths;
// a delta beyond MaxDelta spills past bit 63 and is lost.
func (l Layout) Encode(delta, shard, seq uint64) ID {
	return ID(delta<<(l.ShardBits+l.SequenceBits) | shard<<l.SequenceBits | seq)
}

// Decode is the inverse of Encode.
func (l Layout) Decode(v ID) (delta, shard, seq uint64) {
	u := uint64(v)
	seq = u & l.MaxSequence()
	shard = (u >> l.SequenceBits) & l.MaxShard()
	delta = u >> (l.ShardBits + l.SequenceBits)
	return delta, shard, seq
}
