// Package id provides a 64-bit, time-ordered, shard-aware identifier in the
// style of Snowflake.
//
// # Format
//
// An ID packs three fields into a single uint64:
//
//	[timestamp delta ms][shard id][sequence]
//	 64-shard-seq bits   shard     seq bits
//
// The timestamp delta is measured from a custom epoch (2018-01-01T00:00:00Z
// by default). With the default 10/10 split there are 44 bits of time left.
// IDs issued past MaxDelta milliseconds after the epoch overflow the
// timestamp field; that limit is documented, not guarded.
//
// # Monotonicity
//
// A Generator serializes issuance and guarantees per-shard uniqueness:
//   - If the sequence is exhausted within a millisecond it either waits,
//     bounded by MaxWait, for the clock to advance or fails with
//     ErrSequenceExhausted.
//   - If the clock regresses it either fails with ErrClockRegression or waits,
//     bounded by ClockTolerance, for the clock to catch up. A past
//     millisecond's sequence range is never reused.
//
// Usage
//
//	g, err := id.NewGenerator(id.Options{ShardID: 7})
//	if err != nil { /* handle */ }
//	v, err := g.Next()
//	parts := g.Decode(v)
package id
