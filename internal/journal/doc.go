// Package journal keeps a small append-only event log per namespace.
//
// Generators are silent about the events an operator cares about after the
// fact: when a namespace was opened and where it resumed, when requests ran
// out of sequence values, and when the clock went backwards. The registry
// records those here so they survive restarts and can be listed over the API.
//
// Keys live under the namespace prefix:
//   - ns/{ns}/journal/m              (last assigned seq, 8 bytes BE)
//   - ns/{ns}/journal/e/{seq_be8}    (entries)
//
// Records are stored as: varint headerLen | header | payload | crc32c(header|payload),
// where the header holds the kind and the event time in milliseconds.
//
//	j := journal.New(db)
//	seqs, _ := j.Append(ctx, "orders_id_seq", journal.Event{Kind: journal.KindOpened, AtMs: now})
//	events, next, _ := j.Read("orders_id_seq", journal.ReadOptions{Limit: 100})
//	_, _ = j.TrimOlderThan(ctx, "orders_id_seq", cutoffMs, 1024, 0)
package journal
