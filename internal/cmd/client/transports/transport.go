// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"

	"github.com/rzbill/bigid/pkg/id"
)

// Namespace is a stored namespace as reported by the server.
type Namespace struct {
	Name         string `json:"name"`
	CreatedAtMs  int64  `json:"createdAtMs"`
	EpochMillis  int64  `json:"epochMillis"`
	ShardID      uint64 `json:"shardId"`
	ShardBits    uint8  `json:"shardBits"`
	SequenceBits uint8  `json:"sequenceBits"`
}

// Decoded is the server's decoding of an ID.
type Decoded struct {
	ID       string `json:"id"`
	Hex      string `json:"hex"`
	Time     string `json:"time"`
	Millis   int64  `json:"millis"`
	Delta    uint64 `json:"delta"`
	Shard    uint64 `json:"shard"`
	Sequence uint64 `json:"sequence"`
}

// Event is one namespace journal entry.
type Event struct {
	Seq    uint64 `json:"seq"`
	AtMs   int64  `json:"atMs"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// EventsPage is a page of journal events; Next is zero at the end.
type EventsPage struct {
	Namespace string  `json:"namespace"`
	Events    []Event `json:"events"`
	Next      uint64  `json:"next,omitempty"`
}

// IDsTransport abstracts the transport used by the CLI (gRPC/HTTP).
type IDsTransport interface {
	Next(ctx context.Context, ns string) (id.ID, error)
	// Batch calls onID for each issued ID in order. IDs issued before a
	// server-side error are still delivered.
	Batch(ctx context.Context, ns string, count int, onID func(id.ID) error) error
	Decode(ctx context.Context, v id.ID) (Decoded, error)
	Namespaces(ctx context.Context) ([]Namespace, error)
	Events(ctx context.Context, ns string, after uint64, limit int, reverse bool) (EventsPage, error)
}
