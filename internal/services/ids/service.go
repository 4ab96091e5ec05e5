package idsvc

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/bigid/internal/journal"
	"github.com/rzbill/bigid/internal/namespace"
	"github.com/rzbill/bigid/internal/registry"
	"github.com/rzbill/bigid/internal/runtime"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/rzbill/bigid/pkg/log"
	"github.com/rzbill/bigid/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Service issues and decodes IDs on behalf of the transports.
type Service struct {
	rt  *runtime.Runtime
	log log.Logger
}

// New returns a Service over rt. A nil logger discards output.
func New(rt *runtime.Runtime, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Service{rt: rt, log: logger.WithComponent("ids")}
}

// Namespace resolves an empty namespace to the configured default.
func (s *Service) Namespace(ns string) string {
	if ns == "" {
		return s.rt.Config().DefaultNamespace
	}
	return ns
}

// Next issues one ID in ns, or in the default namespace when ns is empty.
func (s *Service) Next(ctx context.Context, ns string) (id.ID, error) {
	ns = s.Namespace(ns)
	ctx, span := tracing.StartSpan(ctx, "ids.Next", trace.SpanKindInternal)
	span.SetString("namespace", ns)
	v, err := s.rt.Registry().Next(ctx, ns)
	span.End(err)
	if err != nil {
		s.report(ctx, "next", ns, err)
		return 0, err
	}
	return v, nil
}

// Batch issues count IDs. On error the IDs issued before it are returned.
func (s *Service) Batch(ctx context.Context, ns string, count int) ([]id.ID, error) {
	ns = s.Namespace(ns)
	ctx, span := tracing.StartSpan(ctx, "ids.Batch", trace.SpanKindInternal)
	span.SetString("namespace", ns).SetInt("count", int64(count))
	ids, err := s.rt.Registry().NextN(ctx, ns, count)
	span.SetInt("issued", int64(len(ids)))
	span.End(err)
	if err != nil {
		s.report(ctx, "batch", ns, err, log.Int("count", count), log.Int("issued", len(ids)))
	}
	return ids, err
}

// Decode splits v using the configured layout and epoch.
func (s *Service) Decode(v id.ID) id.Parts {
	return s.rt.Registry().Decode(v)
}

// Namespaces lists the pinned metadata of every namespace.
func (s *Service) Namespaces(ctx context.Context) ([]namespace.Meta, error) {
	_, span := tracing.StartSpan(ctx, "ids.Namespaces", trace.SpanKindInternal)
	metas, err := s.rt.Registry().Namespaces()
	span.End(err)
	return metas, err
}

// DefaultEventsLimit and MaxEventsLimit bound one page of journal events.
const (
	DefaultEventsLimit = 100
	MaxEventsLimit     = 1000
)

// EventsPage is one page of a namespace journal. Next is the cursor for the
// following page, zero at the end.
type EventsPage struct {
	Namespace string          `json:"namespace"`
	Events    []journal.Event `json:"events"`
	Next      uint64          `json:"next,omitempty"`
}

// Events pages through the journal of ns, newest first when reverse is set.
func (s *Service) Events(ctx context.Context, ns string, after uint64, limit int, reverse bool) (EventsPage, error) {
	ns = s.Namespace(ns)
	if limit <= 0 {
		limit = DefaultEventsLimit
	}
	if limit > MaxEventsLimit {
		limit = MaxEventsLimit
	}
	_, span := tracing.StartSpan(ctx, "ids.Events", trace.SpanKindInternal)
	span.SetString("namespace", ns)
	events, next, err := s.rt.Registry().Events(ns, journal.ReadOptions{After: after, Limit: limit, Reverse: reverse})
	span.End(err)
	if err != nil {
		s.report(ctx, "events", ns, err)
		return EventsPage{Namespace: ns}, err
	}
	if events == nil {
		events = []journal.Event{}
	}
	return EventsPage{Namespace: ns, Events: events, Next: next}, nil
}

func (s *Service) Stats() []registry.NamespaceStats { return s.rt.Registry().Stats() }

func (s *Service) Health(ctx context.Context) error { return s.rt.CheckHealth(ctx) }

// LayoutInfo describes the configured ID layout.
type LayoutInfo struct {
	EpochMillis   int64     `json:"epochMillis"`
	ShardID       uint64    `json:"shardId"`
	ShardBits     uint8     `json:"shardBits"`
	SequenceBits  uint8     `json:"sequenceBits"`
	TimestampBits uint8     `json:"timestampBits"`
	MaxShard      uint64    `json:"maxShard"`
	MaxSequence   uint64    `json:"maxSequence"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Layout reports the bit split and the instant the signed timestamp runs out.
func (s *Service) Layout() LayoutInfo {
	cfg := s.rt.Config()
	return DescribeLayout(cfg.Layout(), cfg.EpochMillis, cfg.ShardID)
}

// DescribeLayout builds a LayoutInfo without a running service.
func DescribeLayout(l id.Layout, epochMillis int64, shard uint64) LayoutInfo {
	return LayoutInfo{
		EpochMillis:   epochMillis,
		ShardID:       shard,
		ShardBits:     l.ShardBits,
		SequenceBits:  l.SequenceBits,
		TimestampBits: l.TimestampBits(),
		MaxShard:      l.MaxShard(),
		MaxSequence:   l.MaxSequence(),
		ExpiresAt:     time.UnixMilli(epochMillis).Add(l.Lifetime()).UTC(),
	}
}

func (s *Service) report(ctx context.Context, op, ns string, err error, fields ...log.Field) {
	l := s.log.WithContext(ctx).With(log.Str("op", op), log.Namespace(ns), log.Err(err))
	switch {
	case errors.Is(err, id.ErrSequenceExhausted), errors.Is(err, id.ErrClockRegression):
		l.Warn("id generation refused", fields...)
	case errors.Is(err, id.ErrInvalidConfig), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		l.Debug("id request rejected", fields...)
	default:
		l.Error("id generation failed", fields...)
	}
}
