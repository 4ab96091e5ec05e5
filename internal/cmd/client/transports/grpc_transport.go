package transports

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	bigidv1 "github.com/rzbill/bigid/api/bigid/v1"
	"github.com/rzbill/bigid/pkg/id"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GrpcTransport implements IDsTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli bigidv1.IDServiceClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(bigidv1.NewIDServiceClient(conn))
}

// Next issues one ID via gRPC.
func (t *GrpcTransport) Next(ctx context.Context, ns string) (id.ID, error) {
	var out id.ID
	err := t.withClient(ctx, func(cli bigidv1.IDServiceClient) error {
		res, err := cli.Next(ctx, wrapperspb.String(ns))
		if err != nil {
			return err
		}
		out = id.ID(res.GetValue())
		return nil
	})
	return out, err
}

// Batch streams IDs and invokes onID for each.
func (t *GrpcTransport) Batch(ctx context.Context, ns string, count int, onID func(id.ID) error) error {
	return t.withClient(ctx, func(cli bigidv1.IDServiceClient) error {
		stream, err := cli.Batch(ctx, bigidv1.BatchRequest(ns, count))
		if err != nil {
			return err
		}
		for {
			m, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if cbErr := onID(id.ID(m.GetValue())); cbErr != nil {
				return cbErr
			}
		}
	})
}

// Decode asks the server to split v.
func (t *GrpcTransport) Decode(ctx context.Context, v id.ID) (Decoded, error) {
	var out Decoded
	err := t.withClient(ctx, func(cli bigidv1.IDServiceClient) error {
		res, err := cli.Decode(ctx, wrapperspb.UInt64(v.Uint64()))
		if err != nil {
			return err
		}
		return structInto(res, &out)
	})
	return out, err
}

// Namespaces lists stored namespaces.
func (t *GrpcTransport) Namespaces(ctx context.Context) ([]Namespace, error) {
	var out struct {
		Namespaces []Namespace `json:"namespaces"`
	}
	err := t.withClient(ctx, func(cli bigidv1.IDServiceClient) error {
		res, err := cli.Namespaces(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		return structInto(res, &out)
	})
	return out.Namespaces, err
}

// Events pages a namespace journal via gRPC.
func (t *GrpcTransport) Events(ctx context.Context, ns string, after uint64, limit int, reverse bool) (EventsPage, error) {
	var raw struct {
		Namespace string `json:"namespace"`
		Events    []struct {
			Seq    string `json:"seq"`
			AtMs   int64  `json:"atMs"`
			Kind   string `json:"kind"`
			Detail string `json:"detail"`
		} `json:"events"`
		Next string `json:"next"`
	}
	err := t.withClient(ctx, func(cli bigidv1.IDServiceClient) error {
		res, err := cli.Events(ctx, bigidv1.EventsRequest(ns, after, limit, reverse))
		if err != nil {
			return err
		}
		return structInto(res, &raw)
	})
	if err != nil {
		return EventsPage{}, err
	}
	page := EventsPage{Namespace: raw.Namespace, Events: make([]Event, 0, len(raw.Events))}
	for _, e := range raw.Events {
		seq, err := strconv.ParseUint(e.Seq, 10, 64)
		if err != nil {
			return EventsPage{}, err
		}
		page.Events = append(page.Events, Event{Seq: seq, AtMs: e.AtMs, Kind: e.Kind, Detail: e.Detail})
	}
	if raw.Next != "" {
		if page.Next, err = strconv.ParseUint(raw.Next, 10, 64); err != nil {
			return EventsPage{}, err
		}
	}
	return page, nil
}

// structInto converts a protobuf message to its JSON form and decodes that
// into dst.
func structInto(m proto.Message, dst any) error {
	b, err := protojson.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
