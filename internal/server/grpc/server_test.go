package grpcserver

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	bigidv1 "github.com/rzbill/bigid/api/bigid/v1"
	cfgpkg "github.com/rzbill/bigid/internal/config"
	"github.com/rzbill/bigid/internal/runtime"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	"github.com/rzbill/bigid/pkg/id"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
}

func setup(t *testing.T, cfg cfgpkg.Config, clk id.Clock) (context.Context, *grpc.ClientConn) {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg, Clock: clk})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	srv := New(rt, nil)
	d := dialer(srv.grpc)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	conn, err := grpc.DialContext(ctx, "bufnet", grpc.WithContextDialer(d), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		srv.grpc.Stop()
		cancel()
		_ = rt.Close()
	})
	return ctx, conn
}

func TestHealthOverGRPC(t *testing.T) {
	ctx, conn := setup(t, cfgpkg.Default(), nil)
	c := healthpb.NewHealthClient(conn)
	for _, svc := range []string{"", bigidv1.IDServiceName} {
		res, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
		if err != nil {
			t.Fatalf("check %q: %v", svc, err)
		}
		if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("status %v", res.GetStatus())
		}
	}
}

func TestNextAndDecodeOverGRPC(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.ShardID = 33
	ctx, conn := setup(t, cfg, nil)
	c := bigidv1.NewIDServiceClient(conn)

	var hdr metadata.MD
	ctx = metadata.AppendToOutgoingContext(ctx, requestIDKey, "rid-7")
	a, err := c.Next(ctx, wrapperspb.String("orders_id_seq"), grpc.Header(&hdr))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := hdr.Get(requestIDKey); len(got) != 1 || got[0] != "rid-7" {
		t.Fatalf("request id header %v", got)
	}
	b, err := c.Next(ctx, wrapperspb.String("orders_id_seq"))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if b.GetValue() <= a.GetValue() {
		t.Fatalf("not increasing: %d then %d", a.GetValue(), b.GetValue())
	}

	parts, err := c.Decode(ctx, wrapperspb.UInt64(b.GetValue()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f := parts.GetFields()
	if f["shard"].GetNumberValue() != 33 {
		t.Fatalf("shard = %v", f["shard"])
	}
	if f["id"].GetStringValue() != id.ID(b.GetValue()).String() {
		t.Fatalf("id = %v", f["id"])
	}

	ns, err := c.Namespaces(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("namespaces: %v", err)
	}
	if n := len(ns.GetFields()["namespaces"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("namespaces = %d", n)
	}
}

func TestBatchStream(t *testing.T) {
	ctx, conn := setup(t, cfgpkg.Default(), nil)
	c := bigidv1.NewIDServiceClient(conn)

	stream, err := c.Batch(ctx, bigidv1.BatchRequest("", 25))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var prev uint64
	n := 0
	for {
		v, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if v.GetValue() <= prev {
			t.Fatalf("not increasing")
		}
		prev = v.GetValue()
		n++
	}
	if n != 25 {
		t.Fatalf("received %d ids", n)
	}
}

func TestErrorCodes(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.SequenceBits = 2
	cfg.Wraparound = "fail"
	fixed := id.ClockFunc(func() int64 { return id.DefaultEpochMillis + 99 })
	ctx, conn := setup(t, cfg, fixed)
	c := bigidv1.NewIDServiceClient(conn)

	_, err := c.Next(ctx, wrapperspb.String("Bad Name"))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", err)
	}

	stream, err := c.Batch(ctx, bigidv1.BatchRequest("tiny", 6))
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	got := 0
	for {
		_, err = stream.Recv()
		if err != nil {
			break
		}
		got++
	}
	if got != 4 || status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("got %d ids, err %v", got, err)
	}

	if status.Code(toStatus(id.ErrClockRegression)) != codes.Unavailable {
		t.Fatalf("regression should map to Unavailable")
	}
	if status.Code(toStatus(context.Canceled)) != codes.Canceled {
		t.Fatalf("cancel should map to Canceled")
	}
}

func TestEventsOverGRPC(t *testing.T) {
	ctx, conn := setup(t, cfgpkg.Default(), nil)
	c := bigidv1.NewIDServiceClient(conn)
	if _, err := c.Next(ctx, wrapperspb.String("orders_id_seq")); err != nil {
		t.Fatalf("next: %v", err)
	}

	res, err := c.Events(ctx, bigidv1.EventsRequest("orders_id_seq", 0, 10, false))
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	list := res.GetFields()["events"].GetListValue().GetValues()
	if len(list) != 1 {
		t.Fatalf("events = %v", list)
	}
	ev := list[0].GetStructValue().GetFields()
	if ev["kind"].GetStringValue() != "opened" || ev["seq"].GetStringValue() != "1" {
		t.Fatalf("event = %v", ev)
	}
	if res.GetFields()["next"].GetStringValue() != "" {
		t.Fatalf("unexpected next cursor %v", res.GetFields()["next"])
	}

	_, err = c.Events(ctx, bigidv1.EventsRequest("Bad/Name", 0, 10, false))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v", status.Code(err))
	}
}
