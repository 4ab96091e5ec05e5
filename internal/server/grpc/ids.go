package grpcserver

import (
	"context"
	"strconv"

	bigidv1 "github.com/rzbill/bigid/api/bigid/v1"
	idsvc "github.com/rzbill/bigid/internal/services/ids"
	"github.com/rzbill/bigid/pkg/id"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type idsSvc struct {
	bigidv1.UnimplementedIDServiceServer
	svc *idsvc.Service
}

func (s *idsSvc) Next(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	v, err := s.svc.Next(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	return wrapperspb.UInt64(v.Uint64()), nil
}

// Batch streams every issued ID, then reports the error that stopped the
// batch, if any.
func (s *idsSvc) Batch(req *structpb.Struct, stream bigidv1.IDService_BatchServer) error {
	ns, count := bigidv1.ParseBatchRequest(req)
	ids, err := s.svc.Batch(stream.Context(), ns, count)
	for _, v := range ids {
		if serr := stream.Send(wrapperspb.UInt64(v.Uint64())); serr != nil {
			return serr
		}
	}
	return err
}

func (s *idsSvc) Decode(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	return partsStruct(id.ID(req.GetValue()), s.svc.Decode(id.ID(req.GetValue()))), nil
}

func (s *idsSvc) Namespaces(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	metas, err := s.svc.Namespaces(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]interface{}, 0, len(metas))
	for _, m := range metas {
		list = append(list, map[string]interface{}{
			"name":         m.Name,
			"createdAtMs":  m.CreatedAtMs,
			"epochMillis":  m.EpochMillis,
			"shardId":      m.ShardID,
			"shardBits":    int64(m.ShardBits),
			"sequenceBits": int64(m.SequenceBits),
		})
	}
	return structpb.NewStruct(map[string]interface{}{"namespaces": list})
}

func (s *idsSvc) Events(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ns, after, limit, reverse := bigidv1.ParseEventsRequest(req)
	page, err := s.svc.Events(ctx, ns, after, limit, reverse)
	if err != nil {
		return nil, err
	}
	list := make([]interface{}, 0, len(page.Events))
	for _, e := range page.Events {
		list = append(list, map[string]interface{}{
			"seq":    strconv.FormatUint(e.Seq, 10),
			"atMs":   e.AtMs,
			"kind":   e.Kind.String(),
			"detail": e.Detail,
		})
	}
	next := ""
	if page.Next != 0 {
		next = strconv.FormatUint(page.Next, 10)
	}
	return structpb.NewStruct(map[string]interface{}{
		"namespace": page.Namespace,
		"events":    list,
		"next":      next,
	})
}

// partsStruct renders decoded parts. The ID itself is a decimal string since
// Struct numbers are doubles.
func partsStruct(v id.ID, p id.Parts) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":       structpb.NewStringValue(v.String()),
		"hex":      structpb.NewStringValue(v.Hex()),
		"millis":   structpb.NewNumberValue(float64(p.Millis)),
		"delta":    structpb.NewNumberValue(float64(p.Delta)),
		"shard":    structpb.NewNumberValue(float64(p.Shard)),
		"sequence": structpb.NewNumberValue(float64(p.Sequence)),
		"time":     structpb.NewStringValue(p.Time().Format("2006-01-02T15:04:05.000Z07:00")),
	}}
}
