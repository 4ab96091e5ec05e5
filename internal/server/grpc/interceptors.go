package grpcserver

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/rzbill/bigid/pkg/log"
	"github.com/rzbill/bigid/pkg/tracing"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// requestIDKey is the metadata key carrying the request id.
const requestIDKey = "x-request-id"

// toStatus maps generator errors onto gRPC status codes. Errors that already
// carry a status pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, id.ErrInvalidConfig):
		code = codes.InvalidArgument
	case errors.Is(err, id.ErrSequenceExhausted):
		code = codes.ResourceExhausted
	case errors.Is(err, id.ErrClockRegression):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func requestContext(ctx context.Context) (context.Context, string) {
	rid := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			rid = v[0]
		}
	}
	if rid == "" {
		rid = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, rid))
	return log.ContextWithRequestID(ctx, rid), rid
}

func unaryInterceptor(logger log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		// health checks are polled; keep them out of traces and logs
		if isHealth(info.FullMethod) {
			return handler(ctx, req)
		}
		ctx, rid := requestContext(ctx)
		ctx, span := tracing.StartSpan(ctx, info.FullMethod, trace.SpanKindServer)
		span.SetString("request_id", rid)
		resp, err := handler(ctx, req)
		err = toStatus(err)
		span.End(err)
		logger.WithContext(ctx).Debug("rpc", log.Str("method", info.FullMethod), log.Str("code", status.Code(err).String()))
		return resp, err
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

func streamInterceptor(logger log.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isHealth(info.FullMethod) {
			return handler(srv, ss)
		}
		ctx, rid := requestContext(ss.Context())
		ctx, span := tracing.StartSpan(ctx, info.FullMethod, trace.SpanKindServer)
		span.SetString("request_id", rid)
		err := toStatus(handler(srv, &wrappedStream{ServerStream: ss, ctx: ctx}))
		span.End(err)
		logger.WithContext(ctx).Debug("stream", log.Str("method", info.FullMethod), log.Str("code", status.Code(err).String()))
		return err
	}
}

func isHealth(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}
