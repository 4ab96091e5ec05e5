package client

import (
	"context"
	"fmt"
	"os"

	transports "github.com/rzbill/bigid/internal/cmd/client/transports"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// grpcAddrFromEnv returns the gRPC server address from BIGID_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("BIGID_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext dials the bigid gRPC endpoint with insecure transport for local/dev.
func dialGRPCContext(ctx context.Context) (*grpc.ClientConn, error) {
	return grpc.DialContext(ctx, grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// getTransport picks the transport named by kind (grpc|http).
func getTransport(kind string, baseURL BaseURLFunc) (transports.IDsTransport, error) {
	switch kind {
	case "", "grpc":
		return transports.NewGrpcTransport(dialGRPCContext), nil
	case "http":
		return transports.NewHTTPTransport(baseURL, nil), nil
	default:
		return nil, fmt.Errorf("invalid --transport %q; use grpc|http", kind)
	}
}
