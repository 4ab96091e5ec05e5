// Package grpcserver hosts bigid's gRPC server: the bigid.v1.IDService and
// the standard grpc.health.v1 service, delegating to the ID service layer.
// Generator errors map to InvalidArgument, ResourceExhausted and Unavailable.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := grpcserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
