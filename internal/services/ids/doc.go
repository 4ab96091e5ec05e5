// Package idsvc implements the ID facade over the runtime's generator
// registry. It resolves the default namespace, traces and logs each call, and
// is consumed by the gRPC and HTTP transports.
//
// Example:
//
//	svc := idsvc.New(rt, logger)
//	v, _ := svc.Next(ctx, "orders_id_seq")
//	ids, _ := svc.Batch(ctx, "", 100) // default namespace
//	parts := svc.Decode(v)
package idsvc
