// Package client provides the `bigid` command-line client.
//
// The CLI talks to the bigid gRPC (default) or HTTP endpoints to issue and
// decode IDs from a terminal. It is primarily intended for developers and
// operators.
//
// # Address configuration
//
// The HTTP base URL comes from a BaseURLFunc supplied by the embedding
// binary (BIGID_HTTP, default http://127.0.0.1:8080). The gRPC address is
// read from BIGID_GRPC (default 127.0.0.1:50051).
//
// Usage
//
//	bigid id next --namespace orders_id_seq
//	bigid id batch --namespace orders_id_seq --count 100 --transport http
//	bigid id decode 5242880
//	bigid id decode 0x500000 --offline --config bigid.yaml
//
//	bigid namespace name --table user --column id   # user_id_seq
//	bigid namespace list
//	bigid namespace events --namespace orders_id_seq --reverse --limit 20
//
//	bigid layout --config bigid.yaml
package client
