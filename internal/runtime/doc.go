// Package runtime wires storage, config and the generator registry into a
// single-node bigid instance. It exposes Open/Close, a health check and the
// registry used by the ID service.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	v, _ := rt.Registry().Next(context.Background(), "orders_id_seq")
package runtime
