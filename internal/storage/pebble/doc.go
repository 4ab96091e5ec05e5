// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// point operations, prefix scans and minimal metrics hooks.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("ns/orders/meta"), meta)
//	_ = db.SetSync([]byte("ns/orders/wm"), mark)
//	_ = db.ScanPrefix([]byte("ns/"), func(k, v []byte) error { return nil })
package pebblestore
