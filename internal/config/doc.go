// Package config provides loading and environment overlay for bigid runtime
// configuration. It exposes a Default() baseline, JSON/YAML file loading and
// conversion into generator options.
//
// Example:
//
//	cfg, err := config.Load("/etc/bigid.yaml")
//	if err != nil {
//	    return err
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	rt, _ := runtime.Open(runtime.Options{DataDir: "/var/lib/bigid", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
package config
