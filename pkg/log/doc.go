// Package log provides bigid's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by the
// standard library's slog via a bridge handler that feeds our own
// formatter/outputs pipeline, so slog-aware libraries and our code produce
// identical lines.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("registry"), log.Namespace("orders_id_seq"))
//	l.Info("generator opened", log.Uint64("shard", 7))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config (text or JSON
// formatting, console and optional file output).
//
// # Interop
//
// RedirectStdLog routes the default *log.Logger (pebble, net/http) through a
// Logger; ToStdLogger wraps one for APIs that want a *log.Logger.
package log
