package serverrun

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/rzbill/bigid/internal/config"
	"github.com/rzbill/bigid/internal/runtime"
	grpcserver "github.com/rzbill/bigid/internal/server/grpc"
	httpserver "github.com/rzbill/bigid/internal/server/http"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	logpkg "github.com/rzbill/bigid/pkg/log"
	"github.com/rzbill/bigid/pkg/tracing"
)

// Version is reported in traces and the startup log line.
var Version = "dev"

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Log is applied as given; empty Level/Format fall back to
	// BIGID_LOG_LEVEL/BIGID_LOG_FORMAT, then info/text.
	Log logpkg.Config
	// TraceFile enables span export to a file; BIGID_TRACE_FILE otherwise.
	TraceFile string
}

func buildLogger(c logpkg.Config) logpkg.Logger {
	if c.Level == "" {
		c.Level = getenvDefault("BIGID_LOG_LEVEL", "info")
	}
	if c.Format == "" {
		c.Format = getenvDefault("BIGID_LOG_FORMAT", "text")
	}
	l, err := logpkg.ApplyConfig(&c)
	if err != nil {
		lvl := logpkg.InfoLevel
		if parsed, e := logpkg.ParseLevel(c.Level); e == nil {
			lvl = parsed
		}
		l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
		l.Warn("invalid log config, using text", logpkg.Err(err))
	}
	return l
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled. An
// empty address disables that transport.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	opts.DataDir = cfgpkg.ResolveDataDir(opts.DataDir)

	procLogger := buildLogger(opts.Log)
	// pebble and net/http log through the standard logger
	logpkg.RedirectStdLog(procLogger)

	traceFile := opts.TraceFile
	if traceFile == "" {
		traceFile = getenv("BIGID_TRACE_FILE")
	}
	if traceFile != "" {
		if err := tracing.Init("bigid", Version, traceFile); err != nil {
			procLogger.Warn("tracing disabled", logpkg.Err(err))
		} else {
			defer func() {
				cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = tracing.Shutdown(cctx)
			}()
		}
	}

	rt, err := runtime.Open(runtime.Options{
		DataDir:       cfgpkg.StoreDir(opts.DataDir),
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
		Logger:        procLogger,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("starting bigid server",
		logpkg.Str("version", Version),
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("fsync", opts.Fsync.String()),
		logpkg.Uint64("shard", opts.Config.ShardID),
		logpkg.Int("shard_bits", int(opts.Config.ShardBits)),
		logpkg.Int("sequence_bits", int(opts.Config.SequenceBits)),
		logpkg.Str("trace_file", traceFile),
	)

	var (
		wg   sync.WaitGroup
		gsrv *grpcserver.Server
		hsrv *httpserver.Server
	)
	if opts.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server stopped", logpkg.Err(err))
				stop()
			}
		}()
	}
	if opts.HTTPAddr != "" {
		hsrv = httpserver.New(rt, procLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("http server stopped", logpkg.Err(err))
				stop()
			}
		}()
	}

	<-sctx.Done()
	// stop transports before the runtime closes the DB
	if gsrv != nil {
		gsrv.Close()
	}
	if hsrv != nil {
		hsrv.Close()
	}
	wg.Wait()
	procLogger.Info("bigid server stopped")
	return nil
}
