package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/bigid/internal/cmd/client"
	serverrun "github.com/rzbill/bigid/internal/cmd/server"
	cfgpkg "github.com/rzbill/bigid/internal/config"
	pebblestore "github.com/rzbill/bigid/internal/storage/pebble"
	logpkg "github.com/rzbill/bigid/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// Respect BIGID_LOG_LEVEL for CLI output; server start builds its own.
	level := os.Getenv("BIGID_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:          "bigid",
		Short:        "bigid ID service CLI",
		Long:         "bigid issues unique, time-ordered 64-bit IDs. This CLI runs the server and talks to it.",
		SilenceUsage: true,
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start bigid server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			logFile, _ := cmd.Flags().GetString("log-file")
			traceFile, _ := cmd.Flags().GetString("trace-file")

			mode, err := pebblestore.ParseFsyncMode(fsyncMode)
			if err != nil {
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				GRPCAddr:      grpcAddr,
				HTTPAddr:      httpAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
				Log:           logpkg.Config{Level: logLevel, Format: logFormat, File: logFile},
				TraceFile:     traceFile,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (default $BIGID_DATA_DIR, then the per-user data directory)")
	serverStartCmd.Flags().String("grpc", ":50051", "gRPC listen address (empty disables)")
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address (empty disables)")
	serverStartCmd.Flags().String("config", os.Getenv("BIGID_CONFIG"), "Config file (.json|.yaml); BIGID_* variables override it")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms (default 5)")
	serverStartCmd.Flags().String("log-level", os.Getenv("BIGID_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("BIGID_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().String("log-file", os.Getenv("BIGID_LOG_FILE"), "Also write logs to this file")
	serverStartCmd.Flags().String("trace-file", "", "Write trace spans to this file (BIGID_TRACE_FILE)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.Register(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("BIGID_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
