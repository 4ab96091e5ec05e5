package client

import (
	"encoding/json"
	"fmt"

	cfgpkg "github.com/rzbill/bigid/internal/config"
	"github.com/rzbill/bigid/pkg/id"
	"github.com/spf13/cobra"
)

// NewIDCommand constructs the `id` command group and subcommands.
func NewIDCommand(baseURL BaseURLFunc) *cobra.Command {
	idCmd := &cobra.Command{Use: "id", Short: "Issue and decode IDs"}
	idCmd.PersistentFlags().String("transport", "grpc", "Transport: grpc|http")
	idCmd.AddCommand(
		newIDNextCommand(baseURL),
		newIDBatchCommand(baseURL),
		newIDDecodeCommand(baseURL),
	)
	return idCmd
}

func newIDNextCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Issue one ID",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			kind, _ := cmd.Flags().GetString("transport")
			tr, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			v, err := tr.Next(cmd.Context(), ns)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	cmd.Flags().String("namespace", "", "Namespace (server default when empty)")
	return cmd
}

func newIDBatchCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Issue several IDs, one per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			count, _ := cmd.Flags().GetInt("count")
			kind, _ := cmd.Flags().GetString("transport")
			tr, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return tr.Batch(cmd.Context(), ns, count, func(v id.ID) error {
				_, err := fmt.Fprintln(out, v.String())
				return err
			})
		},
	}
	cmd.Flags().String("namespace", "", "Namespace (server default when empty)")
	cmd.Flags().Int("count", 10, "Number of IDs")
	return cmd
}

func newIDDecodeCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <id>",
		Short: "Split an ID (decimal or 0x hex) into time, shard and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := id.Parse(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			offline, _ := cmd.Flags().GetBool("offline")
			if offline {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				if err := cfg.Layout().Validate(); err != nil {
					return err
				}
				p := id.DecodeParts(v, cfg.Layout(), cfg.EpochMillis)
				return enc.Encode(map[string]any{
					"id": v.String(), "hex": v.Hex(), "time": p.Time(),
					"millis": p.Millis, "delta": p.Delta, "shard": p.Shard, "sequence": p.Sequence,
				})
			}

			kind, _ := cmd.Flags().GetString("transport")
			tr, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			d, err := tr.Decode(cmd.Context(), v)
			if err != nil {
				return err
			}
			return enc.Encode(d)
		},
	}
	cmd.Flags().Bool("offline", false, "Decode locally using --config instead of asking the server")
	cmd.Flags().String("config", "", "Config file (.json|.yaml) for --offline")
	return cmd
}

// loadConfig reads --config (if any) and overlays BIGID_* variables.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)
	return cfg, nil
}
