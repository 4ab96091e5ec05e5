package client

import (
	"fmt"
	"time"

	idsvc "github.com/rzbill/bigid/internal/services/ids"
	"github.com/spf13/cobra"
)

// NewLayoutCommand constructs `layout`, which prints the bit layout of a
// config and how long its IDs last.
func NewLayoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Show the ID bit layout and lifetime for a config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Layout().Validate(); err != nil {
				return err
			}
			info := idsvc.DescribeLayout(cfg.Layout(), cfg.EpochMillis, cfg.ShardID)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "epoch:     %d (%s)\n", info.EpochMillis, time.UnixMilli(info.EpochMillis).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "timestamp: %d bits\n", info.TimestampBits)
			fmt.Fprintf(out, "shard:     %d bits (max %d, this node %d)\n", info.ShardBits, info.MaxShard, info.ShardID)
			fmt.Fprintf(out, "sequence:  %d bits (%d ids/ms)\n", info.SequenceBits, info.MaxSequence+1)
			fmt.Fprintf(out, "expires:   %s\n", info.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("config", "", "Config file (.json|.yaml)")
	return cmd
}
