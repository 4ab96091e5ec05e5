package client

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rzbill/bigid/internal/namespace"
	"github.com/spf13/cobra"
)

// NewNamespaceCommand constructs the `namespace` command group.
func NewNamespaceCommand(baseURL BaseURLFunc) *cobra.Command {
	nsCmd := &cobra.Command{Use: "namespace", Aliases: []string{"ns"}, Short: "Namespace operations"}

	nameCmd := &cobra.Command{
		Use:   "name",
		Short: "Print the namespace used for a table column",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _ := cmd.Flags().GetString("table")
			column, _ := cmd.Flags().GetString("column")
			name, err := namespace.SequenceName(table, column)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
	nameCmd.Flags().String("table", "", "Table name")
	nameCmd.Flags().String("column", "id", "Column name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List namespaces known to the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("transport")
			tr, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			list, err := tr.Namespaces(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSHARD\tLAYOUT\tCREATED")
			for _, m := range list {
				fmt.Fprintf(w, "%s\t%d\t%d/%d\t%s\n", m.Name, m.ShardID, m.ShardBits, m.SequenceBits,
					time.UnixMilli(m.CreatedAtMs).UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	listCmd.Flags().String("transport", "grpc", "Transport: grpc|http")

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Show a namespace's journal (opens, exhaustion, clock regressions)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ns, _ := cmd.Flags().GetString("namespace")
			after, _ := cmd.Flags().GetUint64("after")
			limit, _ := cmd.Flags().GetInt("limit")
			reverse, _ := cmd.Flags().GetBool("reverse")
			kind, _ := cmd.Flags().GetString("transport")
			tr, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			page, err := tr.Events(cmd.Context(), ns, after, limit, reverse)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tTIME\tKIND\tDETAIL")
			for _, e := range page.Events {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.Seq,
					time.UnixMilli(e.AtMs).UTC().Format(time.RFC3339Nano), e.Kind, e.Detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if page.Next != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "more: --after %d\n", page.Next)
			}
			return nil
		},
	}
	eventsCmd.Flags().String("namespace", "", "Namespace (server default when empty)")
	eventsCmd.Flags().Uint64("after", 0, "Resume after this sequence")
	eventsCmd.Flags().Int("limit", 50, "Events per page")
	eventsCmd.Flags().Bool("reverse", false, "Newest first")
	eventsCmd.Flags().String("transport", "grpc", "Transport: grpc|http")

	nsCmd.AddCommand(nameCmd, listCmd, eventsCmd)
	return nsCmd
}
