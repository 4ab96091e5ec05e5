package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the bigid client.
// It registers the id, namespace and layout command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "bigid",
		Short: "bigid client commands",
	}
	Register(root, baseURL)
	return root
}

// Register adds the client command groups to an existing root.
func Register(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(NewIDCommand(baseURL))
	root.AddCommand(NewNamespaceCommand(baseURL))
	root.AddCommand(NewLayoutCommand())
}
