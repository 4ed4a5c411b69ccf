// Package cli implements the overlay command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo is version metadata populated via -ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type globalFlags struct {
	configPath string
	endpoint   string
	format     string
}

// NewRootCommand builds the overlay command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "overlay",
		Short:         "Publish and subscribe on an overlay node",
		Long:          "overlay keeps a session of topic subscriptions on a node, replaying it after every reconnect.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch g.format {
			case "table", "json":
				return nil
			default:
				return fmt.Errorf("invalid --format %q (want table or json)", g.format)
			}
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.overlay/config.yaml if present)")
	root.PersistentFlags().StringVar(&g.endpoint, "endpoint", "", "Node WebSocket endpoint, overrides client.endpoint")
	root.PersistentFlags().StringVar(&g.format, "format", "table", "Output format: table or json")

	root.AddCommand(
		newListenCmd(g),
		newWatchCmd(g),
		newPublishCmd(g),
		newSessionCmd(g),
		newRelayCmd(g),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the command tree with ctx and returns the first error.
func Execute(ctx context.Context, info BuildInfo, args []string) error {
	root := NewRootCommand(info)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			version := info.Version
			if version == "" {
				version = "dev"
			}
			fmt.Fprintf(out, "overlay %s", version)
			if info.Commit != "" {
				fmt.Fprintf(out, " (commit %s)", info.Commit)
			}
			if info.Date != "" {
				fmt.Fprintf(out, " built %s", info.Date)
			}
			fmt.Fprintln(out)
		},
	}
}
