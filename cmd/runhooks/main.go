package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/runhooks/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "runhooks",
		Short: "Posts CI run progress to Discord, Slack and generic webhooks",
		Long: `runhooks stores per-project hook settings and reports run events
received over NATS JetStream or HTTP to the configured destinations.

Commands:
  runhooks serve     Start the API server and event subscriber (default)
  runhooks migrate   Apply or roll back database migrations`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	collect := config.BindFlags(root.PersistentFlags())

	serve := newServeCmd(collect)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(collect))
	return root
}
