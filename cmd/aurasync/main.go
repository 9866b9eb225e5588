// cmd/aurasync/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	root := &cobra.Command{
		Use:          "aurasync",
		Short:        "aurasync keeps local GitHub commit data in sync",
		Long:         `aurasync synchronizes repository metadata, estimated commit summaries and weekly commit activity from the GitHub REST API into Postgres, and can serve the synced data over HTTP.`,
		SilenceUsage: true,
	}

	root.AddCommand(newSyncCmd())
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}
