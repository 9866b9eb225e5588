// cmd/aurasync/serve.go
package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sonnibytes/aura-github-sync/internal/api"
	"github.com/sonnibytes/aura-github-sync/internal/database"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the synced data over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: api.NewRouter(database.New(a.pool), a.logger),
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("HTTP server listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("Shutdown signal received, draining requests")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to LISTEN_ADDR)")

	return cmd
}
