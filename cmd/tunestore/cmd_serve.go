package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/webapi"
	"github.com/tunelab/tunestore/internal/webserver"
)

func newServeCommand(g *globals) *cobra.Command {
	var port int
	var host string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the experiments over a read-only HTTP API",
		Long: `Serve the experiments under the local root over a read-only JSON API.

Endpoints:
  GET /api/health
  GET /api/summary
  GET /api/experiments
  GET /api/experiments/{name}
  GET /api/experiments/{name}/results?offset=&limit=
  GET /api/experiments/{name}/best?metric=
  GET /api/experiments/{name}/timeseries?metric=
  GET /metrics

The server binds to 127.0.0.1 unless --host is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}

			srv, err := webserver.New(webserver.Config{
				Host: host,
				Port: port,
				Store: webapi.NewCollectionStore(a.store, store.CollectOptions{
					AllowRemote: a.cfg.AllowRemote(),
					LoadState:   a.cfg.LoadState(),
				}),
				Metrics:        a.metrics,
				AllowedOrigins: origins,
				Out:            cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from .tunestore.yaml)")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to bind to")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Origins allowed to call the API from a browser")
	return cmd
}
