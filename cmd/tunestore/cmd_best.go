package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/aggregate"
	"github.com/tunelab/tunestore/internal/models"
	"github.com/tunelab/tunestore/internal/render"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/webapi"
)

func newBestCommand(g *globals) *cobra.Command {
	var metric, format string

	cmd := &cobra.Command{
		Use:   "best <name>",
		Short: "Print the best observed configuration of an experiment",
		Long: `Print the row of the results table with the best value of a metric,
following the experiment's metric mode (min or max). Reserved st_ columns
are left out; ties go to the earliest row.

--metric picks a metric other than the first declared one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table", "json"); err != nil {
				return err
			}
			a, err := g.open()
			if err != nil {
				return err
			}
			exp, err := loadUsable(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			mode, err := exp.MetricMode()
			if err != nil {
				return err
			}

			used := metric
			var cfg aggregate.Config
			if metric == "" {
				names, err := exp.MetricNames()
				if err != nil {
					return err
				}
				used = names[0]
				cfg, err = aggregate.BestConfig(exp)
				if err != nil {
					return err
				}
			} else if cfg, err = aggregate.BestConfigWith(exp, metric); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, webapi.BestResponse{
					Name:            exp.Name,
					Metric:          used,
					Mode:            string(mode),
					Config:          cfg,
					HyperParameters: aggregate.HyperParameters(cfg),
				})
			}

			fmt.Fprintf(out, "best %s (%s) of %s\n", used, mode, exp.Name) //nolint:errcheck
			keys := make([]string, 0, len(cfg))
			for k := range cfg {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			pairs := make([][2]string, len(keys))
			for i, k := range keys {
				pairs[i] = [2]string{k, cfg[k].String()}
			}
			return render.KeyValues(out, pairs)
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "", "Metric to optimize (default: first declared metric)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

// loadUsable loads name with the configured defaults and requires both
// metadata and results.
func loadUsable(ctx context.Context, a *app, name string) (*models.Experiment, error) {
	exp, err := a.store.Load(ctx, name, store.LoadOptions{
		AllowRemote: a.cfg.AllowRemote(),
		LoadState:   a.cfg.LoadState(),
	})
	if err != nil {
		return nil, err
	}
	if !exp.Usable() {
		return nil, &NoResultsError{Message: fmt.Sprintf("experiment %q has no usable metadata and results", name)}
	}
	return exp, nil
}
