package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/aggregate"
	"github.com/tunelab/tunestore/internal/models"
)

func newTimeSeriesCommand(g *globals) *cobra.Command {
	var metric string

	cmd := &cobra.Command{
		Use:   "timeseries <name>",
		Short: "Print the running best of a metric over wallclock time",
		Long: `Print one tab-separated line per evaluation: the wallclock time and the
best metric value seen up to that time. The output is meant for plotting
tools.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			exp, err := loadUsable(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			used := metric
			if used == "" {
				names, err := exp.MetricNames()
				if err != nil {
					return err
				}
				used = names[0]
			}
			points, err := aggregate.TimeSeries(exp, used)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\t%s\n", models.ColumnTime, used) //nolint:errcheck
			for _, p := range points {
				fmt.Fprintf(out, "%s\t%s\n", //nolint:errcheck
					strconv.FormatFloat(p.Time, 'g', -1, 64),
					strconv.FormatFloat(p.Best, 'g', -1, 64))
			}
			if len(points) == 0 {
				return &NoResultsError{Message: fmt.Sprintf("experiment %q has no numeric %s values", exp.Name, used)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "", "Metric to trace (default: first declared metric)")
	return cmd
}
