package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/discovery"
	"github.com/tunelab/tunestore/internal/render"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/webapi"
)

func newListCommand(g *globals) *cobra.Command {
	var filter, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List usable experiments under the local root",
		Long: `List every usable experiment below the local root, most recent first.

--filter keeps experiments whose directory path contains the given text.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table", "json"); err != nil {
				return err
			}
			a, err := g.open()
			if err != nil {
				return err
			}
			coll, err := a.store.List(cmd.Context(), "", discovery.Contains(filter), nil, store.CollectOptions{
				LoadState: a.cfg.LoadState(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				rows := make([]webapi.ExperimentSummary, 0, coll.Usable())
				for _, e := range coll.Experiments {
					rows = append(rows, webapi.Summarize(e))
				}
				if err := writeJSON(out, rows); err != nil {
					return err
				}
			} else if coll.Usable() > 0 {
				if err := writeSummaries(out, coll); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s usable of %s scanned\n", //nolint:errcheck
				render.Count(coll.Usable()), render.Count(coll.Scanned))
			if coll.Usable() == 0 {
				return &NoResultsError{Message: fmt.Sprintf("no usable experiments under %s", a.locator.Root())}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only experiments whose path contains this text")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func writeSummaries(w io.Writer, coll *store.Collection) error {
	headers := []string{"NAME", "CREATED", "MODE", "METRICS", "ROWS", "TRIALS"}
	rows := make([][]string, 0, coll.Usable())
	for _, e := range coll.Experiments {
		s := webapi.Summarize(e)
		created := ""
		if !s.Created.IsZero() {
			created = s.Created.Format(time.DateTime)
		}
		rows = append(rows, []string{
			s.Name,
			created,
			s.MetricMode,
			strings.Join(s.MetricNames, ","),
			render.Count(s.Rows),
			render.Count(s.Trials),
		})
	}
	return render.Table(w, render.IsTerminal(w), headers, rows)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
