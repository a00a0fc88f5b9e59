package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/dataset"
	"github.com/tunelab/tunestore/internal/discovery"
	"github.com/tunelab/tunestore/internal/render"
	"github.com/tunelab/tunestore/internal/store"
)

func newExportCommand(g *globals) *cobra.Command {
	var filter, output, format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Merge all usable experiments into one table",
		Long: `Merge the results of every usable experiment under the local root into
one table. Each row carries experiment_name and the experiment's metadata
fields; sequence fields are spread over name-0, name-1, ... columns.

-o writes to a file instead of stdout. A .gz, .zst or .zip suffix
compresses the output. --format defaults to json for .json outputs and
csv otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = "csv"
				if strings.Contains(output, ".json") {
					format = "json"
				}
			}
			if err := checkFormat(format, "csv", "json"); err != nil {
				return err
			}
			a, err := g.open()
			if err != nil {
				return err
			}
			stop := render.StartSpinner(cmd.ErrOrStderr(), "loading experiments")
			table, coll, err := a.store.Frame(cmd.Context(), "", discovery.Contains(filter), nil, store.CollectOptions{
				LoadState: a.cfg.LoadState(),
			})
			stop()
			if err != nil {
				return err
			}
			if coll.Usable() == 0 {
				return &NoResultsError{Message: fmt.Sprintf("no usable experiments under %s", a.locator.Root())}
			}

			if err := writeTable(cmd.OutOrStdout(), output, format, table); err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = "stdout"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %s rows from %s experiments to %s\n", //nolint:errcheck
				render.Count(table.Len()), render.Count(coll.Usable()), dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only experiments whose path contains this text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: csv or json")
	return cmd
}

// writeTable encodes t to path (or stdout when path is empty), compressed
// according to the path suffix.
func writeTable(stdout io.Writer, path, format string, t *dataset.Table) (err error) {
	dst := stdout
	if path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return fmt.Errorf("creating %s: %w", path, cerr)
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		dst = f
	}

	w, err := dataset.NewWriter(dst, path)
	if err != nil {
		return err
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(t)
	} else {
		err = dataset.WriteCSV(w, t)
	}
	return errors.Join(err, w.Close())
}
