package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/cache"
	"github.com/tunelab/tunestore/internal/models"
	"github.com/tunelab/tunestore/internal/render"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/wizard"
)

func newShowCommand(g *globals) *cobra.Command {
	var group, container string

	cmd := &cobra.Command{
		Use:   "show [name]",
		Short: "Show one experiment",
		Long: `Load one experiment and print its summary and metadata.

Without a name, pick from the experiments under the local root.
--remote fetches the experiment from remote storage when it is missing
locally; --state also reads the run-state artifact.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			allowRemote := boolFlag(cmd, "remote", a.cfg.AllowRemote())
			loadState := boolFlag(cmd, "state", a.cfg.LoadState())

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				coll, err := a.store.List(cmd.Context(), "", nil, nil, store.CollectOptions{})
				if err != nil {
					return err
				}
				name, err = wizard.PickExperiment(cmd.InOrStdin(), cmd.OutOrStdout(), coll.Experiments)
				if errors.Is(err, wizard.ErrNothingToPick) {
					return &NoResultsError{Message: fmt.Sprintf("no usable experiments under %s", a.locator.Root())}
				}
				if err != nil {
					return err
				}
			}

			exp, err := a.store.Load(cmd.Context(), name, store.LoadOptions{
				AllowRemote: allowRemote,
				LoadState:   loadState,
				Remote:      remoteOptions(group, container),
			})
			if err != nil {
				return err
			}
			if exp.Metadata == nil && exp.Results == nil {
				return &NoResultsError{Message: fmt.Sprintf("experiment %q not found", name)}
			}
			files, err := cache.New(a.locator.Root()).Artifacts(exp.Path)
			if err != nil {
				return err
			}
			return printExperiment(cmd.OutOrStdout(), exp, files)
		},
	}

	cmd.Flags().Bool("remote", false, "Fetch from remote storage when missing locally (default from .tunestore.yaml)")
	cmd.Flags().Bool("state", false, "Also load the run-state artifact (default from .tunestore.yaml)")
	cmd.Flags().StringVar(&group, "group", "", "Remote group the experiment belongs to")
	cmd.Flags().StringVar(&container, "container", "", "Remote container (default from .tunestore.yaml)")
	return cmd
}

func printExperiment(w io.Writer, exp *models.Experiment, files []string) error {
	if _, err := fmt.Fprintln(w, exp.String()); err != nil {
		return err
	}

	pairs := [][2]string{{"path", exp.Path}}
	if len(files) > 0 {
		pairs = append(pairs, [2]string{"files", strings.Join(files, ", ")})
	}
	if t, ok := exp.CreationTime(); ok {
		pairs = append(pairs, [2]string{"created", t.UTC().Format(time.RFC3339)})
	}
	if exp.Results == nil {
		pairs = append(pairs, [2]string{"results", "missing"})
	} else {
		pairs = append(pairs, [2]string{"columns", strings.Join(exp.Results.Columns(), ", ")})
	}
	if exp.Metadata == nil {
		pairs = append(pairs, [2]string{"metadata", "missing"})
	}
	if exp.State != nil && exp.State.Name != "" {
		pairs = append(pairs, [2]string{"state", exp.State.Name})
	}
	if err := render.KeyValues(w, pairs); err != nil {
		return err
	}

	if exp.Metadata == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nmetadata:"); err != nil {
		return err
	}
	meta := make([][2]string, 0, exp.Metadata.Len())
	for _, k := range exp.Metadata.Keys() {
		v, _ := exp.Metadata.Get(k)
		meta = append(meta, [2]string{"  " + k, formatMetadataValue(v)})
	}
	return render.KeyValues(w, meta)
}

func formatMetadataValue(v models.MetadataValue) string {
	if !v.IsSequence() {
		return v.Scalar().String()
	}
	parts := make([]string, 0, v.Len())
	for _, x := range v.Values() {
		parts = append(parts, x.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
