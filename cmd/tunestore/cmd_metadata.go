package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/discovery"
	"github.com/tunelab/tunestore/internal/models"
	"github.com/tunelab/tunestore/internal/validation"
)

// checkedEntry is a metadata entry with its schema violations.
type checkedEntry struct {
	discovery.Entry
	Problems []string `json:"problems,omitempty"`
}

func newMetadataCommand(g *globals) *cobra.Command {
	var (
		filter   string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Output the metadata of every experiment under the local root as JSON",
		Long: `Output a JSON object keyed by experiment name with the directory and
metadata of every experiment found under the local root. Only metadata is
read; results are not loaded.

With --validate each metadata file is also checked against the metadata
schema and any violations are listed under "problems".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			entries, err := discovery.Metadata(a.locator.Root(), discovery.Contains(filter))
			if err != nil && !discovery.IsNotExist(err) {
				return err
			}
			if entries == nil {
				entries = map[string]discovery.Entry{}
			}
			if !validate {
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			checked := make(map[string]checkedEntry, len(entries))
			for name, e := range entries {
				problems, err := validation.ValidateMetadataFile(filepath.Join(e.Dir, models.MetadataFile))
				if err != nil {
					return err
				}
				checked[name] = checkedEntry{Entry: e, Problems: problems}
			}
			return writeJSON(cmd.OutOrStdout(), checked)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only experiments whose path contains this text")
	cmd.Flags().BoolVar(&validate, "validate", false, "Check each metadata file against the metadata schema")
	return cmd
}
