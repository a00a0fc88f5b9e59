package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/remote"
	"github.com/tunelab/tunestore/internal/render"
	"github.com/tunelab/tunestore/internal/store"
)

// errRemoteNotConfigured is returned by commands that need remote storage.
var errRemoteNotConfigured = errors.New("remote storage is not configured: set remote.account_url or remote.connection_string in .tunestore.yaml")

func newFetchCommand(g *globals) *cobra.Command {
	var group, container string
	var withState, force bool

	cmd := &cobra.Command{
		Use:   "fetch <name>",
		Short: "Download an experiment's artifacts into the local root",
		Long: `Download the metadata, results and (with --state) run-state artifacts of
an experiment from remote storage into the local root. Artifacts missing
remotely are skipped. Artifacts already present locally are kept unless
--force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			if !a.store.HasRemote() {
				return errRemoteNotConfigured
			}
			name := args[0]
			dir, err := a.locator.LocalPath(name)
			if err != nil {
				return err
			}

			stop := render.StartSpinner(cmd.ErrOrStderr(), "fetching "+name)
			fetch := a.fetcher.Fetch
			if force {
				fetch = a.fetcher.Refresh
			}
			fetched, err := fetch(cmd.Context(), name, store.Artifacts(withState), dir, remoteOptions(group, container)...)
			stop()
			if err != nil {
				return err
			}
			if len(fetched) == 0 {
				return &NoResultsError{Message: fmt.Sprintf("experiment %q not found remotely", name)}
			}
			return printFetched(cmd.OutOrStdout(), fetched, dir)
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Remote group the experiment belongs to")
	cmd.Flags().StringVar(&container, "container", "", "Remote container (default from .tunestore.yaml)")
	cmd.Flags().BoolVar(&withState, "state", false, "Also fetch the run-state artifact")
	cmd.Flags().BoolVar(&force, "force", false, "Replace artifacts already present locally")
	return cmd
}

func printFetched(w io.Writer, fetched remote.Fetched, dir string) error {
	pairs := make([][2]string, 0, len(fetched))
	for _, name := range fetched.Names() {
		a := fetched[name]
		how := "downloaded"
		if a.Cached {
			how = "cached"
		}
		pairs = append(pairs, [2]string{name, fmt.Sprintf("sha256:%s  %s", a.Digest, how)})
	}
	if err := render.KeyValues(w, pairs); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d downloaded into %s\n", len(fetched.Downloaded()), dir)
	return err
}
