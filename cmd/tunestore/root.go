package main

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tunelab/tunestore/internal/locator"
	"github.com/tunelab/tunestore/internal/metrics"
	"github.com/tunelab/tunestore/internal/projectconfig"
	"github.com/tunelab/tunestore/internal/remote"
	"github.com/tunelab/tunestore/internal/store"
	"github.com/tunelab/tunestore/internal/utils"
	"github.com/tunelab/tunestore/internal/webapi"
)

var version = "dev"

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	root   string
	remote string
	debug  bool
}

// app is the wiring every subcommand works against.
type app struct {
	cfg     *projectconfig.ProjectConfig
	locator *locator.Locator
	store   *store.Store
	fetcher *remote.Fetcher
	metrics *metrics.Collector
}

// open loads .tunestore.yaml and builds the store. --root wins over the
// configured root.
func (g *globals) open() (*app, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, err
	}

	var root string
	if g.root != "" {
		root, err = utils.ResolvePath(g.root, wd)
	} else {
		root, err = cfg.ResolveRoot()
	}
	if err != nil {
		return nil, err
	}

	if g.remote != "" {
		uri, err := locator.ParseRemoteURI(g.remote)
		if err != nil {
			return nil, err
		}
		cfg.Remote.Container, cfg.Remote.Prefix = uri.Container, uri.Key
	}

	a := &app{cfg: cfg, metrics: metrics.NewCollector()}
	a.locator = locator.New(root, locator.Location{
		Container: cfg.Remote.Container,
		Prefix:    cfg.Remote.Prefix,
	})

	opts := []store.Option{
		store.WithWorkers(cfg.Defaults.Workers),
		store.WithMetrics(a.metrics),
	}
	if cfg.Remote.Configured() {
		d, err := remote.NewAzureDownloader(remote.AzureConfig{
			AccountURL:       cfg.Remote.AccountURL,
			ConnectionString: cfg.Remote.ConnectionString,
			Timeout:          cfg.Remote.TryTimeout(),
			Retries:          cfg.Remote.Retries,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring remote storage: %w", err)
		}
		a.fetcher = remote.NewFetcher(d, a.locator, remote.WithMetrics(a.metrics))
		opts = append(opts, store.WithFetcher(a.fetcher))
	}
	a.store = store.New(a.locator, opts...)
	slog.Debug("store opened", "root", root, "remote", cfg.Remote.Configured())
	return a, nil
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   "tunestore",
		Short: "tunestore - browse and aggregate hyperparameter tuning experiments",
		Long: `tunestore reads tuning experiments from a local root directory, fetching
missing ones from remote blob storage on demand.

It lists experiments, shows the best observed configuration of one, traces
the running best over time and merges many experiments into one table.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&g.root, "root", "", "Local experiment root (default from .tunestore.yaml)")
	cmd.PersistentFlags().StringVar(&g.remote, "remote", "", "Remote location as az://<container>[/<prefix>] (default from .tunestore.yaml)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if g.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newListCommand(g))
	cmd.AddCommand(newShowCommand(g))
	cmd.AddCommand(newBestCommand(g))
	cmd.AddCommand(newTimeSeriesCommand(g))
	cmd.AddCommand(newExportCommand(g))
	cmd.AddCommand(newFetchCommand(g))
	cmd.AddCommand(newMetadataCommand(g))
	cmd.AddCommand(newServeCommand(g))

	return cmd
}

func execute() error {
	webapi.Version = version
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

// checkFormat rejects output formats the command does not support.
func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// remoteOptions turns the --group and --container flags into locator options.
func remoteOptions(group, container string) []locator.RemoteOption {
	var opts []locator.RemoteOption
	if group != "" {
		opts = append(opts, locator.WithGroup(group))
	}
	if container != "" {
		opts = append(opts, locator.WithContainer(container))
	}
	return opts
}

// boolFlag returns the flag value when it was set, otherwise def.
func boolFlag(cmd *cobra.Command, name string, def bool) bool {
	if !cmd.Flags().Changed(name) {
		return def
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return def
	}
	return v
}
