package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/ilistas/internal/config"
	"github.com/hoanghai1803/ilistas/internal/feeds"
	"github.com/hoanghai1803/ilistas/internal/lists"
	"github.com/hoanghai1803/ilistas/internal/logging"
	"github.com/hoanghai1803/ilistas/internal/storage"
)

// app carries what every subcommand needs once the root command has loaded
// config and opened the store.
type app struct {
	dataDir    string
	configPath string
	verbose    bool

	cfg        *config.Config
	svc        *lists.Service
	closeStore func() error
	closeLog   io.Closer
}

func main() {
	if err := (&app{}).execute(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs one command line and releases the store and log file
// afterwards, whether or not the command failed.
func (a *app) execute(args []string, stdout, stderr io.Writer) error {
	defer a.close()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ilistas",
		Short:        "Manage watch lists from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", config.DefaultDataDir(), "data directory")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default <data-dir>/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	rootCmd.AddCommand(
		listsCmd(a),
		showCmd(a),
		newCmd(a),
		rmCmd(a),
		addCmd(a),
		addURLCmd(a),
		feedCmd(a),
		editCmd(a),
		delCmd(a),
		watchCmd(a),
		moveCmd(a),
		shareCmd(a),
		importCmd(a),
		snapshotsCmd(a),
	)
	return rootCmd
}

// open loads config, sets up logging and opens the collection store.
func (a *app) open() error {
	if a.configPath == "" {
		a.configPath = filepath.Join(a.dataDir, "config.toml")
	}
	cfg, err := config.Load(a.configPath, a.dataDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Log
	if !a.verbose {
		logCfg.Level = "warn"
	}
	a.closeLog, err = logging.Setup(logCfg)
	if err != nil {
		return err
	}

	store, closeStore, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	a.closeStore = closeStore

	fetcher := feeds.NewFetcher(time.Duration(cfg.Feeds.TimeoutSeconds) * time.Second)
	a.svc = lists.NewService(store,
		lists.WithFetcher(fetcher, feeds.FetchOptions{MaxItems: cfg.Feeds.MaxItemsPerFeed}),
	)
	return nil
}

// close is safe to call more than once and after a partial open.
func (a *app) close() error {
	if a.closeLog != nil {
		a.closeLog.Close()
		a.closeLog = nil
	}
	if a.closeStore != nil {
		err := a.closeStore()
		a.closeStore = nil
		return err
	}
	return nil
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
