package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"imagegrab/internal/downloader"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/auth"
	"imagegrab/pkg/config"
	"imagegrab/pkg/handlers"
	"imagegrab/pkg/history"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/metadata"
	"imagegrab/pkg/ui"
)

// app is the state shared by the download commands for one run.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	client   *apiclient.Client
	history  *history.Store
	manifest *metadata.Manifest
	view     *ui.LineView
	out      *downloader.OutputLog
}

// loadConfig resolves the configuration for cmd, filling missing service
// identifiers from the credential store.
func loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	if cmd.Flags().Changed("aspect") {
		if _, _, err := config.ParseAspect(aspect); err != nil {
			return nil, err
		}
	}

	flags := commandFlags(cmd)
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if manager, err := auth.NewManager(); err == nil {
		manager.Apply(cfg)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, source string, extra map[string]interface{}) (*app, error) {
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger().WithField("command", cmd.Name())
	a := &app{
		cfg:    cfg,
		log:    log,
		client: apiclient.NewClient(cfg, log),
		view:   ui.NewLineView(nil, os.Stderr),
	}
	a.out = downloader.NewOutputLogFunc(a.view.Add)

	if cfg.Output.HistoryFile != "" {
		store, err := history.Open(cfg.Output.HistoryFile)
		if err != nil {
			return nil, err
		}
		a.history = store
	}
	if cfg.Output.Manifest {
		a.manifest = metadata.NewManifest(source)
	}

	log.InfoWithFields("Run starting", map[string]interface{}{
		"source":  source,
		"output":  cfg.Output.BaseDirectory,
		"workers": cfg.Download.Workers,
	})
	return a, nil
}

func (a *app) runOptions() handlers.RunOptions {
	opts := handlers.RunOptions{
		Workers:  a.cfg.Download.Workers,
		Manifest: a.manifest,
	}
	if a.history != nil {
		opts.History = a.history
	}
	return opts
}

// target is the folder a source's images are saved into.
func (a *app) target(name string) string {
	return filepath.Join(a.cfg.Output.BaseDirectory, name)
}

// finish closes the run: history is flushed, the manifest written and a
// summary printed.
func (a *app) finish(source string) error {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close history")
		}
	}

	saved, skipped, failed := a.view.Count("saved"), a.view.Count("skipped"), a.view.Count("failed")

	if a.manifest != nil {
		a.manifest.Finish()
		path, err := a.manifest.Save(a.cfg.Output.BaseDirectory)
		if err != nil {
			ui.PrintWarning("Failed to write manifest", err)
		} else {
			ui.PrintInfo("Manifest", path)
		}
	}

	a.log.InfoWithFields("Run finished", map[string]interface{}{
		"source":  source,
		"saved":   saved,
		"skipped": skipped,
		"failed":  failed,
	})

	ui.PrintSuccess(fmt.Sprintf("%d saved, %d skipped, %d failed", saved, skipped, failed))
	if notify {
		_ = ui.NewNotifier().RunFinished(source, saved, skipped, failed)
	}
	return nil
}
