package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jackzampolin/lectern/internal/config"
	"github.com/jackzampolin/lectern/internal/extract"
	"github.com/jackzampolin/lectern/internal/home"
	"github.com/jackzampolin/lectern/internal/pipeline"
	"github.com/jackzampolin/lectern/internal/providers"
	"github.com/jackzampolin/lectern/internal/status"
	"github.com/jackzampolin/lectern/internal/store"
	"github.com/jackzampolin/lectern/internal/svcctx"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// buildServices wires up the home directory, config, store, and
// pipeline. The returned cleanup closes the store.
func buildServices(logger *slog.Logger) (*svcctx.Services, func(), error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, nil, err
	}

	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cfg := cm.Get()

	st, err := store.Open(h.DatabasePath(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	tracker := status.NewTracker(st, logger)
	extractor := extract.NewPDFExtractor(logger)
	registry := providers.NewRegistry(cfg, logger)

	cm.OnChange(func(c *config.Config) {
		registry.Reload(c)
		logger.Info("provider registry reloaded from config")
	})

	runner := pipeline.NewRunner(st, tracker, extractor, registry, pipeline.Options{
		FrontPages:      cfg.Defaults.FrontPages,
		MatchConfidence: cfg.Defaults.MatchConfidence,
		MaxSummaryChars: cfg.Defaults.MaxSummaryChars,
	}, logger)

	services := &svcctx.Services{
		Store:     st,
		Tracker:   tracker,
		Extractor: extractor,
		Registry:  registry,
		Pipelines: pipeline.NewManager(runner, logger),
		Config:    cm,
		Logger:    logger,
		Home:      h,
	}

	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}
	return services, cleanup, nil
}
