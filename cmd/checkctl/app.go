package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/equipcheck/internal"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/report"
	"github.com/DukeRupert/equipcheck/internal/service"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// app holds the services a command needs.
type app struct {
	cfg     *internal.Config
	store   store.Store
	catalog *domain.Catalog
	reports service.ReportService
	users   service.UserService
}

type opener func(*cobra.Command) (*app, error)

func openApp(ctx context.Context, logOut io.Writer, verbose bool) (*app, error) {
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger := internal.NewLogger(logOut, "development", level)

	catalog, err := internal.LoadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	st, err := internal.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := internal.OpenStorage(cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	docs := report.NewGenerator(report.StorageImageLoader{Storage: blobs}, cfg.Location, logger)
	return &app{
		cfg:     cfg,
		store:   st,
		catalog: catalog,
		reports: service.NewReportService(st, catalog, blobs, docs, service.ReportConfig{
			Location:          cfg.Location,
			DefaultSupervisor: cfg.SupervisorDefaultName,
		}, logger),
		users: service.NewUserService(st, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
