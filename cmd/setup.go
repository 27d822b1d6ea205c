package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/config"
	"github.com/dagr-org/dagr/internal/dagbag"
	"github.com/dagr-org/dagr/internal/persistence/sqldag"
	"github.com/dagr-org/dagr/internal/registry"
)

// app bundles the shared dependencies behind every command.
type app struct {
	cfg     *config.Config
	store   *sqldag.Store
	service *registry.Service
}

func (a *app) close() {
	_ = a.store.Close()
}

// setupApp loads the configuration, opens the metadata store and builds the
// registry service. The returned context carries the application logger.
func setupApp(ctx context.Context) (context.Context, *app, error) {
	var opts []config.ConfigLoaderOption
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logOpts := []logger.Option{logger.WithFormat(cfg.LogFormat)}
	if cfg.Debug {
		logOpts = append(logOpts, logger.WithDebug())
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(logOpts...))

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return ctx, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := sqldag.New(cfg.DatabasePath)
	if err != nil {
		return ctx, nil, err
	}

	bag := dagbag.New(cfg.DAGsDir)
	service := registry.New(store, store, bag)

	return ctx, &app{cfg: cfg, store: store, service: service}, nil
}
