package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"recipebox/catalog"
	"recipebox/config"
	"recipebox/favorites"
	"recipebox/logging"
	"recipebox/mealdb"
	"recipebox/metrics"
	"recipebox/storage"
)

// app holds the collaborators shared by every command. The favourites store
// is created and loaded exactly once here and passed to whoever needs it.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	slot    storage.Store
	client  *mealdb.Client
	catalog *catalog.Catalog
	favs    *favorites.Store
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, "recipebox")
	if err != nil {
		return nil, err
	}
	m := metrics.New(nil)

	slot, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}

	client := mealdb.New(
		mealdb.WithBaseURL(cfg.MealDB.BaseURL),
		mealdb.WithHTTPClient(&http.Client{
			Timeout:   cfg.MealDB.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
		mealdb.WithRateLimit(cfg.MealDB.RatePerSecond),
		mealdb.WithRetryMaxElapsed(cfg.MealDB.RetryMaxElapsed),
		mealdb.WithLogger(logging.Named(logger, "mealdb")),
		mealdb.WithMetrics(m),
	)

	favs := favorites.New(slot,
		favorites.WithKey(cfg.Favourites.Key),
		favorites.WithLogger(logging.Named(logger, "favourites")),
		favorites.WithMetrics(m),
	)
	favs.Load(ctx)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		slot:    slot,
		client:  client,
		catalog: catalog.New(client, logging.Named(logger, "catalog")),
		favs:    favs,
	}, nil
}

func (a *app) Close() {
	if err := a.slot.Close(); err != nil {
		a.logger.Warn("close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp adapts a command body that needs the shared collaborators.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
