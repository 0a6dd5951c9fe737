package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebox/handlers"
	"recipebox/logging"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipe and favourites HTTP API",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			return serve(cmd.Context(), a)
		}),
	}
	cmd.Flags().String("listen", "", "Listen address (default :8080)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	handler := handlers.NewRouter(handlers.Deps{
		Catalog:     a.catalog,
		Favourites:  a.favs,
		Logger:      logging.Named(a.logger, "http"),
		CORSOrigins: a.cfg.CORSOrigins,
		ImageHosts:  a.cfg.ImageHosts,
	})

	server := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", a.cfg.Listen),
			zap.String("storage", a.cfg.Storage.Driver), zap.Bool("persistent", a.favs.Persistent()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("server shutting down")
	return server.Shutdown(shutdownCtx)
}
