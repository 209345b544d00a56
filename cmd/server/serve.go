package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/bootstrap"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/config"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/handler"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/pagination"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const startupTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, log)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := bootstrap.Verify(ctx, store.Pinger, startupTimeout); err != nil {
		log.Error().Err(err).Str("driver", store.Driver).Msg("store is not reachable")
		return err
	}

	for _, f := range indexplan.Unsafe(indexplan.Check(indexplan.Default(), pagination.QueryShapes())) {
		log.Warn().Str("shape", f.Shape.String()).Msg("query shape has no covering index")
	}

	engine, err := newEngine(cfg, store, log)
	if err != nil {
		return err
	}

	r := handler.NewRouter(cfg.App.Env)
	handler.Register(r, store.Pinger, engine, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.App.Port).Str("driver", store.Driver).Msg("Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func newEngine(cfg *config.Config, store *bootstrap.Store, log zerolog.Logger) (*pagination.Engine, error) {
	codec, err := pagination.NewTokenCodec([]byte(cfg.Pagination.TokenSecret), cfg.Pagination.TokenTTL)
	if err != nil {
		return nil, err
	}
	return pagination.NewEngine(store.Exams, codec, pagination.Config{
		Limits: pagination.Limits{
			DefaultSize: cfg.Pagination.DefaultSize,
			MaxSize:     cfg.Pagination.MaxSize,
		},
		FetchTimeout: cfg.Store.FetchTimeout,
	}, log), nil
}
