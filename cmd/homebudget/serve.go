package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"homebudget/internal/backend"
	"homebudget/internal/cache"
	"homebudget/internal/cli"
	apphttp "homebudget/internal/http"
	"homebudget/internal/log"
	"homebudget/internal/services"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the ledger over HTTP on $PORT.

Budget alerts and ledger events are published to AMQP when AMQP_URL is set.
Reports are pushed to the EXPORT_BACKEND (memory or sheets).`,
		Args: cobra.NoArgs,
		RunE: runServe,
	})
}

// openBackend creates the configured exporter and, when available, the AMQP client.
func openBackend(ctx context.Context) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	return res, nil
}

// publisher avoids handing a typed nil to the service.
func publisher(res *backend.BackendResult) services.Publisher {
	if res.AMQP == nil {
		return nil
	}
	return res.AMQP
}

func closeBackend(res *backend.BackendResult) {
	if err := res.Close(); err != nil {
		logger.Warn("Backend cleanup failed", log.FieldError, err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	res, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend(res)

	svc, err := cli.NewLedgerService(cfg, publisher(res), logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		ExportTarget:       cfg.ExportBackend,
	}, svc, res.Backend, logger)

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	caches.Register(srv.ReportCache())
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr, "backend", cfg.ExportBackend, "amqp", res.AMQP != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := cli.ShutdownContext(cfg.ShutdownTimeout)
		defer cancel()
		start := time.Now()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("HTTP server stopped", "took", time.Since(start).String())
		return nil
	})
	return g.Wait()
}
