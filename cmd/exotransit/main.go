package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/star/exotransit/internal/api"
	"github.com/star/exotransit/internal/auth"
	"github.com/star/exotransit/internal/catalog"
	"github.com/star/exotransit/internal/config"
	"github.com/star/exotransit/internal/health"
	"github.com/star/exotransit/internal/logging"
	"github.com/star/exotransit/internal/marketcap"
	"github.com/star/exotransit/internal/observability"
	"github.com/star/exotransit/internal/stream"
)

func main() {
	configPath := flag.String("config", os.Getenv("EXOTRANSIT_CONFIG"), "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "exotransit:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Server.LogLevel, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      os.Stderr,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialising tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	sites, err := catalog.LoadBuiltin(logger)
	if err != nil {
		return fmt.Errorf("loading site catalog: %w", err)
	}

	readiness := health.NewReadiness()
	readiness.Add("sites", func() error {
		if len(sites.List()) == 0 {
			return errors.New("no site collections loaded")
		}
		return nil
	})

	var refresher *marketcap.Refresher
	if cfg.MarketCap.Enabled {
		src := marketcap.NewHTTPSource(marketcap.HTTPSourceConfig{
			BaseURL:           cfg.MarketCap.SourceURL,
			RequestsPerSecond: cfg.MarketCap.RequestsPerSecond,
		})
		est := marketcap.NewEstimator(src, cfg.MarketCap.Workers, logger)
		refresher = marketcap.NewRefresher(est, marketcap.NewStore(), marketcap.RefresherConfig{
			Tickers:  cfg.MarketCap.Tickers,
			Window:   cfg.MarketCap.Window(),
			Interval: cfg.MarketCap.RefreshInterval,
		}, logger)
		readiness.Add("marketcap", func() error {
			if refresher.Store().Get() == nil {
				return errors.New("no snapshot yet")
			}
			return nil
		})
		go refresher.Run(ctx)
	}

	streamHandler := stream.NewHandler(stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		BandwidthLimit:     cfg.Stream.BandwidthLimit,
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval,
		FrameInterval:      cfg.Stream.FrameInterval,
		TrustProxy:         cfg.Server.TrustProxy,
		MaxSamples:         cfg.Transit.MaxSamples,
	}, logger)

	srv := api.NewServer(api.Options{
		Addr:           cfg.Server.Addr,
		Logger:         logger,
		Auth:           auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		TrustProxy:     cfg.Server.TrustProxy,
		Readiness:      readiness,
		Sites:          sites,
		MarketCap:      refresher,
		Stream:         streamHandler,
		DefaultSamples: cfg.Transit.DefaultSamples,
		MaxSamples:     cfg.Transit.MaxSamples,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"marketcap_enabled", cfg.MarketCap.Enabled,
			"tracing_enabled", cfg.Tracing.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
