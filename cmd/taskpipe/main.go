package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskpipe/internal/adapter/primary/worker"
	"taskpipe/internal/config"
	"taskpipe/internal/port/secondary"
)

const appName = "taskpipe"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancellation for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the dependency injection container.
	c, err := buildContainer(ctx)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}

	// Invoke the application, resolving all dependencies and starting services.
	return c.Invoke(func(
		router http.Handler,
		w *worker.Worker,
		cfg *config.Config,
		logger *zap.Logger,
		producer secondary.MessageProducer,
		closeQueue cleanup,
	) error {
		defer func() {
			// Clean up resources on shutdown.
			if err := closeQueue(); err != nil {
				logger.Error("error closing queue backend", zap.Error(err))
			}
			if err := producer.Close(); err != nil {
				logger.Error("error closing kafka producer", zap.Error(err))
			}
			_ = logger.Sync()
		}()

		logger.Info("starting application",
			zap.String("app", appName),
			zap.String("version", version),
			zap.String("environment", cfg.Environment),
			zap.String("http_addr", cfg.HTTP.Addr),
			zap.String("queue_backend", cfg.Queue.Backend),
		)

		server := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)

		// Background consumer.
		g.Go(func() error {
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("worker: %w", err)
			}
			return nil
		})

		// HTTP front door.
		g.Go(func() error {
			logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})

		// Shutdown on signal or on the first component failure.
		g.Go(func() error {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			case <-gctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", zap.Error(err))
			}
			cancel()
			return nil
		})

		if err := g.Wait(); err != nil {
			logger.Error("service error", zap.Error(err))
			return err
		}

		logger.Info("shutdown complete")
		return nil
	})
}
