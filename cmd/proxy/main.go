package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robalyx/hivesync/internal/proxy"
	"github.com/robalyx/hivesync/internal/setup"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ProxyLogDir specifies where proxy log files are stored.
const ProxyLogDir = "logs/proxy_logs"

// Server timeouts. Large limits with high concurrency take a while to collect.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 120 * time.Second
	ShutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "proxy",
		Usage: "Serve recent Hive posts from a HAF SQL database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides the configured server host and port",
			},
		},
		Action: serve,
	}

	return app.Run(ctx, os.Args)
}

func serve(ctx context.Context, c *cli.Command) error {
	app, err := setup.InitializeProxyApp(ctx, ProxyLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize proxy: %w", err)
	}
	defer app.Cleanup()

	addr := c.String("addr")
	if addr == "" {
		addr = app.Config.Proxy.Server.Addr()
	}

	store := proxy.NewCommentStore(app.DB, app.DBLogger)
	srv := &http.Server{
		Addr:         addr,
		Handler:      proxy.NewServer(store, &app.Config.Proxy.Fetch, app.Logger),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("Proxy server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down proxy server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	app.Logger.Info("Server gracefully stopped")

	return nil
}
