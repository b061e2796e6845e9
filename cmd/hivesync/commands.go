package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/robalyx/hivesync/internal/chart"
	"github.com/robalyx/hivesync/internal/database/types"
	"github.com/robalyx/hivesync/internal/rest"
	"github.com/robalyx/hivesync/internal/setup"
	"github.com/robalyx/hivesync/internal/setup/telemetry"
	"github.com/robalyx/hivesync/internal/worker/core"
	syncWorker "github.com/robalyx/hivesync/internal/worker/sync"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Server timeouts.
const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 60 * time.Second
	ShutdownTimeout = 30 * time.Second
)

var (
	ErrAccountRequired = errors.New("ACCOUNT argument required")
	ErrUnknownRanking  = errors.New("ranking must be one of: posts, payout")
	ErrRedisDisabled   = errors.New("redis is disabled in common.toml")
)

// printer formats counts and amounts with digit grouping.
var printer = message.NewPrinter(language.English)

// withApp initializes the application, runs fn and cleans up afterwards.
func withApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string, fn func(*setup.App) error) error {
	app, err := setup.InitializeApp(ctx, serviceType, logDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	return fn(app)
}

// evictOnStartup drops expired posts before a command reads the store.
func evictOnStartup(ctx context.Context, app *setup.App) error {
	evicted, err := app.DB.Service().Eviction().EvictExpired(ctx)
	if err != nil {
		return err
	}

	if evicted > 0 {
		app.Logger.Info("Evicted expired posts on startup", zap.Int("count", evicted))
	}

	return nil
}

func syncAction(ctx context.Context, _ *cli.Command) error {
	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		if err := evictOnStartup(ctx, app); err != nil {
			return err
		}

		result, err := app.Syncer.Sync(ctx)
		if err != nil {
			return err
		}

		fmt.Println(result.Message())
		if result.Skipped > 0 {
			printer.Printf("Skipped %d invalid items.\n", result.Skipped)
		}

		return nil
	})
}

func evictAction(ctx context.Context, _ *cli.Command) error {
	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		evicted, err := app.DB.Service().Eviction().EvictExpired(ctx)
		if err != nil {
			return err
		}

		printer.Printf("Evicted %d posts.\n", evicted)

		return nil
	})
}

func pageAction(ctx context.Context, c *cli.Command) error {
	page, size := int(c.Int("page")), int(c.Int("size"))

	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		if err := evictOnStartup(ctx, app); err != nil {
			return err
		}

		pages := app.DB.Service().Page()

		posts, err := pages.GetPage(ctx, page, size)
		if err != nil {
			return err
		}

		totalPages, err := pages.TotalPages(ctx, size)
		if err != nil {
			return err
		}

		reputations := app.Reputation.Annotate(ctx, posts)

		for _, post := range posts {
			kind := "post"
			if post.IsReply() {
				kind = "reply"
			}

			fmt.Printf("%s  %-5s  %s (%d)  %s\n",
				post.Created.UTC().Format(time.DateTime),
				kind,
				post.Author,
				reputations[post.Author],
				summary(post),
			)
		}

		printer.Printf("Page %d of %d\n", page, totalPages)

		return nil
	})
}

func rankAction(ctx context.Context, c *cli.Command) error {
	kind := c.Args().First()
	if kind != "posts" && kind != "payout" {
		return ErrUnknownRanking
	}

	limit := int(c.Int("limit"))
	chartPath := c.String("chart")

	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		if err := evictOnStartup(ctx, app); err != nil {
			return err
		}

		ranking := app.DB.Service().Ranking()

		var (
			metrics []types.AuthorMetric
			err     error
			title   string
		)

		if kind == "posts" {
			metrics, err = ranking.ByPostCount(ctx)
			title = "Posts per author"
		} else {
			metrics, err = ranking.ByPayout(ctx)
			title = "Pending payout per author"
		}
		if err != nil {
			return err
		}

		if limit > 0 && len(metrics) > limit {
			metrics = metrics[:limit]
		}

		for i, m := range metrics {
			if kind == "posts" {
				printer.Printf("%3d. %-24s %d\n", i+1, m.Author, int64(m.Value))
			} else {
				printer.Printf("%3d. %-24s %.2f\n", i+1, m.Author, m.Value)
			}
		}

		if chartPath == "" {
			return nil
		}

		builder := chart.NewRankingChartBuilder(title, metrics)
		if kind == "payout" {
			builder = builder.WithValueFormat(func(v float64) string {
				return printer.Sprintf("%.2f", v)
			})
		}

		buf, err := builder.Build()
		if err != nil {
			return err
		}

		if err := os.WriteFile(chartPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}

		fmt.Printf("Chart written to %s\n", chartPath)

		return nil
	})
}

func reputationAction(ctx context.Context, c *cli.Command) error {
	account := strings.TrimSpace(c.Args().First())
	if account == "" {
		return ErrAccountRequired
	}

	purge := c.Bool("purge")

	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		if purge {
			if err := app.Reputation.Purge(ctx, account); err != nil {
				return err
			}
		}

		score := app.Reputation.GetReputation(ctx, account)

		entry, err := app.DB.Model().Reputation().GetEntry(ctx, account)
		if err != nil {
			return err
		}

		if entry == nil {
			printer.Printf("%s: %d (fallback, not cached)\n", account, score)
			return nil
		}

		printer.Printf("%s: %d (cached %s)\n", account, score, entry.FetchedAt.Format(time.DateTime))

		return nil
	})
}

func serveAction(ctx context.Context, _ *cli.Command) error {
	return withApp(ctx, telemetry.ServiceAPI, APILogDir, func(app *setup.App) error {
		if err := evictOnStartup(ctx, app); err != nil {
			return err
		}

		addr := app.Config.Worker.API.Addr()
		srv := &http.Server{
			Addr:         addr,
			Handler:      rest.NewServer(app.DB, app.Syncer, app.Reputation, app.Logger),
			ReadTimeout:  ReadTimeout,
			WriteTimeout: WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			app.Logger.Info("REST server started", zap.String("addr", addr))
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

		app.Logger.Info("Shutting down REST server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Server forced to shutdown", zap.Error(err))
		}

		app.Logger.Info("Server gracefully stopped")

		return nil
	})
}

func workerAction(ctx context.Context, _ *cli.Command) error {
	return withApp(ctx, telemetry.ServiceWorker, WorkerLogDir, func(app *setup.App) error {
		logger := app.LogManager.GetWorkerLogger("sync_worker")

		reporter := core.NewStatusReporter(app.StatusClient, "sync", logger)
		worker := syncWorker.New(
			app.Syncer,
			app.DB.Service().Eviction(),
			reporter,
			app.Config.Worker.SyncIntervalDuration(),
			app.Config.Worker.StartupDelayDuration(),
			logger,
		)

		worker.Start(ctx)
		logger.Info("Sync worker stopped")

		return nil
	})
}

func workersAction(ctx context.Context, _ *cli.Command) error {
	return withApp(ctx, telemetry.ServiceCLI, CLILogDir, func(app *setup.App) error {
		if app.StatusClient == nil {
			return ErrRedisDisabled
		}

		statuses, err := core.NewMonitor(app.StatusClient, app.Logger).GetAllStatuses(ctx)
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No workers reporting.")
			return nil
		}

		now := time.Now()
		for _, status := range statuses {
			state := "healthy"
			switch {
			case status.IsStale(now):
				state = "stale"
			case !status.IsHealthy:
				state = "unhealthy"
			}

			fmt.Printf("%s  %-9s  %-24s %3d%%  %s\n",
				status.WorkerID, state, status.CurrentTask, status.Progress, status.LastError)
		}

		return nil
	})
}

// summary returns the title, or the start of the body for replies.
func summary(post *types.Post) string {
	text := post.Title
	if text == "" {
		text = post.Body
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > 60 {
		text = string(runes[:57]) + "..."
	}

	return text
}
