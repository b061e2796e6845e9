package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

const (
	// CLILogDir specifies where one-shot command log files are stored.
	CLILogDir = "logs/cli_logs"
	// WorkerLogDir specifies where sync worker log files are stored.
	WorkerLogDir = "logs/worker_logs"
	// APILogDir specifies where local API log files are stored.
	APILogDir = "logs/api_logs"
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
		Name:  "hivesync",
		Usage: "Mirror the Hive feed into a local store and query it",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Pull new posts from the feed",
				Action: syncAction,
			},
			{
				Name:   "evict",
				Usage:  "Remove posts older than the retention window",
				Action: evictAction,
			},
			{
				Name:  "page",
				Usage: "Print one page of stored posts, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Value:   1,
						Usage:   "Page number, 1-indexed",
					},
					&cli.IntFlag{
						Name:    "size",
						Aliases: []string{"s"},
						Value:   20,
						Usage:   "Posts per page",
					},
				},
				Action: pageAction,
			},
			{
				Name:      "rank",
				Usage:     "Rank authors by post count or pending payout",
				ArgsUsage: "posts|payout",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   10,
						Usage:   "Number of authors to show, 0 for all",
					},
					&cli.StringFlag{
						Name:  "chart",
						Usage: "Write a PNG bar chart of the ranking to this file",
					},
				},
				Action: rankAction,
			},
			{
				Name:      "reputation",
				Usage:     "Show the reputation score of an account",
				ArgsUsage: "<account>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "purge",
						Usage: "Drop the cached score before looking it up",
					},
				},
				Action: reputationAction,
			},
			{
				Name:   "serve",
				Usage:  "Serve the local REST API",
				Action: serveAction,
			},
			{
				Name:   "worker",
				Usage:  "Run the background sync worker",
				Action: workerAction,
			},
			{
				Name:   "workers",
				Usage:  "List sync worker heartbeats reported to Redis",
				Action: workersAction,
			},
		},
	}

	return app.Run(ctx, os.Args)
}
