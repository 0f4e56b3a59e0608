package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/server"
	"github.com/jamsync/jamsync/internal/tasks"
)

// Serve runs the HTTP API alongside the download reconciler and the
// playlist scheduler until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = int(port)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	interval := time.Duration(r.config.Sync.ReconcileSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := time.Duration(r.config.Sync.DownloadTimeoutMin) * time.Minute
	if timeout <= 0 {
		timeout = 2 * time.Hour
	}

	reconciler := tasks.NewReconciler(d.downloads, d.jobs, d.matches, d.downloader, d.admission, d.engine, interval, timeout, r.logger)
	scheduler := tasks.NewScheduler(d.playlists, d.engine, r.config.Sync, r.logger)

	api := server.NewAPI(d.playlists, d.jobs, d.matches, d.downloads, d.cache, d.engine, d.discovery, d.downloader, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.RequestLogging(r.logger))
	router.Handler(api)

	srv := server.New(r.config.Server, router, r.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reconciler.Start(ctx)
	go scheduler.Start(ctx)

	r.logger.Info("jamsync service starting",
		"reconcile_interval", interval,
		"download_timeout", timeout,
		"download_ceiling", r.config.Sync.DownloadCeiling,
	)

	return srv.Start(ctx)
}
