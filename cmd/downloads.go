package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/formatter"
	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// DownloadsList prints album downloads, optionally filtered by status.
func (r *Runner) DownloadsList(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	status := models.DownloadStatus(cmd.String("status"))
	if status != "" {
		switch status {
		case models.DownloadPending, models.DownloadQueued, models.DownloadDownloading,
			models.DownloadCompleted, models.DownloadFailed:
		default:
			return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidArgument, status)
		}
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	downloads, err := d.downloads.List(status, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list downloads: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(downloads, true)
	}

	if len(downloads) == 0 {
		r.writePlain("No downloads.\n")
		return nil
	}

	return r.writePlain("%s", formatter.DownloadTable(downloads))
}

// DownloadsRetry requeues a failed download. The reconciler picks it up on
// its next pass.
func (r *Runner) DownloadsRetry(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: download ID", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	download, err := d.downloads.Get(id)
	if err != nil {
		return fmt.Errorf("failed to look up download: %w", err)
	}

	if download.Status != models.DownloadFailed {
		return fmt.Errorf("%w: only failed downloads can be retried (status is %s)", shared.ErrInvalidArgument, download.Status)
	}

	download.Status = models.DownloadPending
	download.RemoteJobID = ""
	download.Progress = 0
	download.ErrorMessage = ""
	download.QueuedAt = nil
	download.CompletedAt = nil

	if err := d.downloads.Update(download); err != nil {
		return fmt.Errorf("failed to requeue download: %w", err)
	}

	r.writePlain("✓ Download %s requeued: %s - %s\n", download.ID, download.Artist, download.Title)
	return nil
}
