package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

// AdmissionController submits pending album downloads to the remote queue
// while keeping the number of outstanding remote jobs under a ceiling.
//
// The ceiling sits below the remote queue's hard limit so jobs submitted
// outside this process still have room. Submission is oldest-first and
// idempotent: a pending download whose URL already has a remote job is
// linked to it instead of being submitted again.
type AdmissionController struct {
	downloads  *repositories.DownloadRepository
	downloader services.Downloader
	ceiling    int
	logger     *log.Logger
}

// NewAdmissionController creates an AdmissionController with the given
// outstanding-job ceiling.
func NewAdmissionController(downloads *repositories.DownloadRepository, downloader services.Downloader, ceiling int, logger *log.Logger) *AdmissionController {
	return &AdmissionController{
		downloads:  downloads,
		downloader: downloader,
		ceiling:    ceiling,
		logger:     logger,
	}
}

// SubmitPending submits pending downloads up to the available headroom and
// returns how many were submitted or linked. The remote queue is listed
// exactly once per invocation.
//
// A queue-full response from the remote stops the batch; the remaining rows
// stay pending for the next pass. Any other submission failure marks that
// download failed and the batch continues.
func (a *AdmissionController) SubmitPending(ctx context.Context) (int, error) {
	remote, err := a.downloader.ListJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list remote jobs: %w", err)
	}

	active := 0
	byURL := make(map[string]services.RemoteJob, len(remote))
	for _, job := range remote {
		byURL[job.URL] = job
		status, known := models.ParseRemoteJobStatus(job.Status)
		// Unknown statuses count toward the ceiling; assuming a slot is
		// taken is the safe direction.
		if !known || status.Active() {
			active++
		}
	}

	available := a.ceiling - active
	if available <= 0 {
		return 0, nil
	}

	pending, err := a.downloads.ListPending()
	if err != nil {
		return 0, fmt.Errorf("failed to list pending downloads: %w", err)
	}

	submitted := 0
	for _, download := range pending {
		if submitted >= available {
			break
		}

		if existing, ok := byURL[download.AlbumURL]; ok {
			a.link(download, existing)
			submitted++
			continue
		}

		job, err := a.downloader.CreateJob(ctx, download.AlbumURL)
		if errors.Is(err, shared.ErrQueueFull) {
			a.logger.Info("remote queue full, deferring remaining downloads", "deferred", len(pending)-submitted)
			break
		}
		if err != nil {
			a.logger.Warn("download submission failed", "album", download.Title, "error", err)
			a.fail(download, err)
			continue
		}

		now := time.Now().UTC()
		download.RemoteJobID = job.ID
		download.Status = models.DownloadQueued
		download.QueuedAt = &now
		if err := a.downloads.Update(download); err != nil {
			return submitted, fmt.Errorf("failed to record submission for %s: %w", download.ID, err)
		}

		a.logger.Info("download submitted", "album", download.Title, "artist", download.Artist, "remote_job", job.ID)
		submitted++
	}

	return submitted, nil
}

// link attaches a pending download to a remote job that already exists for
// its URL, recovering from a crash between submission and bookkeeping.
func (a *AdmissionController) link(download *models.AlbumDownload, job services.RemoteJob) {
	now := time.Now().UTC()
	download.RemoteJobID = job.ID
	download.Status = models.DownloadQueued
	if status, ok := models.ParseRemoteJobStatus(job.Status); ok {
		if local, ok := status.DownloadStatus(); ok {
			download.Status = local
		}
	}
	download.Progress = job.Progress
	if download.QueuedAt == nil {
		download.QueuedAt = &now
	}

	if err := a.downloads.Update(download); err != nil {
		a.logger.Warn("failed to link download to existing remote job", "download", download.ID, "remote_job", job.ID, "error", err)
		return
	}
	a.logger.Info("download linked to existing remote job", "album", download.Title, "remote_job", job.ID)
}

func (a *AdmissionController) fail(download *models.AlbumDownload, cause error) {
	now := time.Now().UTC()
	download.Status = models.DownloadFailed
	download.ErrorMessage = cause.Error()
	download.CompletedAt = &now
	if err := a.downloads.Update(download); err != nil {
		a.logger.Warn("failed to mark download failed", "download", download.ID, "error", err)
	}
}
