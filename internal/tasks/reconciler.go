package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
)

// Reconciler keeps local download state in step with the remote queue.
//
// Each tick mirrors remote job status onto active AlbumDownload rows, fails
// downloads whose remote job vanished or timed out, backfills freed queue
// capacity through the AdmissionController, and resumes suspended sync jobs
// once every download they reference is terminal. Ticks run sequentially; a
// slow tick delays the next rather than overlapping it.
type Reconciler struct {
	downloads  *repositories.DownloadRepository
	jobs       *repositories.SyncJobRepository
	matches    *repositories.TrackMatchRepository
	downloader services.Downloader
	admission  *AdmissionController
	engine     *SyncEngine
	interval   time.Duration
	timeout    time.Duration
	logger     *log.Logger
}

// NewReconciler creates a Reconciler. interval is the tick period; timeout
// bounds how long a download may stay in the downloading state before it is
// declared dead.
func NewReconciler(
	downloads *repositories.DownloadRepository,
	jobs *repositories.SyncJobRepository,
	matches *repositories.TrackMatchRepository,
	downloader services.Downloader,
	admission *AdmissionController,
	engine *SyncEngine,
	interval time.Duration,
	timeout time.Duration,
	logger *log.Logger,
) *Reconciler {
	return &Reconciler{
		downloads:  downloads,
		jobs:       jobs,
		matches:    matches,
		downloader: downloader,
		admission:  admission,
		engine:     engine,
		interval:   interval,
		timeout:    timeout,
		logger:     logger,
	}
}

// Start runs the reconcile loop until the context is cancelled. Tick errors
// are logged, never fatal; the loop outlives any one bad poll.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval, "timeout", r.timeout)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Reconcile(ctx); err != nil {
				r.logger.Warn("reconcile tick failed", "error", err)
			}
		}
	}
}

// Reconcile performs a single reconciliation pass.
func (r *Reconciler) Reconcile(ctx context.Context) error {
	changed, err := r.syncDownloads(ctx)
	if err != nil {
		return err
	}

	if _, err := r.admission.SubmitPending(ctx); err != nil {
		r.logger.Warn("download submission pass failed", "error", err)
	}

	if changed {
		r.resumeReadyJobs(ctx)
	}
	return nil
}

// syncDownloads mirrors remote queue state onto active downloads and
// reports whether any download reached a new status.
func (r *Reconciler) syncDownloads(ctx context.Context) (bool, error) {
	active, err := r.downloads.ListActive()
	if err != nil {
		return false, err
	}
	if len(active) == 0 {
		return false, nil
	}

	remote, err := r.downloader.ListJobs(ctx)
	if err != nil {
		return false, err
	}
	byID := make(map[string]services.RemoteJob, len(remote))
	for _, job := range remote {
		byID[job.ID] = job
	}

	changed := false
	for _, download := range active {
		if download.RemoteJobID == "" {
			continue
		}

		job, found := byID[download.RemoteJobID]
		switch {
		case !found:
			r.failDownload(download, "remote job not found, may have been cleaned up")
			changed = true

		case r.timedOut(download):
			r.failDownload(download, "download timed out")
			changed = true

		default:
			if r.applyRemote(download, job) {
				changed = true
			}
		}
	}
	return changed, nil
}

// timedOut reports whether a downloading row has exceeded the timeout. The
// clock starts at submission, not at the remote's own transitions.
func (r *Reconciler) timedOut(download *models.AlbumDownload) bool {
	return download.Status == models.DownloadDownloading &&
		download.QueuedAt != nil &&
		time.Since(*download.QueuedAt) > r.timeout
}

// applyRemote copies remote status and progress onto the download and
// reports whether the status changed.
func (r *Reconciler) applyRemote(download *models.AlbumDownload, job services.RemoteJob) bool {
	remote, known := models.ParseRemoteJobStatus(job.Status)
	if !known {
		r.logger.Warn("unknown remote job status", "remote_job", job.ID, "status", job.Status)
		return false
	}
	local, ok := remote.DownloadStatus()
	if !ok {
		return false
	}

	statusChanged := download.Status != local
	progressChanged := download.Progress != job.Progress
	if !statusChanged && !progressChanged {
		return false
	}

	download.Status = local
	download.Progress = job.Progress
	if local == models.DownloadFailed {
		download.ErrorMessage = job.ErrorMessage
		if download.ErrorMessage == "" {
			download.ErrorMessage = "download failed"
		}
	}
	if local.Terminal() && download.CompletedAt == nil {
		now := time.Now().UTC()
		download.CompletedAt = &now
	}

	if err := r.downloads.Update(download); err != nil {
		r.logger.Warn("failed to update download", "download", download.ID, "error", err)
		return false
	}
	if statusChanged {
		r.logger.Info("download status changed", "album", download.Title, "status", local, "progress", download.Progress)
	}
	return statusChanged
}

func (r *Reconciler) failDownload(download *models.AlbumDownload, reason string) {
	now := time.Now().UTC()
	download.Status = models.DownloadFailed
	download.ErrorMessage = reason
	download.CompletedAt = &now
	if err := r.downloads.Update(download); err != nil {
		r.logger.Warn("failed to mark download failed", "download", download.ID, "error", err)
		return
	}
	r.logger.Warn("download failed", "album", download.Title, "reason", reason)
}

// resumeReadyJobs resumes suspended sync jobs whose referenced downloads
// have all reached a terminal state.
func (r *Reconciler) resumeReadyJobs(ctx context.Context) {
	suspended, err := r.jobs.ListByStatus(models.SyncDownloading)
	if err != nil {
		r.logger.Warn("failed to list suspended jobs", "error", err)
		return
	}

	for _, job := range suspended {
		ready, err := r.jobReady(job.ID)
		if err != nil {
			r.logger.Warn("failed to check job downloads", "job", job.ID, "error", err)
			continue
		}
		if !ready {
			continue
		}

		r.logger.Info("resuming suspended job", "job", job.ID)
		if err := r.engine.Resume(ctx, job.ID, nil); err != nil {
			r.logger.Warn("job resume failed", "job", job.ID, "error", err)
		}
	}
}

func (r *Reconciler) jobReady(jobID string) (bool, error) {
	matches, err := r.matches.ListByJob(jobID)
	if err != nil {
		return false, err
	}

	for _, match := range matches {
		if match.Matched || match.DownloadID == "" {
			continue
		}
		download, err := r.downloads.Get(match.DownloadID)
		if err != nil {
			return false, err
		}
		if !download.Status.Terminal() {
			return false, nil
		}
	}
	return true, nil
}
