package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

// SyncEngine drives playlist sync jobs through their lifecycle.
//
// A job moves pending → fetching → matching, then either suspends in
// downloading while the remote queue works through missing albums, or goes
// straight to creating_playlist when nothing is outstanding. Suspended jobs
// are resumed by the Reconciler (or by hand) through the same Resume path.
type SyncEngine struct {
	playlists *repositories.PlaylistRepository
	jobs      *repositories.SyncJobRepository
	matches   *repositories.TrackMatchRepository
	downloads *repositories.DownloadRepository
	source    services.Source
	library   services.Library
	matcher   *Matcher
	resolver  *Resolver
	logger    *log.Logger
}

// NewSyncEngine creates a SyncEngine from its repositories and services.
func NewSyncEngine(
	playlists *repositories.PlaylistRepository,
	jobs *repositories.SyncJobRepository,
	matches *repositories.TrackMatchRepository,
	downloads *repositories.DownloadRepository,
	source services.Source,
	library services.Library,
	matcher *Matcher,
	resolver *Resolver,
	logger *log.Logger,
) *SyncEngine {
	return &SyncEngine{
		playlists: playlists,
		jobs:      jobs,
		matches:   matches,
		downloads: downloads,
		source:    source,
		library:   library,
		matcher:   matcher,
		resolver:  resolver,
		logger:    logger,
	}
}

// CreateJob creates a pending sync job for a playlist. At most one
// non-terminal job may exist per playlist; a second returns
// [shared.ErrJobActive].
func (e *SyncEngine) CreateJob(playlistID string) (*models.SyncJob, error) {
	playlist, err := e.playlists.Get(playlistID)
	if err != nil {
		return nil, err
	}

	job := &models.SyncJob{PlaylistID: playlist.ID}
	if err := e.jobs.Create(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Run executes a pending job up to its suspension point. When every source
// track matches (or no missing track has an outstanding download), the job
// runs to completion synchronously; otherwise it is left suspended in the
// downloading state for the Reconciler to resume.
//
// Run is idempotent over the matching phase: positions that already have a
// match row are not re-matched, so a crashed job can be re-run safely.
func (e *SyncEngine) Run(ctx context.Context, jobID string, progress chan<- ProgressUpdate) error {
	job, err := e.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", shared.ErrJobTerminal, job.ID, job.Status)
	}

	playlist, err := e.playlists.Get(job.PlaylistID)
	if err != nil {
		return err
	}

	if err := e.transition(job, models.SyncFetching); err != nil {
		return err
	}
	sendProgress(progress, fetchPlaylistUpdate(playlist.Name))

	source, err := e.source.GetPlaylist(ctx, playlist.MBID)
	if err != nil {
		return e.fail(job, fmt.Errorf("failed to fetch playlist %s: %w", playlist.MBID, err))
	}
	sendProgress(progress, fetchedPlaylistUpdate(source.Name, len(source.Tracks)))

	job.TracksTotal = len(source.Tracks)
	if err := e.transition(job, models.SyncMatching); err != nil {
		return err
	}

	if err := e.matchAll(ctx, job, source.Tracks, progress); err != nil {
		return e.fail(job, err)
	}

	outstanding, err := e.outstandingDownloads(job.ID)
	if err != nil {
		return e.fail(job, err)
	}

	if len(outstanding) > 0 {
		if err := e.transition(job, models.SyncDownloading); err != nil {
			return err
		}
		if err := e.library.RefreshLibrary(ctx); err != nil {
			e.logger.Warn("library refresh failed", "error", err)
		}
		sendProgress(progress, awaitDownloadsUpdate(job.TracksMissing))
		e.logger.Info("sync suspended on downloads", "job", job.ID, "outstanding", len(outstanding))
		return nil
	}

	return e.finalize(ctx, job, playlist, progress)
}

// Resume continues a job suspended in the downloading state: tracks whose
// downloads completed are re-matched against the refreshed library, then
// the playlist is materialized and the job completed. Downloads that failed
// leave their tracks missing; the job still completes.
func (e *SyncEngine) Resume(ctx context.Context, jobID string, progress chan<- ProgressUpdate) error {
	job, err := e.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status != models.SyncDownloading {
		return fmt.Errorf("%w: job %s is %s", shared.ErrNotSuspended, job.ID, job.Status)
	}

	playlist, err := e.playlists.Get(job.PlaylistID)
	if err != nil {
		return err
	}

	if err := e.library.RefreshLibrary(ctx); err != nil {
		e.logger.Warn("library refresh failed", "error", err)
	}

	return e.finalize(ctx, job, playlist, progress)
}

// ForceResume resumes a suspended job without waiting for its downloads to
// finish. Tracks whose downloads are still in flight stay missing for this
// sync; a later sync picks them up once the downloads land.
func (e *SyncEngine) ForceResume(ctx context.Context, jobID string) error {
	return e.Resume(ctx, jobID, nil)
}

// Cancel marks a non-terminal job failed. Album downloads are left alone;
// they are shared state and may be referenced by future jobs.
func (e *SyncEngine) Cancel(jobID string) error {
	job, err := e.jobs.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", shared.ErrJobTerminal, job.ID, job.Status)
	}

	_ = e.fail(job, fmt.Errorf("cancelled by user"))
	return nil
}

// matchAll matches every source track, creating one match row per position.
// Misses are handed to the resolver; resolved albums are deduplicated into
// AlbumDownload rows by album ID. Per-track failures never abort the batch.
func (e *SyncEngine) matchAll(ctx context.Context, job *models.SyncJob, tracks []services.Track, progress chan<- ProgressUpdate) error {
	matched, missing := 0, 0

	for position, track := range tracks {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		existing, err := e.matches.GetByJobAndPosition(job.ID, position)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Matched {
				matched++
			} else {
				missing++
			}
			continue
		}

		match := &models.TrackMatch{
			SyncJobID:     job.ID,
			Position:      position,
			RecordingMBID: track.RecordingMBID,
			Title:         track.Title,
			Artist:        track.Artist,
			Album:         track.Album,
			ReleaseMBID:   track.ReleaseMBID,
		}
		sendProgress(progress, matchTrackUpdate(position+1, len(tracks), match))

		result, err := e.matcher.Match(ctx, track)
		if err != nil {
			e.logger.Warn("track match errored", "title", track.Title, "artist", track.Artist, "error", err)
		}

		if result.Found {
			match.Matched = true
			match.PlexRatingKey = result.RatingKey
			matched++
		} else {
			missing++
			sendProgress(progress, resolveAlbumUpdate(position+1, len(tracks), track.Artist, track.Title))
			if downloadID := e.queueDownload(ctx, track); downloadID != "" {
				match.DownloadID = downloadID
			}
		}

		if err := e.matches.Create(match); err != nil {
			return fmt.Errorf("failed to record match for position %d: %w", position, err)
		}
	}

	job.TracksMatched = matched
	job.TracksMissing = missing
	return e.jobs.Update(job)
}

// queueDownload resolves a missing track's album and ensures an
// AlbumDownload row exists for it. Multiple missing tracks from the same
// album share one row. Returns the download ID, or "" when resolution
// fails.
func (e *SyncEngine) queueDownload(ctx context.Context, track services.Track) string {
	album, err := e.resolver.Resolve(ctx, track)
	if err != nil {
		e.logger.Warn("album resolution errored", "title", track.Title, "artist", track.Artist, "error", err)
		return ""
	}
	if album == nil {
		e.logger.Info("no album found for missing track", "title", track.Title, "artist", track.Artist)
		return ""
	}

	existing, err := e.downloads.GetByAlbumID(album.AlbumID)
	if err != nil {
		e.logger.Warn("download lookup failed", "album_id", album.AlbumID, "error", err)
		return ""
	}
	if existing != nil {
		return existing.ID
	}

	download := &models.AlbumDownload{
		AlbumID:  album.AlbumID,
		AlbumURL: album.URL,
		Title:    album.Title,
		Artist:   album.Artist,
	}
	if err := e.downloads.Create(download); err != nil {
		e.logger.Warn("failed to create download", "album", album.Title, "error", err)
		return ""
	}

	e.logger.Info("album queued for download", "album", album.Title, "artist", album.Artist)
	return download.ID
}

// finalize re-matches tracks whose downloads completed, materializes the
// playlist from all matched tracks in source order, and completes the job.
func (e *SyncEngine) finalize(ctx context.Context, job *models.SyncJob, playlist *models.Playlist, progress chan<- ProgressUpdate) error {
	matches, err := e.matches.ListByJob(job.ID)
	if err != nil {
		return e.fail(job, err)
	}

	for _, match := range matches {
		if match.Matched || match.DownloadID == "" {
			continue
		}

		download, err := e.downloads.Get(match.DownloadID)
		if err != nil || download.Status != models.DownloadCompleted {
			continue
		}

		result, err := e.matcher.MatchByAlbum(ctx, download.Title, match.Title, download.Artist)
		if err != nil {
			return e.fail(job, err)
		}
		if !result.Found {
			e.logger.Info("track still missing after download", "title", match.Title, "album", download.Title)
			continue
		}

		match.Matched = true
		match.PlexRatingKey = result.RatingKey
		if err := e.matches.Update(match); err != nil {
			return e.fail(job, err)
		}

		track := services.Track{
			RecordingMBID: match.RecordingMBID,
			Title:         match.Title,
			Artist:        match.Artist,
			Album:         match.Album,
		}
		if err := e.matcher.Remember(track, result.RatingKey); err != nil {
			e.logger.Warn("failed to cache post-download match", "title", match.Title, "error", err)
		}

		job.TracksMatched++
		job.TracksMissing--
	}

	if err := e.transition(job, models.SyncCreatingPlaylist); err != nil {
		return err
	}

	var ratingKeys []string
	for _, match := range matches {
		if match.Matched && match.PlexRatingKey != "" {
			ratingKeys = append(ratingKeys, match.PlexRatingKey)
		}
	}

	// A playlist with zero matched tracks is skipped, not an error; the
	// job still completes so the next scheduled sync can retry.
	if len(ratingKeys) > 0 {
		sendProgress(progress, buildPlaylistUpdate(playlist.Name, len(ratingKeys)))
		key, err := e.library.CreatePlaylist(ctx, playlist.Name, ratingKeys)
		if err != nil {
			return e.fail(job, fmt.Errorf("failed to create playlist: %w", err))
		}
		job.PlexPlaylistKey = key
	}

	now := time.Now().UTC()
	job.CompletedAt = &now
	if err := e.transition(job, models.SyncCompleted); err != nil {
		return err
	}

	playlist.LastSyncedAt = &now
	if err := e.playlists.Update(playlist); err != nil {
		e.logger.Warn("failed to stamp playlist sync time", "playlist", playlist.ID, "error", err)
	}

	sendProgress(progress, finishedUpdate(job))
	e.logger.Info("sync completed", "job", job.ID, "playlist", playlist.Name,
		"matched", job.TracksMatched, "missing", job.TracksMissing)
	return nil
}

// outstandingDownloads returns the job's referenced downloads that are not
// yet terminal. An empty result means nothing blocks playlist creation.
func (e *SyncEngine) outstandingDownloads(jobID string) ([]*models.AlbumDownload, error) {
	matches, err := e.matches.ListByJob(jobID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var outstanding []*models.AlbumDownload
	for _, match := range matches {
		if match.Matched || match.DownloadID == "" || seen[match.DownloadID] {
			continue
		}
		seen[match.DownloadID] = true

		download, err := e.downloads.Get(match.DownloadID)
		if err != nil {
			return nil, err
		}
		if !download.Status.Terminal() {
			outstanding = append(outstanding, download)
		}
	}
	return outstanding, nil
}

// transition moves a job to the next status, stamping StartedAt on the
// first move out of pending.
func (e *SyncEngine) transition(job *models.SyncJob, status models.SyncStatus) error {
	job.Status = status
	if job.StartedAt == nil && status != models.SyncPending {
		now := time.Now().UTC()
		job.StartedAt = &now
	}
	if err := e.jobs.Update(job); err != nil {
		return fmt.Errorf("failed to transition job %s to %s: %w", job.ID, status, err)
	}
	e.logger.Debug("job transition", "job", job.ID, "status", status)
	return nil
}

// fail marks a job failed with the cause and returns that cause.
func (e *SyncEngine) fail(job *models.SyncJob, cause error) error {
	now := time.Now().UTC()
	job.Status = models.SyncFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &now
	if err := e.jobs.Update(job); err != nil {
		e.logger.Error("failed to mark job failed", "job", job.ID, "error", err)
	}
	e.logger.Error("sync failed", "job", job.ID, "error", cause)
	return cause
}
