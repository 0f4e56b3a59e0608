package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
	"github.com/jamsync/jamsync/internal/tasks"
)

// SyncRun creates and runs a sync job for one playlist, streaming progress
// to the terminal.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	ref := cmd.StringArg("playlist")
	if ref == "" {
		return fmt.Errorf("%w: playlist ID or MBID", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	playlist, err := r.resolvePlaylist(d, ref)
	if err != nil {
		return err
	}

	r.logger.Info("starting sync", "playlist", playlist.Name)
	r.writePlain("Syncing %s to Plex...\n\n", playlist.Name)

	job, err := d.engine.CreateJob(playlist.ID)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.MatchTracks:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.AwaitDownloads:
				r.writePlain("\n⏳ %s\n", update.Message)
			case tasks.BuildPlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	runErr := d.engine.Run(ctx, job.ID, progressCh)
	close(progressCh)
	<-done

	if runErr != nil {
		return runErr
	}

	job, err = d.jobs.Get(job.ID)
	if err != nil {
		return fmt.Errorf("failed to reload job: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync " + string(job.Status))
	r.writePlain("Playlist: %s (%d tracks)\n", playlist.Name, job.TracksTotal)
	r.writePlain("Matched: %d, missing: %d\n", job.TracksMatched, job.TracksMissing)

	switch job.Status {
	case models.SyncDownloading:
		r.writePlain("\nMissing tracks are downloading. The job resumes automatically\n")
		r.writePlain("once they finish; check progress with 'jamsync jobs show %s'.\n", job.ID)
	case models.SyncCompleted:
		if job.PlexPlaylistKey != "" {
			r.writePlain("Plex playlist: %s\n", job.PlexPlaylistKey)
		}
	}

	return nil
}

// resolvePlaylist looks a playlist up by internal ID first, then by MBID.
func (r *Runner) resolvePlaylist(d *deps, ref string) (*models.Playlist, error) {
	if playlist, err := d.playlists.Get(ref); err == nil {
		return playlist, nil
	}

	playlist, err := d.playlists.GetByMBID(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist: %w", err)
	}
	if playlist == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, ref)
	}
	return playlist, nil
}
