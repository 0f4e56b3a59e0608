package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/formatter"
	"github.com/jamsync/jamsync/internal/shared"
)

// JobsList prints recent sync jobs.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	jobs, err := d.jobs.List("", int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobs, true)
	}

	if len(jobs) == 0 {
		r.writePlain("No sync jobs yet.\n")
		return nil
	}

	return r.writePlain("%s", formatter.JobTable(jobs, d.playlistNames()))
}

// JobsShow prints one sync job with its per-track results, optionally
// exporting them to CSV.
func (r *Runner) JobsShow(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job ID", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	job, err := d.jobs.Get(id)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}

	matches, err := d.matches.ListByJob(job.ID)
	if err != nil {
		return fmt.Errorf("failed to list track results: %w", err)
	}

	if csvPath := cmd.String("csv"); csvPath != "" {
		data, err := formatter.MatchesCSV(matches)
		if err != nil {
			return err
		}
		if err := os.WriteFile(csvPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}
		r.writePlain("✓ Track results written to %s\n", csvPath)
		return nil
	}

	name := d.playlistNames()[job.PlaylistID]
	if name == "" {
		name = job.PlaylistID
	}

	r.writePlainHeader(fmt.Sprintf("Job %s", job.ID))
	r.writePlain("Playlist: %s\n", name)
	r.writePlain("Status: %s\n", job.Status)
	if job.ErrorMessage != "" {
		r.writePlain("Error: %s\n", job.ErrorMessage)
	}
	r.writePlain("Tracks: %d total, %d matched, %d missing\n", job.TracksTotal, job.TracksMatched, job.TracksMissing)
	if job.PlexPlaylistKey != "" {
		r.writePlain("Plex playlist: %s\n", job.PlexPlaylistKey)
	}

	if len(matches) > 0 {
		r.writePlain("\n")
		for _, m := range matches {
			marker := "✗"
			if m.Matched {
				marker = "✓"
			}
			r.writePlain("  %s %2d. %s - %s", marker, m.Position+1, m.Artist, m.Title)
			if !m.Matched && m.DownloadID != "" {
				r.writePlain(" (downloading)")
			}
			r.writePlain("\n")
		}
	}

	return nil
}

// JobsCancel cancels an in-flight sync job.
func (r *Runner) JobsCancel(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job ID", shared.ErrMissingArgument)
	}

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.engine.Cancel(id); err != nil {
		return err
	}

	r.writePlain("✓ Job %s cancelled\n", id)
	return nil
}
