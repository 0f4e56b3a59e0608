package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/formatter"
)

// PlaylistsList prints tracked playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	playlists, err := d.playlists.List(!cmd.Bool("all"))
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	if len(playlists) == 0 {
		r.writePlain("No tracked playlists. Run 'jamsync playlists refresh' to discover curated ones.\n")
		return nil
	}

	return r.writePlain("%s", formatter.PlaylistTable(playlists))
}

// PlaylistsDiscover prints curated playlists that are not tracked yet.
func (r *Runner) PlaylistsDiscover(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	candidates, err := d.discovery.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		r.writePlain("No new curated playlists found.\n")
		return nil
	}

	r.writePlain("Curated playlists available to track:\n\n")
	for _, p := range candidates {
		r.writePlain("  %s (%s) syncs %s\n", p.Name, p.MBID, formatter.Schedule(p))
	}
	r.writePlain("\nRun 'jamsync playlists refresh' to start tracking them.\n")
	return nil
}

// PlaylistsRefresh discovers curated playlists and starts tracking them.
func (r *Runner) PlaylistsRefresh(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	added, err := d.discovery.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh playlists: %w", err)
	}

	if added == 0 {
		r.writePlain("Already tracking all curated playlists.\n")
		return nil
	}

	r.writePlain("✓ Now tracking %d new playlist(s)\n", added)
	return nil
}
