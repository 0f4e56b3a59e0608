package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

// Discovery finds ListenBrainz-generated playlists for the configured user
// and registers the recognized ones (Daily Jams, Weekly Jams, Weekly
// Exploration) for syncing. Already-tracked playlists and unrecognized
// titles are left alone.
type Discovery struct {
	source    services.Source
	playlists *repositories.PlaylistRepository
	username  string
	defaults  shared.SyncConfig
	logger    *log.Logger
}

// NewDiscovery creates a Discovery for the given ListenBrainz user.
func NewDiscovery(source services.Source, playlists *repositories.PlaylistRepository, username string, defaults shared.SyncConfig, logger *log.Logger) *Discovery {
	return &Discovery{
		source:    source,
		playlists: playlists,
		username:  username,
		defaults:  defaults,
		logger:    logger,
	}
}

// Candidates lists recognized created-for playlists that are not yet
// tracked, without persisting anything.
func (d *Discovery) Candidates(ctx context.Context) ([]*models.Playlist, error) {
	summaries, err := d.source.GetPlaylistsCreatedFor(ctx, d.username)
	if err != nil {
		return nil, fmt.Errorf("failed to list created-for playlists: %w", err)
	}

	var candidates []*models.Playlist
	for _, summary := range summaries {
		candidate := d.classify(summary)
		if candidate == nil {
			continue
		}

		existing, err := d.playlists.GetByMBID(summary.MBID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Refresh persists all current candidates with their default schedules and
// returns how many were added.
func (d *Discovery) Refresh(ctx context.Context) (int, error) {
	candidates, err := d.Candidates(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, playlist := range candidates {
		if err := d.playlists.Create(playlist); err != nil {
			d.logger.Warn("failed to track discovered playlist", "playlist", playlist.Name, "error", err)
			continue
		}
		d.logger.Info("playlist discovered", "playlist", playlist.Name, "daily", playlist.IsDaily, "weekly", playlist.IsWeekly)
		added++
	}
	return added, nil
}

// classify builds a tracked playlist from a recognized summary, or nil for
// titles that are not ListenBrainz-generated jams.
func (d *Discovery) classify(summary services.PlaylistSummary) *models.Playlist {
	daily := services.IsDailyJams(summary.Name)
	weekly := services.IsWeeklyJams(summary.Name) || services.IsWeeklyExploration(summary.Name)
	if !daily && !weekly {
		return nil
	}

	playlist := &models.Playlist{
		MBID:       summary.MBID,
		Name:       summary.Name,
		Creator:    summary.Creator,
		CreatedFor: d.username,
		IsDaily:    daily,
		IsWeekly:   weekly,
		Enabled:    true,
	}

	if daily {
		playlist.SyncTime = d.defaults.DailySyncTime
	} else {
		playlist.SyncDay = d.defaults.WeeklySyncDay
		playlist.SyncTime = d.defaults.WeeklySyncTime
	}
	return playlist
}
