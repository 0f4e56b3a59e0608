package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/shared"
)

// Scheduler starts syncs for tracked playlists on their configured
// schedule: daily playlists at a time of day, weekly playlists at a day and
// time. Playlists without an explicit schedule fall back to the configured
// defaults.
type Scheduler struct {
	playlists *repositories.PlaylistRepository
	engine    *SyncEngine
	defaults  shared.SyncConfig
	logger    *log.Logger
}

// NewScheduler creates a Scheduler with the given default schedule config.
func NewScheduler(playlists *repositories.PlaylistRepository, engine *SyncEngine, defaults shared.SyncConfig, logger *log.Logger) *Scheduler {
	return &Scheduler{playlists: playlists, engine: engine, defaults: defaults, logger: logger}
}

// Start runs the schedule loop until the context is cancelled, checking for
// due playlists once a minute.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.logger.Info("scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.RunDue(ctx, now)
		}
	}
}

// RunDue starts a sync for every enabled playlist whose schedule matches
// the given time. Playlists with an active job are skipped.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) {
	playlists, err := s.playlists.List(true)
	if err != nil {
		s.logger.Warn("failed to list playlists for scheduling", "error", err)
		return
	}

	for _, playlist := range playlists {
		if !s.due(playlist, now) {
			continue
		}

		job, err := s.engine.CreateJob(playlist.ID)
		if errors.Is(err, shared.ErrJobActive) {
			s.logger.Debug("sync already running, skipping scheduled run", "playlist", playlist.Name)
			continue
		}
		if err != nil {
			s.logger.Warn("failed to create scheduled job", "playlist", playlist.Name, "error", err)
			continue
		}

		s.logger.Info("scheduled sync starting", "playlist", playlist.Name, "job", job.ID)
		go func(jobID, name string) {
			if err := s.engine.Run(ctx, jobID, nil); err != nil {
				s.logger.Warn("scheduled sync failed", "playlist", name, "error", err)
			}
		}(job.ID, playlist.Name)
	}
}

// due reports whether a playlist's schedule matches the given minute and it
// has not already synced today.
func (s *Scheduler) due(playlist *models.Playlist, now time.Time) bool {
	syncTime := playlist.SyncTime
	if syncTime == "" {
		if playlist.IsWeekly {
			syncTime = s.defaults.WeeklySyncTime
		} else {
			syncTime = s.defaults.DailySyncTime
		}
	}
	if syncTime == "" || now.Format("15:04") != syncTime {
		return false
	}

	if playlist.IsWeekly {
		day := playlist.SyncDay
		if day == "" {
			day = s.defaults.WeeklySyncDay
		}
		if !strings.EqualFold(day, now.Weekday().String()) {
			return false
		}
	}

	// Guards against double fires when the process restarts inside the
	// scheduled minute.
	if playlist.LastSyncedAt != nil {
		last := playlist.LastSyncedAt.In(now.Location())
		if last.Year() == now.Year() && last.YearDay() == now.YearDay() {
			return false
		}
	}

	return true
}
