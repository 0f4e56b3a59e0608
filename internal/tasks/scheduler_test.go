package tasks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

var testSyncDefaults = shared.SyncConfig{
	DailySyncTime:  "06:00",
	WeeklySyncDay:  "Monday",
	WeeklySyncTime: "07:30",
}

func TestSchedulerDue(t *testing.T) {
	s := NewScheduler(nil, nil, testSyncDefaults, shared.NewLogger(io.Discard))

	// 2026-09-07 is a Monday.
	monday := time.Date(2026, 9, 7, 7, 30, 0, 0, time.UTC)
	yesterday := monday.AddDate(0, 0, -1)

	tc := []struct {
		name     string
		playlist models.Playlist
		now      time.Time
		want     bool
	}{
		{
			name:     "daily at default time",
			playlist: models.Playlist{IsDaily: true},
			now:      time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC),
			want:     true,
		},
		{
			name:     "daily at wrong time",
			playlist: models.Playlist{IsDaily: true},
			now:      time.Date(2026, 9, 7, 6, 1, 0, 0, time.UTC),
			want:     false,
		},
		{
			name:     "daily with explicit time",
			playlist: models.Playlist{IsDaily: true, SyncTime: "22:15"},
			now:      time.Date(2026, 9, 7, 22, 15, 0, 0, time.UTC),
			want:     true,
		},
		{
			name:     "weekly on default day and time",
			playlist: models.Playlist{IsWeekly: true},
			now:      monday,
			want:     true,
		},
		{
			name:     "weekly on wrong day",
			playlist: models.Playlist{IsWeekly: true},
			now:      monday.AddDate(0, 0, 1),
			want:     false,
		},
		{
			name:     "weekly with explicit day",
			playlist: models.Playlist{IsWeekly: true, SyncDay: "Tuesday", SyncTime: "07:30"},
			now:      monday.AddDate(0, 0, 1),
			want:     true,
		},
		{
			name:     "already synced today",
			playlist: models.Playlist{IsDaily: true, LastSyncedAt: timeRef(time.Date(2026, 9, 7, 6, 0, 30, 0, time.UTC))},
			now:      time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC),
			want:     false,
		},
		{
			name:     "synced yesterday is due again",
			playlist: models.Playlist{IsDaily: true, LastSyncedAt: &yesterday},
			now:      time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC),
			want:     true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.due(&tt.playlist, tt.now); got != tt.want {
				t.Errorf("due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedulerRunDue(t *testing.T) {
	h := newHarness(t)
	playlist := h.trackedPlaylist(t, "pl-1", "Daily Jams")
	playlist.SyncTime = "06:00"
	if err := h.playlists.Update(playlist); err != nil {
		t.Fatalf("failed to set schedule: %v", err)
	}

	// The playlist already has an active job; the scheduler must not
	// stack another.
	if _, err := h.engine.CreateJob(playlist.ID); err != nil {
		t.Fatalf("failed to create active job: %v", err)
	}

	s := NewScheduler(h.playlists, h.engine, testSyncDefaults, shared.NewLogger(io.Discard))
	s.RunDue(context.Background(), time.Date(2026, 9, 7, 6, 0, 0, 0, time.UTC))

	jobs, err := h.jobs.List(playlist.ID, 10)
	if err != nil {
		t.Fatalf("failed to list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("expected the existing job only, got %d", len(jobs))
	}
}

func TestDiscovery(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.trackedPlaylist(t, "pl-known", "Weekly Jams for demo, week of 2026-08-24 Mon")

	h.source.GetPlaylistsCreatedForFunc = func(_ context.Context, username string) ([]services.PlaylistSummary, error) {
		if username != "demo" {
			t.Errorf("expected username demo, got %s", username)
		}
		return []services.PlaylistSummary{
			{MBID: "pl-known", Name: "Weekly Jams for demo, week of 2026-08-24 Mon", Creator: "troi-bot"},
			{MBID: "pl-daily", Name: "Daily Jams for demo, 2026-09-01 Tue", Creator: "troi-bot"},
			{MBID: "pl-explore", Name: "Weekly Exploration for demo", Creator: "troi-bot"},
			{MBID: "pl-mixtape", Name: "My mixtape", Creator: "demo"},
		}, nil
	}

	d := NewDiscovery(h.source, h.playlists, "demo", testSyncDefaults, shared.NewLogger(io.Discard))

	added, err := d.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 new playlists (tracked and mixtape skipped), got %d", added)
	}

	daily, err := h.playlists.GetByMBID("pl-daily")
	if err != nil {
		t.Fatalf("failed to load daily playlist: %v", err)
	}
	if daily == nil || !daily.IsDaily || daily.IsWeekly {
		t.Fatalf("expected daily classification, got %+v", daily)
	}
	if daily.SyncTime != "06:00" {
		t.Errorf("expected default daily sync time, got %s", daily.SyncTime)
	}
	if !daily.Enabled {
		t.Error("expected discovered playlists enabled by default")
	}

	explore, err := h.playlists.GetByMBID("pl-explore")
	if err != nil {
		t.Fatalf("failed to load exploration playlist: %v", err)
	}
	if explore == nil || !explore.IsWeekly {
		t.Fatalf("expected weekly classification, got %+v", explore)
	}
	if explore.SyncDay != "Monday" || explore.SyncTime != "07:30" {
		t.Errorf("expected default weekly schedule, got %s %s", explore.SyncDay, explore.SyncTime)
	}

	untracked, err := h.playlists.GetByMBID("pl-mixtape")
	if err != nil {
		t.Fatalf("failed to check mixtape: %v", err)
	}
	if untracked != nil {
		t.Error("expected unrecognized playlist to stay untracked")
	}

	// A second refresh finds nothing new.
	added, err = d.Refresh(ctx)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if added != 0 {
		t.Errorf("expected idempotent refresh, got %d additions", added)
	}
}

func timeRef(t time.Time) *time.Time { return &t }
