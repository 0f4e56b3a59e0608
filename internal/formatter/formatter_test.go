package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/jamsync/jamsync/internal/models"
)

func TestTables(t *testing.T) {
	t.Run("PlaylistTable", func(t *testing.T) {
		synced := time.Date(2026, 8, 31, 6, 2, 0, 0, time.Local)
		playlists := []*models.Playlist{
			{ID: "pl-daily-1", Name: "Daily Jams", IsDaily: true, SyncTime: "06:00", Enabled: true, LastSyncedAt: &synced},
			{ID: "pl-weekly-1", Name: "Weekly Exploration", IsWeekly: true, SyncDay: "Monday", SyncTime: "07:30", Enabled: true},
			{ID: "pl-manual-1", Name: "Mixtape"},
		}

		output := PlaylistTable(playlists)

		if !strings.Contains(output, "NAME") || !strings.Contains(output, "SCHEDULE") {
			t.Errorf("table missing headers, got: %s", output)
		}
		if !strings.Contains(output, "daily @ 06:00") {
			t.Errorf("expected daily schedule, got: %s", output)
		}
		if !strings.Contains(output, "Monday @ 07:30") {
			t.Errorf("expected weekly schedule, got: %s", output)
		}
		if !strings.Contains(output, "manual") {
			t.Errorf("expected manual schedule, got: %s", output)
		}
		if !strings.Contains(output, "2026-08-31 06:02") {
			t.Errorf("expected last sync timestamp, got: %s", output)
		}
	})

	t.Run("JobTable resolves playlist names", func(t *testing.T) {
		jobs := []*models.SyncJob{
			{ID: "job-1", PlaylistID: "pl-1", Status: models.SyncCompleted, TracksTotal: 12, TracksMatched: 11, TracksMissing: 1},
			{ID: "job-2", PlaylistID: "pl-unknown", Status: models.SyncDownloading},
		}

		output := JobTable(jobs, map[string]string{"pl-1": "Daily Jams"})

		if !strings.Contains(output, "Daily Jams") {
			t.Errorf("expected playlist name, got: %s", output)
		}
		if !strings.Contains(output, "pl-unknown") {
			t.Errorf("expected fallback to playlist ID, got: %s", output)
		}
		if !strings.Contains(output, "completed") || !strings.Contains(output, "downloading") {
			t.Errorf("expected job statuses, got: %s", output)
		}
	})

	t.Run("DownloadTable", func(t *testing.T) {
		downloads := []*models.AlbumDownload{
			{ID: "dl-1", Title: "In Rainbows", Artist: "Radiohead", Status: models.DownloadDownloading, Progress: 0.45},
		}

		output := DownloadTable(downloads)

		if !strings.Contains(output, "In Rainbows") || !strings.Contains(output, "Radiohead") {
			t.Errorf("expected album and artist, got: %s", output)
		}
		if !strings.Contains(output, "45%") {
			t.Errorf("expected progress percentage, got: %s", output)
		}
	})
}

func TestMatchesCSV(t *testing.T) {
	matches := []*models.TrackMatch{
		{Position: 0, Title: "Song One", Artist: "Artist One", Album: "Album One", Matched: true, PlexRatingKey: "101"},
		{Position: 1, Title: "Song, Two", Artist: "Artist Two", Matched: false, DownloadID: "dl-1"},
	}

	data, err := MatchesCSV(matches)
	if err != nil {
		t.Fatalf("MatchesCSV failed: %v", err)
	}

	output := string(data)

	if !strings.Contains(output, "Position,Title,Artist,Album,Matched,RatingKey,DownloadID") {
		t.Errorf("CSV missing headers, got: %s", output)
	}
	if !strings.Contains(output, "0,Song One,Artist One,Album One,true,101,") {
		t.Errorf("CSV missing matched row, got: %s", output)
	}
	if !strings.Contains(output, `"Song, Two"`) {
		t.Errorf("expected comma-containing title to be quoted, got: %s", output)
	}
}

func TestSchedule(t *testing.T) {
	cases := []struct {
		name     string
		playlist models.Playlist
		want     string
	}{
		{"daily", models.Playlist{IsDaily: true, SyncTime: "06:00"}, "daily @ 06:00"},
		{"daily without time", models.Playlist{IsDaily: true}, "daily @ --:--"},
		{"weekly", models.Playlist{IsWeekly: true, SyncDay: "Friday", SyncTime: "18:00"}, "Friday @ 18:00"},
		{"manual", models.Playlist{}, "manual"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Schedule(&tc.playlist); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
