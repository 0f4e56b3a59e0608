package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamsync/jamsync/internal/shared"
)

const jspfPlaylistBody = `{
	"playlist": {
		"identifier": "https://listenbrainz.org/playlist/pl-mbid-1",
		"title": "Weekly Jams for demo, week of 2026-08-24 Mon",
		"creator": "listenbrainz",
		"date": "2026-08-24T00:00:00Z",
		"extension": {
			"https://musicbrainz.org/doc/jspf#playlist": {
				"creator": "troi-bot",
				"created_for": "demo"
			}
		},
		"track": [
			{
				"identifier": "https://musicbrainz.org/recording/rec-1",
				"title": "First Song",
				"creator": "First Artist",
				"album": "First Album",
				"extension": {
					"https://musicbrainz.org/doc/jspf#track": {
						"release_identifier": "https://musicbrainz.org/release/rel-1"
					}
				}
			},
			{
				"identifier": ["https://musicbrainz.org/recording/rec-2"],
				"title": "Second Song",
				"creator": "Second Artist"
			},
			{
				"title": "No Identifier",
				"creator": "Skipped"
			}
		]
	}
}`

func TestListenBrainzService(t *testing.T) {
	t.Run("GetPlaylist", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlist/pl-mbid-1" {
				t.Errorf("expected path /playlist/pl-mbid-1, got %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Token secret" {
				t.Error("expected Authorization header with token")
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(jspfPlaylistBody))
		}))
		defer server.Close()

		svc := NewListenBrainzService(server.URL, "secret")

		playlist, err := svc.GetPlaylist(context.Background(), "pl-mbid-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if playlist.MBID != "pl-mbid-1" {
			t.Errorf("expected MBID pl-mbid-1, got %s", playlist.MBID)
		}
		if playlist.Creator != "troi-bot" {
			t.Errorf("expected creator troi-bot, got %s", playlist.Creator)
		}
		if playlist.CreatedFor != "demo" {
			t.Errorf("expected created_for demo, got %s", playlist.CreatedFor)
		}

		if len(playlist.Tracks) != 2 {
			t.Fatalf("expected 2 tracks (identifier-less skipped), got %d", len(playlist.Tracks))
		}

		first := playlist.Tracks[0]
		if first.RecordingMBID != "rec-1" {
			t.Errorf("expected recording MBID rec-1, got %s", first.RecordingMBID)
		}
		if first.ReleaseMBID != "rel-1" {
			t.Errorf("expected release MBID rel-1, got %s", first.ReleaseMBID)
		}

		// List-shaped identifier (API inconsistency)
		if playlist.Tracks[1].RecordingMBID != "rec-2" {
			t.Errorf("expected recording MBID rec-2, got %s", playlist.Tracks[1].RecordingMBID)
		}
	})

	t.Run("GetPlaylist not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		svc := NewListenBrainzService(server.URL, "")

		_, err := svc.GetPlaylist(context.Background(), "missing")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("GetPlaylist server error is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		svc := NewListenBrainzService(server.URL, "")

		_, err := svc.GetPlaylist(context.Background(), "pl-mbid-1")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("GetPlaylistsCreatedFor", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/user/demo/playlists/createdfor" {
				t.Errorf("expected createdfor path, got %s", r.URL.Path)
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"playlists": [
					{"playlist": {
						"identifier": "https://listenbrainz.org/playlist/pl-daily",
						"title": "Daily Jams for demo, 2026-09-01 Tue",
						"creator": "listenbrainz",
						"extension": {
							"https://musicbrainz.org/doc/jspf#playlist": {"creator": "troi-bot"}
						}
					}},
					{"playlist": {
						"identifier": "https://listenbrainz.org/playlist/pl-weekly",
						"title": "Weekly Exploration for demo"
					}}
				]
			}`))
		}))
		defer server.Close()

		svc := NewListenBrainzService(server.URL, "")

		playlists, err := svc.GetPlaylistsCreatedFor(context.Background(), "demo")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(playlists) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(playlists))
		}
		if playlists[0].MBID != "pl-daily" {
			t.Errorf("expected MBID pl-daily, got %s", playlists[0].MBID)
		}
		if playlists[0].Creator != "troi-bot" {
			t.Errorf("expected creator troi-bot, got %s", playlists[0].Creator)
		}
	})
}

func TestPlaylistClassifiers(t *testing.T) {
	tc := []struct {
		name   string
		daily  bool
		weekly bool
	}{
		{"Daily Jams for demo, 2026-09-01 Tue", true, false},
		{"Weekly Jams for demo, week of 2026-08-24 Mon", false, true},
		{"Weekly Exploration for demo", false, false},
		{"My mixtape", false, false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if IsDailyJams(tt.name) != tt.daily {
				t.Errorf("IsDailyJams(%q) = %v", tt.name, !tt.daily)
			}
			if IsWeeklyJams(tt.name) != tt.weekly {
				t.Errorf("IsWeeklyJams(%q) = %v", tt.name, !tt.weekly)
			}
		})
	}

	if !IsWeeklyExploration("Weekly Exploration for demo") {
		t.Error("expected Weekly Exploration to classify")
	}
}
