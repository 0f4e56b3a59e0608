package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamsync/jamsync/internal/shared"
)

// plexTestServer wires the section/identity endpoints every Plex call
// depends on, then delegates to the provided handler.
func plexTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "plex-token" {
			t.Error("expected X-Plex-Token header")
		}

		switch r.URL.Path {
		case "/library/sections":
			w.Write([]byte(`{"MediaContainer": {"Directory": [
				{"key": "3", "title": "Movies", "type": "movie"},
				{"key": "5", "title": "Music", "type": "artist"}
			]}}`))
		case "/identity":
			w.Write([]byte(`{"MediaContainer": {"machineIdentifier": "machine-1"}}`))
		default:
			handler(w, r)
		}
	}))
}

func TestPlexService(t *testing.T) {
	t.Run("SearchTracks", func(t *testing.T) {
		server := plexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/library/sections/5/all" {
				t.Errorf("expected section search path, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("type") != "10" {
				t.Errorf("expected type=10, got %s", r.URL.Query().Get("type"))
			}
			if r.URL.Query().Get("title") != "Karma Police" {
				t.Errorf("expected title query, got %s", r.URL.Query().Get("title"))
			}

			w.Write([]byte(`{"MediaContainer": {"Metadata": [
				{"ratingKey": "101", "title": "Karma Police", "parentTitle": "OK Computer", "grandparentTitle": "Radiohead"},
				{"ratingKey": "102", "title": "Karma Police (Live)", "parentTitle": "Compilation", "grandparentTitle": "Various Artists", "originalTitle": "Radiohead"}
			]}}`))
		})
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")

		tracks, err := svc.SearchTracks(context.Background(), "Karma Police")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Artist != "Radiohead" {
			t.Errorf("expected artist from grandparentTitle, got %s", tracks[0].Artist)
		}
		if tracks[1].Artist != "Radiohead" {
			t.Errorf("expected originalTitle to win for compilations, got %s", tracks[1].Artist)
		}
		if tracks[0].Album != "OK Computer" {
			t.Errorf("expected album from parentTitle, got %s", tracks[0].Album)
		}
	})

	t.Run("section is cached", func(t *testing.T) {
		sectionCalls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/library/sections":
				sectionCalls++
				w.Write([]byte(`{"MediaContainer": {"Directory": [{"key": "5", "title": "Music", "type": "artist"}]}}`))
			default:
				w.Write([]byte(`{"MediaContainer": {"Metadata": []}}`))
			}
		}))
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")
		ctx := context.Background()

		if _, err := svc.SearchTracks(ctx, "a"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := svc.SearchAlbums(ctx, "b"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if sectionCalls != 1 {
			t.Errorf("expected 1 section lookup, got %d", sectionCalls)
		}
	})

	t.Run("GetTrack not found", func(t *testing.T) {
		server := plexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")

		_, err := svc.GetTrack(context.Background(), "999")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("ArtistAlbums and AlbumTracks", func(t *testing.T) {
		server := plexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/library/metadata/7/children":
				w.Write([]byte(`{"MediaContainer": {"Metadata": [
					{"ratingKey": "70", "title": "OK Computer", "parentTitle": "Radiohead"}
				]}}`))
			case "/library/metadata/70/children":
				w.Write([]byte(`{"MediaContainer": {"Metadata": [
					{"ratingKey": "701", "title": "Airbag", "parentTitle": "OK Computer", "grandparentTitle": "Radiohead"}
				]}}`))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		})
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")
		ctx := context.Background()

		albums, err := svc.ArtistAlbums(ctx, "7")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(albums) != 1 || albums[0].Title != "OK Computer" {
			t.Fatal("expected OK Computer album")
		}

		tracks, err := svc.AlbumTracks(ctx, albums[0].RatingKey)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].Title != "Airbag" {
			t.Fatal("expected Airbag track")
		}
	})

	t.Run("CreatePlaylist replaces existing", func(t *testing.T) {
		var deleted, created bool
		server := plexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/playlists" && r.Method == http.MethodGet:
				w.Write([]byte(`{"MediaContainer": {"Metadata": [
					{"ratingKey": "900", "title": "Weekly Jams"}
				]}}`))
			case r.URL.Path == "/playlists/900" && r.Method == http.MethodDelete:
				deleted = true
			case r.URL.Path == "/playlists" && r.Method == http.MethodPost:
				created = true
				uri := r.URL.Query().Get("uri")
				want := "server://machine-1/com.plexapp.plugins.library/library/metadata/101,102"
				if uri != want {
					t.Errorf("expected uri %s, got %s", want, uri)
				}
				w.Write([]byte(`{"MediaContainer": {"Metadata": [{"ratingKey": "901", "title": "Weekly Jams"}]}}`))
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		})
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")

		key, err := svc.CreatePlaylist(context.Background(), "Weekly Jams", []string{"101", "102"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if key != "901" {
			t.Errorf("expected playlist key 901, got %s", key)
		}
		if !deleted {
			t.Error("expected existing playlist to be deleted")
		}
		if !created {
			t.Error("expected playlist to be created")
		}
	})

	t.Run("RefreshLibrary", func(t *testing.T) {
		var refreshed bool
		server := plexTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/library/sections/5/refresh" {
				refreshed = true
				return
			}
			t.Errorf("unexpected path %s", r.URL.Path)
		})
		defer server.Close()

		svc := NewPlexService(server.URL, "plex-token", "Music")

		if err := svc.RefreshLibrary(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !refreshed {
			t.Error("expected refresh endpoint to be hit")
		}
	})
}
