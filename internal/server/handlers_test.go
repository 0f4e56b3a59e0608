package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
	"github.com/jamsync/jamsync/internal/tasks"
	tu "github.com/jamsync/jamsync/internal/testing"
)

type apiHarness struct {
	api       *API
	router    *BasicRouter
	playlists *repositories.PlaylistRepository
	jobs      *repositories.SyncJobRepository
	downloads *repositories.DownloadRepository
	engine    *tasks.SyncEngine
	source    *tu.MockSource
	library   *tu.MockLibrary
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// A second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	logger := shared.NewLogger(io.Discard)
	playlists := repositories.NewPlaylistRepository(db)
	jobs := repositories.NewSyncJobRepository(db)
	matches := repositories.NewTrackMatchRepository(db)
	downloads := repositories.NewDownloadRepository(db)
	cache := repositories.NewMatchCacheRepository(db)

	source := &tu.MockSource{}
	library := &tu.MockLibrary{}
	catalog := &tu.MockCatalog{}
	downloader := &tu.MockDownloader{}

	matcher := tasks.NewMatcher(cache, library, 0, logger)
	resolver := tasks.NewResolver(catalog, logger)
	engine := tasks.NewSyncEngine(playlists, jobs, matches, downloads, source, library, matcher, resolver, logger)
	discovery := tasks.NewDiscovery(source, playlists, "demo", shared.SyncConfig{DailySyncTime: "06:00", WeeklySyncDay: "Monday", WeeklySyncTime: "07:30"}, logger)

	api := NewAPI(playlists, jobs, matches, downloads, cache, engine, discovery, downloader, logger)

	router := NewBasicRouter()
	router.Handler(api)

	return &apiHarness{
		api:       api,
		router:    router,
		playlists: playlists,
		jobs:      jobs,
		downloads: downloads,
		engine:    engine,
		source:    source,
		library:   library,
	}
}

func (h *apiHarness) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestStatusEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	status := decodeBody[statusResponse](t, rec)
	if status.Playlists != 0 || status.ActiveJobs != 0 {
		t.Errorf("expected empty counts, got %+v", status)
	}
	if !status.DownloaderHealthy {
		t.Error("expected mock downloader to report healthy")
	}
}

func TestPlaylistEndpoints(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.request(t, http.MethodPost, "/api/playlists",
			`{"mbid": "pl-1", "name": "Weekly Jams", "is_weekly": true, "sync_day": "Monday", "sync_time": "07:30"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		created := decodeBody[playlistResponse](t, rec)
		if created.ID == "" || !created.Enabled {
			t.Errorf("expected enabled playlist with ID, got %+v", created)
		}

		rec = h.request(t, http.MethodGet, "/api/playlists", "")
		listed := decodeBody[[]playlistResponse](t, rec)
		if len(listed) != 1 || listed[0].MBID != "pl-1" {
			t.Errorf("expected the created playlist, got %+v", listed)
		}
	})

	t.Run("duplicate mbid conflicts", func(t *testing.T) {
		h := newAPIHarness(t)

		h.request(t, http.MethodPost, "/api/playlists", `{"mbid": "pl-1", "name": "Weekly Jams"}`)
		rec := h.request(t, http.MethodPost, "/api/playlists", `{"mbid": "pl-1", "name": "Weekly Jams"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("schedule validation", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.request(t, http.MethodPost, "/api/playlists",
			`{"mbid": "pl-1", "name": "Weekly Jams", "sync_day": "Someday"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad day, got %d", rec.Code)
		}

		rec = h.request(t, http.MethodPost, "/api/playlists",
			`{"mbid": "pl-1", "name": "Weekly Jams", "sync_time": "25:99"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad time, got %d", rec.Code)
		}
	})

	t.Run("update schedule", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.request(t, http.MethodPost, "/api/playlists", `{"mbid": "pl-1", "name": "Weekly Jams"}`)
		created := decodeBody[playlistResponse](t, rec)

		rec = h.request(t, http.MethodPatch, "/api/playlists/"+created.ID,
			`{"enabled": false, "sync_time": "22:00"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		updated := decodeBody[playlistResponse](t, rec)
		if updated.Enabled || updated.SyncTime != "22:00" {
			t.Errorf("expected disabled playlist at 22:00, got %+v", updated)
		}

		rec = h.request(t, http.MethodPatch, "/api/playlists/"+created.ID, `{"sync_time": "bad"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for bad time, got %d", rec.Code)
		}

		rec = h.request(t, http.MethodPatch, "/api/playlists/missing", `{"enabled": true}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.request(t, http.MethodPost, "/api/playlists", `{"mbid": "pl-1", "name": "Weekly Jams"}`)
		created := decodeBody[playlistResponse](t, rec)

		if rec := h.request(t, http.MethodDelete, "/api/playlists/"+created.ID, ""); rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if rec := h.request(t, http.MethodDelete, "/api/playlists/"+created.ID, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})

	t.Run("discover and refresh", func(t *testing.T) {
		h := newAPIHarness(t)

		h.source.GetPlaylistsCreatedForFunc = func(_ context.Context, username string) ([]services.PlaylistSummary, error) {
			return []services.PlaylistSummary{
				{MBID: "pl-daily", Name: "Daily Jams for demo, 2026-09-01 Tue", Creator: "troi-bot"},
			}, nil
		}

		rec := h.request(t, http.MethodGet, "/api/playlists/discover", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		candidates := decodeBody[[]playlistResponse](t, rec)
		if len(candidates) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(candidates))
		}

		rec = h.request(t, http.MethodPost, "/api/playlists/refresh", "")
		added := decodeBody[map[string]int](t, rec)
		if added["added"] != 1 {
			t.Errorf("expected 1 added, got %d", added["added"])
		}
	})
}

func TestSyncJobEndpoints(t *testing.T) {
	t.Run("create conflicts with active job", func(t *testing.T) {
		h := newAPIHarness(t)

		playlist := &models.Playlist{MBID: "pl-1", Name: "Weekly Jams", Enabled: true}
		if err := h.playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if _, err := h.engine.CreateJob(playlist.ID); err != nil {
			t.Fatalf("failed to create active job: %v", err)
		}

		rec := h.request(t, http.MethodPost, "/api/sync-jobs", `{"playlist_id": "`+playlist.ID+`"}`)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 with active job, got %d", rec.Code)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		h := newAPIHarness(t)

		rec := h.request(t, http.MethodPost, "/api/sync-jobs", `{"playlist_id": "missing"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("get with track detail", func(t *testing.T) {
		h := newAPIHarness(t)

		playlist := &models.Playlist{MBID: "pl-1", Name: "Weekly Jams", Enabled: true}
		if err := h.playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		job, err := h.engine.CreateJob(playlist.ID)
		if err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		rec := h.request(t, http.MethodGet, "/api/sync-jobs/"+job.ID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		detail := decodeBody[jobDetailResponse](t, rec)
		if detail.Status != string(models.SyncPending) {
			t.Errorf("expected pending job, got %s", detail.Status)
		}
		if detail.Tracks == nil {
			t.Error("expected tracks array, got null")
		}

		if rec := h.request(t, http.MethodGet, "/api/sync-jobs/missing", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("cancel and force-complete", func(t *testing.T) {
		h := newAPIHarness(t)

		playlist := &models.Playlist{MBID: "pl-1", Name: "Weekly Jams", Enabled: true}
		if err := h.playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		job, err := h.engine.CreateJob(playlist.ID)
		if err != nil {
			t.Fatalf("failed to create job: %v", err)
		}

		// Force-complete requires suspension.
		rec := h.request(t, http.MethodPost, "/api/sync-jobs/"+job.ID+"/force-complete", "")
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 for non-suspended job, got %d", rec.Code)
		}

		rec = h.request(t, http.MethodPost, "/api/sync-jobs/"+job.ID+"/cancel", "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}

		rec = h.request(t, http.MethodPost, "/api/sync-jobs/"+job.ID+"/cancel", "")
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 on terminal job, got %d", rec.Code)
		}
	})
}

func TestDownloadEndpoints(t *testing.T) {
	h := newAPIHarness(t)

	download := &models.AlbumDownload{
		AlbumID:  "MPREb_1",
		AlbumURL: "https://music.example.com/album",
		Title:    "First Album",
		Artist:   "Artist One",
	}
	if err := h.downloads.Create(download); err != nil {
		t.Fatalf("failed to create download: %v", err)
	}

	t.Run("retry requires failed status", func(t *testing.T) {
		rec := h.request(t, http.MethodPost, "/api/downloads/"+download.ID+"/retry", "")
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409 for pending download, got %d", rec.Code)
		}
	})

	t.Run("retry resets a failed download", func(t *testing.T) {
		now := time.Now().UTC()
		download.Status = models.DownloadFailed
		download.RemoteJobID = "rj-1"
		download.ErrorMessage = "download timed out"
		download.CompletedAt = &now
		if err := h.downloads.Update(download); err != nil {
			t.Fatalf("failed to fail download: %v", err)
		}

		rec := h.request(t, http.MethodPost, "/api/downloads/"+download.ID+"/retry", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}

		reloaded, err := h.downloads.Get(download.ID)
		if err != nil {
			t.Fatalf("failed to reload download: %v", err)
		}
		if reloaded.Status != models.DownloadPending {
			t.Errorf("expected pending, got %s", reloaded.Status)
		}
		if reloaded.RemoteJobID != "" || reloaded.ErrorMessage != "" || reloaded.CompletedAt != nil {
			t.Error("expected remote reference and error state cleared")
		}
	})

	t.Run("list filters by status", func(t *testing.T) {
		rec := h.request(t, http.MethodGet, "/api/downloads?status=pending", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		listed := decodeBody[[]downloadResponse](t, rec)
		if len(listed) != 1 || listed[0].Status != "pending" {
			t.Errorf("expected one pending download, got %+v", listed)
		}
	})
}

func TestRouterMethodFiltering(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.request(t, http.MethodDelete, "/api/status", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
