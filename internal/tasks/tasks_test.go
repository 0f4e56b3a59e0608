package tasks

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
	tu "github.com/jamsync/jamsync/internal/testing"
)

// harness wires an in-memory database, repositories, and mock services
// into a SyncEngine for orchestration tests.
type harness struct {
	db         *sql.DB
	playlists  *repositories.PlaylistRepository
	jobs       *repositories.SyncJobRepository
	matches    *repositories.TrackMatchRepository
	downloads  *repositories.DownloadRepository
	cache      *repositories.MatchCacheRepository
	source     *tu.MockSource
	library    *tu.MockLibrary
	catalog    *tu.MockCatalog
	downloader *tu.MockDownloader
	matcher    *Matcher
	resolver   *Resolver
	engine     *SyncEngine
}

func newHarness(t *testing.T) *harness {
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

	h := &harness{
		db:         db,
		playlists:  repositories.NewPlaylistRepository(db),
		jobs:       repositories.NewSyncJobRepository(db),
		matches:    repositories.NewTrackMatchRepository(db),
		downloads:  repositories.NewDownloadRepository(db),
		cache:      repositories.NewMatchCacheRepository(db),
		source:     &tu.MockSource{},
		library:    &tu.MockLibrary{},
		catalog:    &tu.MockCatalog{},
		downloader: &tu.MockDownloader{},
	}

	h.matcher = NewMatcher(h.cache, h.library, 0, logger)
	h.resolver = NewResolver(h.catalog, logger)
	h.engine = NewSyncEngine(h.playlists, h.jobs, h.matches, h.downloads, h.source, h.library, h.matcher, h.resolver, logger)
	return h
}

func (h *harness) trackedPlaylist(t *testing.T, mbid, name string) *models.Playlist {
	t.Helper()

	playlist := &models.Playlist{MBID: mbid, Name: name, Creator: "troi-bot", Enabled: true}
	if err := h.playlists.Create(playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	return playlist
}

// libraryWithTracks configures the library mock so a title search finds
// exactly the given tracks, keyed by source title.
func libraryWithTracks(library *tu.MockLibrary, tracks map[string]services.LibraryTrack) {
	library.SearchTracksFunc = func(_ context.Context, title string) ([]services.LibraryTrack, error) {
		if track, ok := tracks[title]; ok {
			return []services.LibraryTrack{track}, nil
		}
		return nil, nil
	}
}
