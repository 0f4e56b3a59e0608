// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/jamsync/jamsync/internal/services"
)

// MockSource is a configurable test double for [services.Source].
// Unset function fields return zero values.
type MockSource struct {
	GetPlaylistFunc            func(ctx context.Context, mbid string) (*services.SourcePlaylist, error)
	GetPlaylistsCreatedForFunc func(ctx context.Context, username string) ([]services.PlaylistSummary, error)
}

func (m *MockSource) GetPlaylist(ctx context.Context, mbid string) (*services.SourcePlaylist, error) {
	if m.GetPlaylistFunc != nil {
		return m.GetPlaylistFunc(ctx, mbid)
	}
	return &services.SourcePlaylist{MBID: mbid}, nil
}

func (m *MockSource) GetPlaylistsCreatedFor(ctx context.Context, username string) ([]services.PlaylistSummary, error) {
	if m.GetPlaylistsCreatedForFunc != nil {
		return m.GetPlaylistsCreatedForFunc(ctx, username)
	}
	return nil, nil
}

// MockLibrary is a configurable test double for [services.Library].
type MockLibrary struct {
	SearchTracksFunc   func(ctx context.Context, title string) ([]services.LibraryTrack, error)
	SearchArtistsFunc  func(ctx context.Context, name string) ([]services.LibraryArtist, error)
	SearchAlbumsFunc   func(ctx context.Context, title string) ([]services.LibraryAlbum, error)
	ArtistAlbumsFunc   func(ctx context.Context, artistKey string) ([]services.LibraryAlbum, error)
	AlbumTracksFunc    func(ctx context.Context, albumKey string) ([]services.LibraryTrack, error)
	GetTrackFunc       func(ctx context.Context, ratingKey string) (*services.LibraryTrack, error)
	CreatePlaylistFunc func(ctx context.Context, name string, ratingKeys []string) (string, error)
	RefreshFunc        func(ctx context.Context) error

	SearchCalls  int
	RefreshCalls int
}

func (m *MockLibrary) SearchTracks(ctx context.Context, title string) ([]services.LibraryTrack, error) {
	m.SearchCalls++
	if m.SearchTracksFunc != nil {
		return m.SearchTracksFunc(ctx, title)
	}
	return nil, nil
}

func (m *MockLibrary) SearchArtists(ctx context.Context, name string) ([]services.LibraryArtist, error) {
	m.SearchCalls++
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockLibrary) SearchAlbums(ctx context.Context, title string) ([]services.LibraryAlbum, error) {
	m.SearchCalls++
	if m.SearchAlbumsFunc != nil {
		return m.SearchAlbumsFunc(ctx, title)
	}
	return nil, nil
}

func (m *MockLibrary) ArtistAlbums(ctx context.Context, artistKey string) ([]services.LibraryAlbum, error) {
	if m.ArtistAlbumsFunc != nil {
		return m.ArtistAlbumsFunc(ctx, artistKey)
	}
	return nil, nil
}

func (m *MockLibrary) AlbumTracks(ctx context.Context, albumKey string) ([]services.LibraryTrack, error) {
	if m.AlbumTracksFunc != nil {
		return m.AlbumTracksFunc(ctx, albumKey)
	}
	return nil, nil
}

func (m *MockLibrary) GetTrack(ctx context.Context, ratingKey string) (*services.LibraryTrack, error) {
	if m.GetTrackFunc != nil {
		return m.GetTrackFunc(ctx, ratingKey)
	}
	return nil, errors.New("track not found")
}

func (m *MockLibrary) CreatePlaylist(ctx context.Context, name string, ratingKeys []string) (string, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, ratingKeys)
	}
	return "playlist-key", nil
}

func (m *MockLibrary) RefreshLibrary(ctx context.Context) error {
	m.RefreshCalls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

// MockDownloader is a configurable test double for [services.Downloader].
type MockDownloader struct {
	CreateJobFunc func(ctx context.Context, url string) (*services.RemoteJob, error)
	ListJobsFunc  func(ctx context.Context) ([]services.RemoteJob, error)
	CancelJobFunc func(ctx context.Context, jobID string) error
	DeleteJobFunc func(ctx context.Context, jobID string) error

	CreateCalls int
	ListCalls   int
}

func (m *MockDownloader) CreateJob(ctx context.Context, url string) (*services.RemoteJob, error) {
	m.CreateCalls++
	if m.CreateJobFunc != nil {
		return m.CreateJobFunc(ctx, url)
	}
	return &services.RemoteJob{ID: "remote-job", URL: url, Status: "pending"}, nil
}

func (m *MockDownloader) ListJobs(ctx context.Context) ([]services.RemoteJob, error) {
	m.ListCalls++
	if m.ListJobsFunc != nil {
		return m.ListJobsFunc(ctx)
	}
	return nil, nil
}

func (m *MockDownloader) CancelJob(ctx context.Context, jobID string) error {
	if m.CancelJobFunc != nil {
		return m.CancelJobFunc(ctx, jobID)
	}
	return nil
}

func (m *MockDownloader) DeleteJob(ctx context.Context, jobID string) error {
	if m.DeleteJobFunc != nil {
		return m.DeleteJobFunc(ctx, jobID)
	}
	return nil
}

func (m *MockDownloader) Health(ctx context.Context) bool { return true }

// MockCatalog is a configurable test double for [services.Catalog].
type MockCatalog struct {
	SearchAlbumsFunc    func(ctx context.Context, query string) ([]services.AlbumInfo, error)
	SearchSongsFunc     func(ctx context.Context, query string) ([]services.SongInfo, error)
	SearchArtistsFunc   func(ctx context.Context, name string) ([]services.ArtistInfo, error)
	GetArtistAlbumsFunc func(ctx context.Context, browseID string) ([]services.CatalogAlbumRef, error)
	GetAlbumFunc        func(ctx context.Context, browseID string) (*services.AlbumInfo, error)
}

func (m *MockCatalog) SearchAlbums(ctx context.Context, query string) ([]services.AlbumInfo, error) {
	if m.SearchAlbumsFunc != nil {
		return m.SearchAlbumsFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockCatalog) SearchSongs(ctx context.Context, query string) ([]services.SongInfo, error) {
	if m.SearchSongsFunc != nil {
		return m.SearchSongsFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockCatalog) SearchArtists(ctx context.Context, name string) ([]services.ArtistInfo, error) {
	if m.SearchArtistsFunc != nil {
		return m.SearchArtistsFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockCatalog) GetArtistAlbums(ctx context.Context, browseID string) ([]services.CatalogAlbumRef, error) {
	if m.GetArtistAlbumsFunc != nil {
		return m.GetArtistAlbumsFunc(ctx, browseID)
	}
	return nil, nil
}

func (m *MockCatalog) GetAlbum(ctx context.Context, browseID string) (*services.AlbumInfo, error) {
	if m.GetAlbumFunc != nil {
		return m.GetAlbumFunc(ctx, browseID)
	}
	return nil, errors.New("album not found")
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
