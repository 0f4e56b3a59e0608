package services

import "context"

// Track is a playlist entry from the source provider.
type Track struct {
	RecordingMBID string
	Title         string
	Artist        string
	Album         string
	ReleaseMBID   string
}

// SourcePlaylist is a playlist fetched from the source with its tracks.
type SourcePlaylist struct {
	MBID       string
	Name       string
	Creator    string
	CreatedFor string
	Date       string
	Tracks     []Track
}

// PlaylistSummary is playlist metadata without tracks, as returned by
// listing endpoints.
type PlaylistSummary struct {
	MBID    string
	Name    string
	Creator string
}

// Source provides playlists to sync.
type Source interface {
	// GetPlaylist fetches a full playlist with tracks. Returns
	// shared.ErrPlaylistNotFound when the MBID does not exist, which is
	// distinct from transient transport failures.
	GetPlaylist(ctx context.Context, mbid string) (*SourcePlaylist, error)

	// GetPlaylistsCreatedFor lists playlists generated for the user
	// (daily jams, weekly jams, recommendations).
	GetPlaylistsCreatedFor(ctx context.Context, username string) ([]PlaylistSummary, error)
}

// LibraryTrack is a track found in the media library.
type LibraryTrack struct {
	RatingKey string
	Title     string
	Artist    string
	Album     string
}

// LibraryArtist is an artist entry in the media library.
type LibraryArtist struct {
	RatingKey string
	Name      string
}

// LibraryAlbum is an album entry in the media library.
type LibraryAlbum struct {
	RatingKey string
	Title     string
	Artist    string
}

// Library is the media server holding the local collection.
type Library interface {
	// SearchTracks finds tracks whose title matches the query.
	SearchTracks(ctx context.Context, title string) ([]LibraryTrack, error)

	// SearchArtists finds artists whose name matches the query.
	SearchArtists(ctx context.Context, name string) ([]LibraryArtist, error)

	// SearchAlbums finds albums whose title matches the query.
	SearchAlbums(ctx context.Context, title string) ([]LibraryAlbum, error)

	// ArtistAlbums lists an artist's albums.
	ArtistAlbums(ctx context.Context, artistKey string) ([]LibraryAlbum, error)

	// AlbumTracks lists an album's tracks.
	AlbumTracks(ctx context.Context, albumKey string) ([]LibraryTrack, error)

	// GetTrack fetches a track by rating key. Returns
	// shared.ErrTrackNotFound when the key no longer resolves.
	GetTrack(ctx context.Context, ratingKey string) (*LibraryTrack, error)

	// CreatePlaylist creates a playlist from rating keys, replacing any
	// existing playlist with the same name. Returns the playlist key.
	CreatePlaylist(ctx context.Context, name string, ratingKeys []string) (string, error)

	// RefreshLibrary triggers a scan of the music section.
	RefreshLibrary(ctx context.Context) error
}

// RemoteJob is a download job as reported by the downloader API.
type RemoteJob struct {
	ID           string
	URL          string
	Status       string
	Progress     float64
	ErrorMessage string
}

// Downloader is the asynchronous download-job API.
type Downloader interface {
	// CreateJob submits a download for the given URL. Returns
	// shared.ErrQueueFull when the remote queue is at capacity.
	CreateJob(ctx context.Context, url string) (*RemoteJob, error)

	// ListJobs returns all jobs the downloader currently knows about.
	ListJobs(ctx context.Context) ([]RemoteJob, error)

	// CancelJob cancels a queued or running job.
	CancelJob(ctx context.Context, jobID string) error

	// DeleteJob removes a finished job from the remote queue.
	DeleteJob(ctx context.Context, jobID string) error

	// Health reports whether the downloader is reachable and healthy.
	Health(ctx context.Context) bool
}

// AlbumInfo describes a catalog album that can be downloaded.
type AlbumInfo struct {
	AlbumID    string
	Title      string
	Artist     string
	URL        string
	Year       string
	TrackCount int
}

// SongInfo is a catalog song search result.
type SongInfo struct {
	Title   string
	Artists []string
	AlbumID string
}

// ArtistInfo is a catalog artist search result.
type ArtistInfo struct {
	BrowseID string
	Name     string
}

// CatalogAlbumRef is an album reference within an artist's discography.
type CatalogAlbumRef struct {
	BrowseID string
	Title    string
}

// Catalog searches the music catalog for downloadable albums.
type Catalog interface {
	// SearchAlbums searches the catalog for albums.
	SearchAlbums(ctx context.Context, query string) ([]AlbumInfo, error)

	// SearchSongs searches the catalog for songs.
	SearchSongs(ctx context.Context, query string) ([]SongInfo, error)

	// SearchArtists searches the catalog for artists.
	SearchArtists(ctx context.Context, name string) ([]ArtistInfo, error)

	// GetArtistAlbums lists an artist's discography.
	GetArtistAlbums(ctx context.Context, browseID string) ([]CatalogAlbumRef, error)

	// GetAlbum fetches full album details, including the downloadable
	// URL. A candidate is only usable once this succeeds.
	GetAlbum(ctx context.Context, browseID string) (*AlbumInfo, error)
}
