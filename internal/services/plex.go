// Plex Media Server [Library] implementation
//
// Response types based on the Plex HTTP API. All requests authenticate
// with a static X-Plex-Token and ask for JSON via the Accept header.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jamsync/jamsync/internal/shared"
)

// Plex metadata type codes for filtered section queries.
const (
	plexTypeArtist = 8
	plexTypeAlbum  = 9
	plexTypeTrack  = 10
)

type plexMetadata struct {
	RatingKey        string `json:"ratingKey"`
	Title            string `json:"title"`
	ParentTitle      string `json:"parentTitle"`
	GrandparentTitle string `json:"grandparentTitle"`
	OriginalTitle    string `json:"originalTitle"`
	Type             string `json:"type"`
}

type plexDirectory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type plexContainer struct {
	MediaContainer struct {
		MachineIdentifier string          `json:"machineIdentifier"`
		Directory         []plexDirectory `json:"Directory"`
		Metadata          []plexMetadata  `json:"Metadata"`
	} `json:"MediaContainer"`
}

// PlexService implements the Library interface against a Plex Media Server.
// The music section key and server machine identifier are resolved lazily
// and cached for the lifetime of the service.
type PlexService struct {
	baseURL      string
	token        string
	musicLibrary string
	httpClient   *http.Client

	sectionKey string
	machineID  string
}

// NewPlexService creates a new Plex service for the given server.
func NewPlexService(baseURL, token, musicLibrary string) *PlexService {
	if musicLibrary == "" {
		musicLibrary = "Music"
	}

	return &PlexService{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		musicLibrary: musicLibrary,
		httpClient:   http.DefaultClient,
	}
}

func (p *PlexService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	apiURL := p.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrTrackNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: plex API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// musicSectionKey resolves and caches the key of the configured music
// library section.
func (p *PlexService) musicSectionKey(ctx context.Context) (string, error) {
	if p.sectionKey != "" {
		return p.sectionKey, nil
	}

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, "/library/sections", &container); err != nil {
		return "", err
	}

	for _, dir := range container.MediaContainer.Directory {
		if dir.Type == "artist" && dir.Title == p.musicLibrary {
			p.sectionKey = dir.Key
			return p.sectionKey, nil
		}
	}

	return "", fmt.Errorf("music library section not found: %s", p.musicLibrary)
}

// machineIdentifier resolves and caches the server's machine identifier,
// required by the playlist creation URI scheme.
func (p *PlexService) machineIdentifier(ctx context.Context) (string, error) {
	if p.machineID != "" {
		return p.machineID, nil
	}

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, "/identity", &container); err != nil {
		return "", err
	}

	if container.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("plex server returned empty machine identifier")
	}

	p.machineID = container.MediaContainer.MachineIdentifier
	return p.machineID, nil
}

func (p *PlexService) searchSection(ctx context.Context, metaType int, title string) ([]plexMetadata, error) {
	sectionKey, err := p.musicSectionKey(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/library/sections/%s/all?type=%d&title=%s",
		sectionKey, metaType, url.QueryEscape(title))

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &container); err != nil {
		return nil, err
	}

	return container.MediaContainer.Metadata, nil
}

// SearchTracks finds tracks whose title matches the query.
func (p *PlexService) SearchTracks(ctx context.Context, title string) ([]LibraryTrack, error) {
	metadata, err := p.searchSection(ctx, plexTypeTrack, title)
	if err != nil {
		return nil, err
	}

	tracks := make([]LibraryTrack, len(metadata))
	for i, m := range metadata {
		tracks[i] = trackFromMetadata(m)
	}
	return tracks, nil
}

// SearchArtists finds artists whose name matches the query.
func (p *PlexService) SearchArtists(ctx context.Context, name string) ([]LibraryArtist, error) {
	metadata, err := p.searchSection(ctx, plexTypeArtist, name)
	if err != nil {
		return nil, err
	}

	artists := make([]LibraryArtist, len(metadata))
	for i, m := range metadata {
		artists[i] = LibraryArtist{RatingKey: m.RatingKey, Name: m.Title}
	}
	return artists, nil
}

// SearchAlbums finds albums whose title matches the query.
func (p *PlexService) SearchAlbums(ctx context.Context, title string) ([]LibraryAlbum, error) {
	metadata, err := p.searchSection(ctx, plexTypeAlbum, title)
	if err != nil {
		return nil, err
	}

	albums := make([]LibraryAlbum, len(metadata))
	for i, m := range metadata {
		albums[i] = LibraryAlbum{RatingKey: m.RatingKey, Title: m.Title, Artist: m.ParentTitle}
	}
	return albums, nil
}

func (p *PlexService) children(ctx context.Context, ratingKey string) ([]plexMetadata, error) {
	endpoint := fmt.Sprintf("/library/metadata/%s/children", ratingKey)

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &container); err != nil {
		return nil, err
	}

	return container.MediaContainer.Metadata, nil
}

// ArtistAlbums lists an artist's albums.
func (p *PlexService) ArtistAlbums(ctx context.Context, artistKey string) ([]LibraryAlbum, error) {
	metadata, err := p.children(ctx, artistKey)
	if err != nil {
		return nil, err
	}

	albums := make([]LibraryAlbum, len(metadata))
	for i, m := range metadata {
		albums[i] = LibraryAlbum{RatingKey: m.RatingKey, Title: m.Title, Artist: m.ParentTitle}
	}
	return albums, nil
}

// AlbumTracks lists an album's tracks.
func (p *PlexService) AlbumTracks(ctx context.Context, albumKey string) ([]LibraryTrack, error) {
	metadata, err := p.children(ctx, albumKey)
	if err != nil {
		return nil, err
	}

	tracks := make([]LibraryTrack, len(metadata))
	for i, m := range metadata {
		tracks[i] = trackFromMetadata(m)
	}
	return tracks, nil
}

// GetTrack fetches a track by rating key. A 404 surfaces as
// shared.ErrTrackNotFound, which the matcher treats as a stale cache
// entry rather than a failure.
func (p *PlexService) GetTrack(ctx context.Context, ratingKey string) (*LibraryTrack, error) {
	endpoint := fmt.Sprintf("/library/metadata/%s", ratingKey)

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, endpoint, &container); err != nil {
		return nil, err
	}

	if len(container.MediaContainer.Metadata) == 0 {
		return nil, shared.ErrTrackNotFound
	}

	track := trackFromMetadata(container.MediaContainer.Metadata[0])
	return &track, nil
}

// CreatePlaylist creates an audio playlist from rating keys, deleting any
// existing playlist with the same name first.
func (p *PlexService) CreatePlaylist(ctx context.Context, name string, ratingKeys []string) (string, error) {
	machineID, err := p.machineIdentifier(ctx)
	if err != nil {
		return "", err
	}

	if err := p.deletePlaylistByName(ctx, name); err != nil {
		return "", err
	}

	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(ratingKeys, ","))
	endpoint := fmt.Sprintf("/playlists?type=audio&smart=0&title=%s&uri=%s",
		url.QueryEscape(name), url.QueryEscape(uri))

	var container plexContainer
	if err := p.doRequest(ctx, http.MethodPost, endpoint, &container); err != nil {
		return "", err
	}

	if len(container.MediaContainer.Metadata) == 0 {
		return "", fmt.Errorf("plex returned no playlist metadata")
	}

	return container.MediaContainer.Metadata[0].RatingKey, nil
}

func (p *PlexService) deletePlaylistByName(ctx context.Context, name string) error {
	var container plexContainer
	if err := p.doRequest(ctx, http.MethodGet, "/playlists?playlistType=audio", &container); err != nil {
		return err
	}

	for _, m := range container.MediaContainer.Metadata {
		if m.Title != name {
			continue
		}
		endpoint := fmt.Sprintf("/playlists/%s", m.RatingKey)
		if err := p.doRequest(ctx, http.MethodDelete, endpoint, nil); err != nil {
			return fmt.Errorf("failed to delete existing playlist: %w", err)
		}
	}

	return nil
}

// RefreshLibrary triggers a scan of the music section.
func (p *PlexService) RefreshLibrary(ctx context.Context) error {
	sectionKey, err := p.musicSectionKey(ctx)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("/library/sections/%s/refresh", sectionKey)
	return p.doRequest(ctx, http.MethodGet, endpoint, nil)
}

// trackFromMetadata maps Plex metadata to a LibraryTrack. Plex stores the
// track-level artist in originalTitle for compilation entries, falling
// back to the album artist in grandparentTitle.
func trackFromMetadata(m plexMetadata) LibraryTrack {
	artist := m.OriginalTitle
	if artist == "" {
		artist = m.GrandparentTitle
	}

	return LibraryTrack{
		RatingKey: m.RatingKey,
		Title:     m.Title,
		Artist:    artist,
		Album:     m.ParentTitle,
	}
}
