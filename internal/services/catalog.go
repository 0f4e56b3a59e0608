// Music catalog [Catalog] implementation
//
// Communicates with a ytmusicapi proxy for album, song, and artist
// search. The proxy wraps the YouTube Music catalog; album URLs it
// returns are the input to the download queue.
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

const (
	// Albums resolve to a shareable playlist URL when the catalog exposes
	// an audio playlist ID, otherwise to a browse URL.
	catalogAlbumURLTemplate  = "https://music.youtube.com/playlist?list=%s"
	catalogBrowseURLTemplate = "https://music.youtube.com/browse/%s"
)

type catalogArtistRef struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// CatalogService implements the Catalog interface via a ytmusicapi proxy.
type CatalogService struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogService creates a new catalog client for the given proxy URL.
func NewCatalogService(baseURL string) *CatalogService {
	return &CatalogService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

func (c *CatalogService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: catalog API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchAlbums searches the catalog for albums.
//
// Calls GET /api/search?q={query}&filter=albums.
func (c *CatalogService) SearchAlbums(ctx context.Context, query string) ([]AlbumInfo, error) {
	var results []struct {
		BrowseID string             `json:"browseId"`
		Title    string             `json:"title"`
		Artists  []catalogArtistRef `json:"artists"`
		Year     string             `json:"year"`
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=albums", url.QueryEscape(query))
	if err := c.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	albums := make([]AlbumInfo, 0, len(results))
	for _, r := range results {
		if r.BrowseID == "" {
			continue
		}
		albums = append(albums, AlbumInfo{
			AlbumID: r.BrowseID,
			Title:   r.Title,
			Artist:  firstArtistName(r.Artists),
			URL:     fmt.Sprintf(catalogBrowseURLTemplate, r.BrowseID),
			Year:    r.Year,
		})
	}

	return albums, nil
}

// SearchSongs searches the catalog for songs.
//
// Calls GET /api/search?q={query}&filter=songs.
func (c *CatalogService) SearchSongs(ctx context.Context, query string) ([]SongInfo, error) {
	var results []struct {
		Title   string             `json:"title"`
		Artists []catalogArtistRef `json:"artists"`
		Album   *struct {
			ID string `json:"id"`
		} `json:"album"`
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))
	if err := c.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	songs := make([]SongInfo, 0, len(results))
	for _, r := range results {
		song := SongInfo{Title: r.Title}
		for _, a := range r.Artists {
			if a.Name != "" {
				song.Artists = append(song.Artists, a.Name)
			}
		}
		if r.Album != nil {
			song.AlbumID = r.Album.ID
		}
		songs = append(songs, song)
	}

	return songs, nil
}

// SearchArtists searches the catalog for artists.
//
// Calls GET /api/search?q={name}&filter=artists.
func (c *CatalogService) SearchArtists(ctx context.Context, name string) ([]ArtistInfo, error) {
	var results []struct {
		BrowseID string `json:"browseId"`
		Artist   string `json:"artist"`
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=artists", url.QueryEscape(name))
	if err := c.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	artists := make([]ArtistInfo, 0, len(results))
	for _, r := range results {
		if r.BrowseID == "" {
			continue
		}
		artists = append(artists, ArtistInfo{BrowseID: r.BrowseID, Name: r.Artist})
	}

	return artists, nil
}

// GetArtistAlbums lists an artist's discography.
//
// Calls GET /api/artists/{browseId}/albums.
func (c *CatalogService) GetArtistAlbums(ctx context.Context, browseID string) ([]CatalogAlbumRef, error) {
	var results []struct {
		BrowseID string `json:"browseId"`
		Title    string `json:"title"`
	}

	endpoint := fmt.Sprintf("/api/artists/%s/albums", url.PathEscape(browseID))
	if err := c.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	albums := make([]CatalogAlbumRef, 0, len(results))
	for _, r := range results {
		if r.BrowseID == "" {
			continue
		}
		albums = append(albums, CatalogAlbumRef{BrowseID: r.BrowseID, Title: r.Title})
	}

	return albums, nil
}

// GetAlbum fetches full album details by browse ID.
//
// Calls GET /api/albums/{browseId}. The audio playlist ID produces the
// downloadable URL; without one the browse URL is used.
func (c *CatalogService) GetAlbum(ctx context.Context, browseID string) (*AlbumInfo, error) {
	var result struct {
		Title           string             `json:"title"`
		Artists         []catalogArtistRef `json:"artists"`
		Year            string             `json:"year"`
		TrackCount      int                `json:"trackCount"`
		AudioPlaylistID string             `json:"audioPlaylistId"`
	}

	endpoint := fmt.Sprintf("/api/albums/%s", url.PathEscape(browseID))
	if err := c.doRequest(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	albumURL := fmt.Sprintf(catalogBrowseURLTemplate, browseID)
	if result.AudioPlaylistID != "" {
		albumURL = fmt.Sprintf(catalogAlbumURLTemplate, result.AudioPlaylistID)
	}

	return &AlbumInfo{
		AlbumID:    browseID,
		Title:      result.Title,
		Artist:     firstArtistName(result.Artists),
		URL:        albumURL,
		Year:       result.Year,
		TrackCount: result.TrackCount,
	}, nil
}

func firstArtistName(artists []catalogArtistRef) string {
	for _, a := range artists {
		if a.Name != "" {
			return a.Name
		}
	}
	return ""
}
