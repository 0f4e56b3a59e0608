// ListenBrainz [Source] implementation
//
// Playlists are served as JSPF. Response shapes based on
// https://listenbrainz.readthedocs.io/en/latest/users/api/playlist.html
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jamsync/jamsync/internal/shared"
)

const defaultListenBrainzBaseURL = "https://api.listenbrainz.org/1"

const jspfPlaylistExtension = "https://musicbrainz.org/doc/jspf#playlist"
const jspfTrackExtension = "https://musicbrainz.org/doc/jspf#track"

type jspfTrack struct {
	Identifier json.RawMessage `json:"identifier"`
	Title      string          `json:"title"`
	Creator    string          `json:"creator"`
	Album      string          `json:"album"`
	Extension  map[string]struct {
		ReleaseIdentifier string `json:"release_identifier"`
	} `json:"extension"`
}

type jspfPlaylist struct {
	Identifier string      `json:"identifier"`
	Title      string      `json:"title"`
	Creator    string      `json:"creator"`
	Date       string      `json:"date"`
	Track      []jspfTrack `json:"track"`
	Extension  map[string]struct {
		Creator    string `json:"creator"`
		CreatedFor string `json:"created_for"`
	} `json:"extension"`
}

// ListenBrainzService implements the Source interface for the ListenBrainz API.
type ListenBrainzService struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewListenBrainzService creates a new ListenBrainz service. The token is
// optional; without it only public playlists are readable.
func NewListenBrainzService(baseURL, token string) *ListenBrainzService {
	if baseURL == "" {
		baseURL = defaultListenBrainzBaseURL
	}

	return &ListenBrainzService{
		baseURL:    baseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (l *ListenBrainzService) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := l.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if l.token != "" {
		req.Header.Set("Authorization", "Token "+l.token)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return shared.ErrPlaylistNotFound
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: listenbrainz API status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: listenbrainz API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// GetPlaylist fetches a full playlist with tracks.
//
// Calls GET /playlist/{mbid}. A 404 surfaces as shared.ErrPlaylistNotFound
// so callers can fail the sync permanently instead of retrying.
func (l *ListenBrainzService) GetPlaylist(ctx context.Context, mbid string) (*SourcePlaylist, error) {
	var response struct {
		Playlist jspfPlaylist `json:"playlist"`
	}

	endpoint := fmt.Sprintf("/playlist/%s", mbid)
	if err := l.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return parseJSPFPlaylist(&response.Playlist, mbid), nil
}

// GetPlaylistsCreatedFor lists playlists generated for the user.
//
// Calls GET /user/{username}/playlists/createdfor.
func (l *ListenBrainzService) GetPlaylistsCreatedFor(ctx context.Context, username string) ([]PlaylistSummary, error) {
	var response struct {
		Playlists []struct {
			Playlist jspfPlaylist `json:"playlist"`
		} `json:"playlists"`
	}

	endpoint := fmt.Sprintf("/user/%s/playlists/createdfor?count=25&offset=0", username)
	if err := l.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	summaries := make([]PlaylistSummary, 0, len(response.Playlists))
	for _, item := range response.Playlists {
		p := item.Playlist
		summary := PlaylistSummary{
			MBID:    mbidFromIdentifier(p.Identifier),
			Name:    p.Title,
			Creator: p.Creator,
		}
		if ext, ok := p.Extension[jspfPlaylistExtension]; ok && ext.Creator != "" {
			summary.Creator = ext.Creator
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func parseJSPFPlaylist(p *jspfPlaylist, fallbackMBID string) *SourcePlaylist {
	playlist := &SourcePlaylist{
		MBID:    fallbackMBID,
		Name:    p.Title,
		Creator: p.Creator,
		Date:    p.Date,
	}

	if mbid := mbidFromIdentifier(p.Identifier); mbid != "" {
		playlist.MBID = mbid
	}

	if ext, ok := p.Extension[jspfPlaylistExtension]; ok {
		if ext.Creator != "" {
			playlist.Creator = ext.Creator
		}
		playlist.CreatedFor = ext.CreatedFor
	}

	for _, t := range p.Track {
		track, ok := parseJSPFTrack(&t)
		if ok {
			playlist.Tracks = append(playlist.Tracks, track)
		}
	}

	return playlist
}

// parseJSPFTrack extracts a track from JSPF. Tracks without a recording
// identifier are skipped. The identifier field is a string or a list of
// strings depending on API version.
func parseJSPFTrack(t *jspfTrack) (Track, bool) {
	identifier := decodeIdentifier(t.Identifier)
	if identifier == "" {
		return Track{}, false
	}

	track := Track{
		RecordingMBID: mbidFromIdentifier(identifier),
		Title:         t.Title,
		Artist:        t.Creator,
		Album:         t.Album,
	}

	if ext, ok := t.Extension[jspfTrackExtension]; ok && ext.ReleaseIdentifier != "" {
		track.ReleaseMBID = mbidFromIdentifier(ext.ReleaseIdentifier)
	}

	return track, true
}

func decodeIdentifier(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	return ""
}

// mbidFromIdentifier extracts the MBID from a MusicBrainz identifier URL
// such as https://musicbrainz.org/recording/<mbid>.
func mbidFromIdentifier(identifier string) string {
	if identifier == "" {
		return ""
	}
	if idx := strings.LastIndex(identifier, "/"); idx >= 0 {
		return identifier[idx+1:]
	}
	return identifier
}

// IsDailyJams reports whether a playlist name identifies a Daily Jams
// playlist.
func IsDailyJams(name string) bool {
	return strings.Contains(name, "Daily Jams") || strings.Contains(strings.ToLower(name), "daily-jams")
}

// IsWeeklyJams reports whether a playlist name identifies a Weekly Jams
// playlist.
func IsWeeklyJams(name string) bool {
	return strings.Contains(name, "Weekly Jams") || strings.Contains(strings.ToLower(name), "weekly-jams")
}

// IsWeeklyExploration reports whether a playlist name identifies a Weekly
// Exploration playlist.
func IsWeeklyExploration(name string) bool {
	return strings.Contains(name, "Weekly Exploration") || strings.Contains(strings.ToLower(name), "weekly-exploration")
}
