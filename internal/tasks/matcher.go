package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

// MatchResult is the outcome of matching one source track against the library.
type MatchResult struct {
	Found     bool
	RatingKey string
	CacheHit  bool // satisfied from the match cache without live searches
}

// Matcher finds source tracks in the music library.
//
// Matching consults the persistent match cache first (re-validating cached
// rating keys against the live library), then falls through a series of
// live search strategies: title search filtered by artist, artist-first
// browse, album-first browse, and a combined free-text search. Every fresh
// hit refreshes the cache.
type Matcher struct {
	cache   *repositories.MatchCacheRepository
	library services.Library
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewMatcher creates a Matcher. searchRate bounds live library searches in
// requests per second; zero or negative disables throttling.
func NewMatcher(cache *repositories.MatchCacheRepository, library services.Library, searchRate float64, logger *log.Logger) *Matcher {
	var limiter *rate.Limiter
	if searchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(searchRate), 1)
	}
	return &Matcher{cache: cache, library: library, limiter: limiter, logger: logger}
}

// Match finds a source track in the library. A miss is not an error; the
// returned error reports only cache-storage or context failures.
func (m *Matcher) Match(ctx context.Context, track services.Track) (MatchResult, error) {
	if cached := m.fromCache(ctx, track); cached != nil {
		return MatchResult{Found: true, RatingKey: *cached, CacheHit: true}, nil
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return MatchResult{}, err
		}
	}

	key := m.byTitle(ctx, track)
	if key == "" {
		key = m.byArtist(ctx, track)
	}
	if key == "" && track.Album != "" {
		key = m.byAlbum(ctx, track.Album, track.Title, track.Artist)
	}
	if key == "" {
		key = m.byFreeText(ctx, track)
	}

	if key == "" {
		return MatchResult{}, nil
	}

	if err := m.remember(track, key); err != nil {
		return MatchResult{}, err
	}
	return MatchResult{Found: true, RatingKey: key}, nil
}

// MatchByAlbum searches a known album for a track by title. Used after a
// download completes, when the album the track lives on is no longer a guess.
func (m *Matcher) MatchByAlbum(ctx context.Context, album, title, artist string) (MatchResult, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return MatchResult{}, err
		}
	}

	key := m.byAlbum(ctx, album, title, artist)
	if key == "" {
		return MatchResult{}, nil
	}
	return MatchResult{Found: true, RatingKey: key}, nil
}

// Remember stores a confirmed match in the cache for future syncs.
func (m *Matcher) Remember(track services.Track, ratingKey string) error {
	return m.remember(track, ratingKey)
}

// fromCache returns a still-valid cached rating key, or nil. Stale entries
// (track no longer in the library) are evicted.
func (m *Matcher) fromCache(ctx context.Context, track services.Track) *string {
	if track.RecordingMBID == "" {
		return nil
	}

	entry, err := m.cache.GetByMBID(track.RecordingMBID)
	if err != nil {
		m.logger.Warn("match cache lookup failed", "mbid", track.RecordingMBID, "error", err)
		return nil
	}
	if entry == nil {
		return nil
	}

	if _, err := m.library.GetTrack(ctx, entry.PlexRatingKey); err != nil {
		m.logger.Debug("evicting stale cache entry", "mbid", track.RecordingMBID, "rating_key", entry.PlexRatingKey)
		if err := m.cache.Delete(track.RecordingMBID); err != nil {
			m.logger.Warn("failed to evict cache entry", "mbid", track.RecordingMBID, "error", err)
		}
		return nil
	}

	return &entry.PlexRatingKey
}

// byTitle searches tracks by title and filters by artist, and by album when
// the source provides one.
func (m *Matcher) byTitle(ctx context.Context, track services.Track) string {
	results, err := m.library.SearchTracks(ctx, track.Title)
	if err != nil {
		m.logger.Debug("title search failed", "title", track.Title, "error", err)
		return ""
	}

	for _, result := range results {
		if !shared.NamesMatch(result.Title, track.Title) {
			continue
		}
		if !shared.NamesMatch(result.Artist, track.Artist) {
			continue
		}
		if track.Album != "" && !shared.NamesMatch(result.Album, track.Album) {
			continue
		}
		return result.RatingKey
	}
	return ""
}

// byArtist browses the artist's albums for the track. Catches titles the
// library spells differently enough that the title search misses.
func (m *Matcher) byArtist(ctx context.Context, track services.Track) string {
	artists, err := m.library.SearchArtists(ctx, track.Artist)
	if err != nil {
		m.logger.Debug("artist search failed", "artist", track.Artist, "error", err)
		return ""
	}

	for _, artist := range artists {
		if !shared.NamesMatch(artist.Name, track.Artist) {
			continue
		}

		albums, err := m.library.ArtistAlbums(ctx, artist.RatingKey)
		if err != nil {
			m.logger.Debug("artist albums fetch failed", "artist", artist.Name, "error", err)
			continue
		}

		for _, album := range albums {
			if track.Album != "" && !shared.NamesMatch(album.Title, track.Album) {
				continue
			}
			if key := m.trackInAlbum(ctx, album.RatingKey, track.Title); key != "" {
				return key
			}
		}
	}
	return ""
}

// byAlbum searches albums by title, filters by artist, and scans album
// tracks for the title.
func (m *Matcher) byAlbum(ctx context.Context, album, title, artist string) string {
	albums, err := m.library.SearchAlbums(ctx, album)
	if err != nil {
		m.logger.Debug("album search failed", "album", album, "error", err)
		return ""
	}

	for _, candidate := range albums {
		if !shared.NamesMatch(candidate.Title, album) {
			continue
		}
		if artist != "" && candidate.Artist != "" && !shared.NamesMatch(candidate.Artist, artist) {
			continue
		}
		if key := m.trackInAlbum(ctx, candidate.RatingKey, title); key != "" {
			return key
		}
	}
	return ""
}

// byFreeText runs a combined "artist title" query as the last resort.
func (m *Matcher) byFreeText(ctx context.Context, track services.Track) string {
	results, err := m.library.SearchTracks(ctx, fmt.Sprintf("%s %s", track.Artist, track.Title))
	if err != nil {
		m.logger.Debug("free-text search failed", "title", track.Title, "error", err)
		return ""
	}

	for _, result := range results {
		if shared.NamesMatch(result.Title, track.Title) && shared.NamesMatch(result.Artist, track.Artist) {
			return result.RatingKey
		}
	}
	return ""
}

func (m *Matcher) trackInAlbum(ctx context.Context, albumKey, title string) string {
	tracks, err := m.library.AlbumTracks(ctx, albumKey)
	if err != nil {
		m.logger.Debug("album tracks fetch failed", "album_key", albumKey, "error", err)
		return ""
	}

	for _, candidate := range tracks {
		if shared.NamesMatch(candidate.Title, title) {
			return candidate.RatingKey
		}
	}
	return ""
}

func (m *Matcher) remember(track services.Track, ratingKey string) error {
	if track.RecordingMBID == "" {
		return nil
	}

	entry := &models.MatchCacheEntry{
		RecordingMBID: track.RecordingMBID,
		PlexRatingKey: ratingKey,
		Title:         track.Title,
		Artist:        track.Artist,
		Album:         track.Album,
	}
	if err := m.cache.Upsert(entry); err != nil {
		return fmt.Errorf("failed to cache match for %s: %w", track.RecordingMBID, err)
	}
	return nil
}
