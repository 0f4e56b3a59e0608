package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
)

// Resolver maps a missing track to the catalog album that contains it, so
// the whole album can be handed to the download queue as one unit.
//
// Resolution tries three strategies in order: album search (when the source
// names an album), song search, and artist discography browse. Every
// candidate is confirmed with a detail fetch before acceptance; the detail
// fetch is also what yields the downloadable URL.
type Resolver struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewResolver creates a Resolver over the given catalog.
func NewResolver(catalog services.Catalog, logger *log.Logger) *Resolver {
	return &Resolver{catalog: catalog, logger: logger}
}

// Resolve finds the album for a missing track. Returns nil when no strategy
// produces a confirmed album; that is a per-track outcome, not an error.
func (r *Resolver) Resolve(ctx context.Context, track services.Track) (*services.AlbumInfo, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if track.Album != "" {
		if album := r.byAlbumSearch(ctx, track); album != nil {
			return album, nil
		}
	}
	if album := r.bySongSearch(ctx, track); album != nil {
		return album, nil
	}
	if album := r.byArtistBrowse(ctx, track); album != nil {
		return album, nil
	}

	return nil, nil
}

// byAlbumSearch searches albums with "artist album" and takes the first
// candidate whose artist matches.
func (r *Resolver) byAlbumSearch(ctx context.Context, track services.Track) *services.AlbumInfo {
	query := fmt.Sprintf("%s %s", track.Artist, track.Album)
	results, err := r.catalog.SearchAlbums(ctx, query)
	if err != nil {
		r.logger.Debug("catalog album search failed", "query", query, "error", err)
		return nil
	}

	for _, candidate := range results {
		if !shared.NamesMatch(candidate.Title, track.Album) {
			continue
		}
		if candidate.Artist != "" && !shared.NamesMatch(candidate.Artist, track.Artist) {
			continue
		}
		if album := r.confirm(ctx, candidate.AlbumID); album != nil {
			return album
		}
	}
	return nil
}

// bySongSearch searches songs with "artist title" and follows the album
// reference of the first matching song.
func (r *Resolver) bySongSearch(ctx context.Context, track services.Track) *services.AlbumInfo {
	query := fmt.Sprintf("%s %s", track.Artist, track.Title)
	results, err := r.catalog.SearchSongs(ctx, query)
	if err != nil {
		r.logger.Debug("catalog song search failed", "query", query, "error", err)
		return nil
	}

	for _, song := range results {
		if song.AlbumID == "" {
			continue
		}
		if !shared.NamesMatch(song.Title, track.Title) {
			continue
		}
		if len(song.Artists) > 0 && !shared.AnyNameMatches(song.Artists, track.Artist) {
			continue
		}
		if album := r.confirm(ctx, song.AlbumID); album != nil {
			return album
		}
	}
	return nil
}

// byArtistBrowse walks the artist's discography looking for the named album.
// Only useful when the source names an album; a bare title gives the browse
// nothing to compare against.
func (r *Resolver) byArtistBrowse(ctx context.Context, track services.Track) *services.AlbumInfo {
	if track.Album == "" {
		return nil
	}

	artists, err := r.catalog.SearchArtists(ctx, track.Artist)
	if err != nil {
		r.logger.Debug("catalog artist search failed", "artist", track.Artist, "error", err)
		return nil
	}

	for _, artist := range artists {
		if !shared.NamesMatch(artist.Name, track.Artist) {
			continue
		}

		albums, err := r.catalog.GetArtistAlbums(ctx, artist.BrowseID)
		if err != nil {
			r.logger.Debug("catalog discography fetch failed", "artist", artist.Name, "error", err)
			continue
		}

		for _, ref := range albums {
			if !shared.NamesMatch(ref.Title, track.Album) {
				continue
			}
			if album := r.confirm(ctx, ref.BrowseID); album != nil {
				return album
			}
		}
	}
	return nil
}

// confirm fetches album details; a candidate without a fetchable detail
// record (or without a URL) is rejected.
func (r *Resolver) confirm(ctx context.Context, albumID string) *services.AlbumInfo {
	album, err := r.catalog.GetAlbum(ctx, albumID)
	if err != nil {
		r.logger.Debug("catalog album detail fetch failed", "album_id", albumID, "error", err)
		return nil
	}
	if album.URL == "" {
		return nil
	}
	return album
}
