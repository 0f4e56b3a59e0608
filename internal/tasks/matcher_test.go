package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/services"
)

func TestMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips live searches", func(t *testing.T) {
		h := newHarness(t)

		entry := &models.MatchCacheEntry{RecordingMBID: "rec-1", PlexRatingKey: "101", Title: "Song One", Artist: "Artist One"}
		if err := h.cache.Upsert(entry); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}
		h.library.GetTrackFunc = func(_ context.Context, ratingKey string) (*services.LibraryTrack, error) {
			return &services.LibraryTrack{RatingKey: ratingKey, Title: "Song One"}, nil
		}

		result, err := h.matcher.Match(ctx, services.Track{RecordingMBID: "rec-1", Title: "Song One", Artist: "Artist One"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.Found || !result.CacheHit {
			t.Fatalf("expected cache hit, got %+v", result)
		}
		if result.RatingKey != "101" {
			t.Errorf("expected rating key 101, got %s", result.RatingKey)
		}
		if h.library.SearchCalls != 0 {
			t.Errorf("expected no live searches on cache hit, got %d", h.library.SearchCalls)
		}
	})

	t.Run("stale cache entry is evicted", func(t *testing.T) {
		h := newHarness(t)

		entry := &models.MatchCacheEntry{RecordingMBID: "rec-1", PlexRatingKey: "101", Title: "Song One", Artist: "Artist One"}
		if err := h.cache.Upsert(entry); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}
		// Track no longer in the library; the default GetTrack errors.
		libraryWithTracks(h.library, map[string]services.LibraryTrack{
			"Song One": {RatingKey: "999", Title: "Song One", Artist: "Artist One"},
		})

		result, err := h.matcher.Match(ctx, services.Track{RecordingMBID: "rec-1", Title: "Song One", Artist: "Artist One"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.Found || result.CacheHit {
			t.Fatalf("expected fresh match after eviction, got %+v", result)
		}
		if result.RatingKey != "999" {
			t.Errorf("expected re-matched rating key 999, got %s", result.RatingKey)
		}

		refreshed, err := h.cache.GetByMBID("rec-1")
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if refreshed == nil || refreshed.PlexRatingKey != "999" {
			t.Error("expected cache refreshed with new rating key")
		}
	})

	t.Run("title search filters artist and album", func(t *testing.T) {
		h := newHarness(t)

		h.library.SearchTracksFunc = func(_ context.Context, title string) ([]services.LibraryTrack, error) {
			return []services.LibraryTrack{
				{RatingKey: "1", Title: "Song One", Artist: "Wrong Artist", Album: "First Album"},
				{RatingKey: "2", Title: "Song One", Artist: "Artist One", Album: "Wrong Album"},
				{RatingKey: "3", Title: "Song One", Artist: "Artist One", Album: "First Album"},
			}, nil
		}

		result, err := h.matcher.Match(ctx, services.Track{
			RecordingMBID: "rec-1", Title: "Song One", Artist: "Artist One", Album: "First Album",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.Found || result.RatingKey != "3" {
			t.Fatalf("expected rating key 3, got %+v", result)
		}
	})

	t.Run("normalization tolerates catalogue differences", func(t *testing.T) {
		h := newHarness(t)

		libraryWithTracks(h.library, map[string]services.LibraryTrack{
			"Song Two: Reprise": {RatingKey: "7", Title: "Song Two - Reprise", Artist: "The National Anthem Band"},
		})

		result, err := h.matcher.Match(ctx, services.Track{
			RecordingMBID: "rec-7", Title: "Song Two: Reprise", Artist: "National Anthem Band",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Found {
			t.Fatal("expected punctuation and leading-the differences to match")
		}
	})

	t.Run("artist-first fallback", func(t *testing.T) {
		h := newHarness(t)

		h.library.SearchArtistsFunc = func(_ context.Context, name string) ([]services.LibraryArtist, error) {
			return []services.LibraryArtist{{RatingKey: "a1", Name: "Artist One"}}, nil
		}
		h.library.ArtistAlbumsFunc = func(_ context.Context, artistKey string) ([]services.LibraryAlbum, error) {
			return []services.LibraryAlbum{{RatingKey: "al1", Title: "First Album", Artist: "Artist One"}}, nil
		}
		h.library.AlbumTracksFunc = func(_ context.Context, albumKey string) ([]services.LibraryTrack, error) {
			return []services.LibraryTrack{{RatingKey: "11", Title: "Song One (Remastered)", Artist: "Artist One"}}, nil
		}

		result, err := h.matcher.Match(ctx, services.Track{RecordingMBID: "rec-1", Title: "Song One", Artist: "Artist One"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.Found || result.RatingKey != "11" {
			t.Fatalf("expected artist browse to find the track, got %+v", result)
		}
	})

	t.Run("miss is not an error", func(t *testing.T) {
		h := newHarness(t)

		result, err := h.matcher.Match(ctx, services.Track{RecordingMBID: "rec-x", Title: "Unknown", Artist: "Nobody"})
		if err != nil {
			t.Fatalf("expected no error on miss, got %v", err)
		}
		if result.Found {
			t.Fatal("expected no match")
		}

		count, err := h.cache.Count()
		if err != nil {
			t.Fatalf("failed to count cache: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty cache after miss, got %d entries", count)
		}
	})

	t.Run("search errors degrade to a miss", func(t *testing.T) {
		h := newHarness(t)

		h.library.SearchTracksFunc = func(_ context.Context, title string) ([]services.LibraryTrack, error) {
			return nil, errors.New("library unreachable")
		}

		result, err := h.matcher.Match(ctx, services.Track{RecordingMBID: "rec-1", Title: "Song One", Artist: "Artist One"})
		if err != nil {
			t.Fatalf("expected search errors to be swallowed, got %v", err)
		}
		if result.Found {
			t.Fatal("expected no match when every strategy errors")
		}
	})

	t.Run("MatchByAlbum", func(t *testing.T) {
		h := newHarness(t)

		h.library.SearchAlbumsFunc = func(_ context.Context, title string) ([]services.LibraryAlbum, error) {
			return []services.LibraryAlbum{{RatingKey: "al3", Title: "Third Album", Artist: "Artist Three"}}, nil
		}
		h.library.AlbumTracksFunc = func(_ context.Context, albumKey string) ([]services.LibraryTrack, error) {
			if albumKey != "al3" {
				t.Errorf("expected album key al3, got %s", albumKey)
			}
			return []services.LibraryTrack{
				{RatingKey: "301", Title: "Other Song"},
				{RatingKey: "303", Title: "Song Three"},
			}, nil
		}

		result, err := h.matcher.MatchByAlbum(ctx, "Third Album", "Song Three", "Artist Three")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Found || result.RatingKey != "303" {
			t.Fatalf("expected rating key 303, got %+v", result)
		}
	})
}
