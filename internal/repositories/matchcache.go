package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// MatchCacheRepository handles persistence for the recording-to-library
// match cache.
type MatchCacheRepository struct {
	db *sql.DB
}

// NewMatchCacheRepository creates a new MatchCacheRepository with the given database connection
func NewMatchCacheRepository(db *sql.DB) *MatchCacheRepository {
	return &MatchCacheRepository{db: db}
}

const matchCacheColumns = `id, recording_mbid, plex_rating_key, title, artist, album, created_at, updated_at`

// Upsert inserts or refreshes the cache entry for a recording MBID.
func (r *MatchCacheRepository) Upsert(entry *models.MatchCacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO match_cache (id, recording_mbid, plex_rating_key, title, artist, album, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(recording_mbid) DO UPDATE SET
			plex_rating_key = excluded.plex_rating_key,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		entry.RecordingMBID,
		entry.PlexRatingKey,
		entry.Title,
		entry.Artist,
		nullString(entry.Album),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

// GetByMBID retrieves the cached match for a recording MBID, or nil on a
// cache miss.
func (r *MatchCacheRepository) GetByMBID(mbid string) (*models.MatchCacheEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM match_cache WHERE recording_mbid = ?", matchCacheColumns)

	var (
		entry models.MatchCacheEntry
		album sql.NullString
	)

	err := r.db.QueryRow(query, mbid).Scan(
		&entry.ID,
		&entry.RecordingMBID,
		&entry.PlexRatingKey,
		&entry.Title,
		&entry.Artist,
		&album,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cache entry: %w", err)
	}

	entry.Album = album.String
	return &entry, nil
}

// Delete removes a cache entry, typically after validation against the live
// library found the cached rating key stale.
func (r *MatchCacheRepository) Delete(mbid string) error {
	_, err := r.db.Exec("DELETE FROM match_cache WHERE recording_mbid = ?", mbid)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached matches.
func (r *MatchCacheRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM match_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
