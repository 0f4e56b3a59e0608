package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// TrackMatchRepository handles persistence for per-track match results.
type TrackMatchRepository struct {
	db *sql.DB
}

// NewTrackMatchRepository creates a new TrackMatchRepository with the given database connection
func NewTrackMatchRepository(db *sql.DB) *TrackMatchRepository {
	return &TrackMatchRepository{db: db}
}

const trackMatchColumns = `id, sync_job_id, position, recording_mbid, title, artist, album,
	release_mbid, plex_rating_key, matched, download_id, created_at`

// Create inserts a match result. The (job, position) pair is unique, so
// re-running a matching pass over the same job must check
// [TrackMatchRepository.GetByJobAndPosition] first.
func (r *TrackMatchRepository) Create(match *models.TrackMatch) error {
	match.ID = shared.GenerateID()
	match.CreatedAt = time.Now().UTC()

	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO track_matches (id, sync_job_id, position, recording_mbid, title, artist, album, release_mbid, plex_rating_key, matched, download_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		match.ID,
		match.SyncJobID,
		match.Position,
		match.RecordingMBID,
		match.Title,
		match.Artist,
		nullString(match.Album),
		nullString(match.ReleaseMBID),
		nullString(match.PlexRatingKey),
		match.Matched,
		nullString(match.DownloadID),
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert track match: %w", err)
	}

	return nil
}

// Update persists a match's mutable fields (rating key, matched flag,
// download reference).
func (r *TrackMatchRepository) Update(match *models.TrackMatch) error {
	if err := match.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE track_matches
		SET plex_rating_key = ?, matched = ?, download_id = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(match.PlexRatingKey),
		match.Matched,
		nullString(match.DownloadID),
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update track match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("track match not found: %s", match.ID)
	}

	return nil
}

// ListByJob retrieves all match rows for a job in playlist order.
func (r *TrackMatchRepository) ListByJob(jobID string) ([]*models.TrackMatch, error) {
	query := fmt.Sprintf("SELECT %s FROM track_matches WHERE sync_job_id = ? ORDER BY position ASC", trackMatchColumns)

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.TrackMatch
	for rows.Next() {
		match, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

// GetByJobAndPosition returns the match at a given playlist position, or nil
// when the position has not been processed yet.
func (r *TrackMatchRepository) GetByJobAndPosition(jobID string, position int) (*models.TrackMatch, error) {
	query := fmt.Sprintf("SELECT %s FROM track_matches WHERE sync_job_id = ? AND position = ?", trackMatchColumns)

	match, err := r.scan(r.db.QueryRow(query, jobID, position))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track match: %w", err)
	}
	return match, nil
}

// ListByDownload retrieves the matches waiting on a given album download.
func (r *TrackMatchRepository) ListByDownload(downloadID string) ([]*models.TrackMatch, error) {
	query := fmt.Sprintf("SELECT %s FROM track_matches WHERE download_id = ? ORDER BY position ASC", trackMatchColumns)

	rows, err := r.db.Query(query, downloadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.TrackMatch
	for rows.Next() {
		match, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track match: %w", err)
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return matches, nil
}

type trackMatchScanner interface {
	Scan(dest ...any) error
}

func (r *TrackMatchRepository) scan(row trackMatchScanner) (*models.TrackMatch, error) {
	var (
		match       models.TrackMatch
		album       sql.NullString
		releaseMBID sql.NullString
		ratingKey   sql.NullString
		downloadID  sql.NullString
	)

	err := row.Scan(
		&match.ID,
		&match.SyncJobID,
		&match.Position,
		&match.RecordingMBID,
		&match.Title,
		&match.Artist,
		&album,
		&releaseMBID,
		&ratingKey,
		&match.Matched,
		&downloadID,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	match.Album = album.String
	match.ReleaseMBID = releaseMBID.String
	match.PlexRatingKey = ratingKey.String
	match.DownloadID = downloadID.String

	return &match, nil
}
