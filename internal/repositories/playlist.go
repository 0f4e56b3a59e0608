package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// PlaylistRepository handles persistence for tracked playlists.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = `id, sequence, mbid, name, creator, created_for, is_daily, is_weekly,
	enabled, sync_day, sync_time, last_synced_at, created_at, updated_at`

// Create inserts a new playlist with a generated ID and sequence.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	playlist.ID = shared.GenerateID()
	playlist.Sequence = sequence

	now := time.Now().UTC()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, mbid, name, creator, created_for, is_daily, is_weekly, enabled, sync_day, sync_time, last_synced_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		playlist.ID,
		playlist.Sequence,
		playlist.MBID,
		playlist.Name,
		playlist.Creator,
		nullString(playlist.CreatedFor),
		playlist.IsDaily,
		playlist.IsWeekly,
		playlist.Enabled,
		nullString(playlist.SyncDay),
		nullString(playlist.SyncTime),
		nullTime(playlist.LastSyncedAt),
		playlist.CreatedAt,
		playlist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := fmt.Sprintf("SELECT %s FROM playlists WHERE id = ?", playlistColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByMBID retrieves a playlist by its external MBID. Returns nil without
// error when the MBID is not tracked.
func (r *PlaylistRepository) GetByMBID(mbid string) (*models.Playlist, error) {
	query := fmt.Sprintf("SELECT %s FROM playlists WHERE mbid = ?", playlistColumns)
	playlist, err := r.scan(r.db.QueryRow(query, mbid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}

// Update modifies an existing playlist's mutable fields.
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	playlist.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE playlists
		SET name = ?, creator = ?, enabled = ?, sync_day = ?, sync_time = ?, last_synced_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		playlist.Name,
		playlist.Creator,
		playlist.Enabled,
		nullString(playlist.SyncDay),
		nullString(playlist.SyncTime),
		nullTime(playlist.LastSyncedAt),
		playlist.UpdatedAt,
		playlist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found: %s", playlist.ID)
	}

	return nil
}

// Delete removes a playlist. Sync jobs and their track matches cascade.
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist not found: %s", id)
	}

	return nil
}

// List retrieves playlists, newest first. When enabledOnly is true only
// playlists the user left enabled are returned.
func (r *PlaylistRepository) List(enabledOnly bool) ([]*models.Playlist, error) {
	query := fmt.Sprintf("SELECT %s FROM playlists", playlistColumns)
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

type playlistScanner interface {
	Scan(dest ...any) error
}

func (r *PlaylistRepository) scan(row playlistScanner) (*models.Playlist, error) {
	var (
		playlist     models.Playlist
		createdFor   sql.NullString
		syncDay      sql.NullString
		syncTime     sql.NullString
		lastSyncedAt sql.NullTime
	)

	err := row.Scan(
		&playlist.ID,
		&playlist.Sequence,
		&playlist.MBID,
		&playlist.Name,
		&playlist.Creator,
		&createdFor,
		&playlist.IsDaily,
		&playlist.IsWeekly,
		&playlist.Enabled,
		&syncDay,
		&syncTime,
		&lastSyncedAt,
		&playlist.CreatedAt,
		&playlist.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	playlist.CreatedFor = createdFor.String
	playlist.SyncDay = syncDay.String
	playlist.SyncTime = syncTime.String
	playlist.LastSyncedAt = timePtr(lastSyncedAt)

	return &playlist, nil
}

func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	playlist, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("playlist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}

func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.Playlist, error) {
	playlist, err := r.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return playlist, nil
}
