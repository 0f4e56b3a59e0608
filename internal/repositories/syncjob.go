package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// SyncJobRepository handles persistence for playlist sync jobs.
type SyncJobRepository struct {
	db *sql.DB
}

// NewSyncJobRepository creates a new SyncJobRepository with the given database connection
func NewSyncJobRepository(db *sql.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

const syncJobColumns = `id, sequence, playlist_id, status, error_message, tracks_total,
	tracks_matched, tracks_missing, plex_playlist_key, started_at, completed_at, created_at`

// Create inserts a new sync job with a generated ID and sequence. Creation is
// rejected with [shared.ErrJobActive] when a non-terminal job already exists
// for the playlist.
func (r *SyncJobRepository) Create(job *models.SyncJob) error {
	active, err := r.ActiveForPlaylist(job.PlaylistID)
	if err != nil {
		return err
	}
	if active != nil {
		return fmt.Errorf("%w: job %s is %s", shared.ErrJobActive, active.ID, active.Status)
	}

	sequence, err := NextSequence(r.db, "sync_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	job.ID = shared.GenerateID()
	job.Sequence = sequence
	if job.Status == "" {
		job.Status = models.SyncPending
	}
	job.CreatedAt = time.Now().UTC()

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_jobs (id, sequence, playlist_id, status, error_message, tracks_total, tracks_matched, tracks_missing, plex_playlist_key, started_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		job.ID,
		job.Sequence,
		job.PlaylistID,
		string(job.Status),
		nullString(job.ErrorMessage),
		job.TracksTotal,
		job.TracksMatched,
		job.TracksMissing,
		nullString(job.PlexPlaylistKey),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync job: %w", err)
	}

	return nil
}

// Get retrieves a sync job by ID.
func (r *SyncJobRepository) Get(id string) (*models.SyncJob, error) {
	query := fmt.Sprintf("SELECT %s FROM sync_jobs WHERE id = ?", syncJobColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// Update persists the job's mutable fields (status, counters, results).
func (r *SyncJobRepository) Update(job *models.SyncJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_jobs
		SET status = ?, error_message = ?, tracks_total = ?, tracks_matched = ?, tracks_missing = ?, plex_playlist_key = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(job.Status),
		nullString(job.ErrorMessage),
		job.TracksTotal,
		job.TracksMatched,
		job.TracksMissing,
		nullString(job.PlexPlaylistKey),
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync job not found: %s", job.ID)
	}

	return nil
}

// Delete removes a sync job. Track matches cascade; album downloads do not.
func (r *SyncJobRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sync_jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync job not found: %s", id)
	}

	return nil
}

// ActiveForPlaylist returns the playlist's non-terminal job, or nil when the
// playlist has no job in flight.
func (r *SyncJobRepository) ActiveForPlaylist(playlistID string) (*models.SyncJob, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sync_jobs
		WHERE playlist_id = ? AND status NOT IN (?, ?)
		ORDER BY created_at DESC
		LIMIT 1
	`, syncJobColumns)

	job, err := r.scan(r.db.QueryRow(query, playlistID, string(models.SyncCompleted), string(models.SyncFailed)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync job: %w", err)
	}
	return job, nil
}

// ListByStatus retrieves all jobs in the given state, oldest first.
func (r *SyncJobRepository) ListByStatus(status models.SyncStatus) ([]*models.SyncJob, error) {
	query := fmt.Sprintf("SELECT %s FROM sync_jobs WHERE status = ? ORDER BY created_at ASC", syncJobColumns)
	return r.list(query, string(status))
}

// List retrieves jobs newest first, optionally filtered by playlist.
func (r *SyncJobRepository) List(playlistID string, limit int) ([]*models.SyncJob, error) {
	query := fmt.Sprintf("SELECT %s FROM sync_jobs", syncJobColumns)
	args := []any{}

	if playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.list(query, args...)
}

// CountActive returns the number of non-terminal jobs across all playlists.
func (r *SyncJobRepository) CountActive() (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM sync_jobs WHERE status NOT IN (?, ?)",
		string(models.SyncCompleted), string(models.SyncFailed),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sync jobs: %w", err)
	}
	return count, nil
}

func (r *SyncJobRepository) list(query string, args ...any) ([]*models.SyncJob, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.SyncJob
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

type syncJobScanner interface {
	Scan(dest ...any) error
}

func (r *SyncJobRepository) scan(row syncJobScanner) (*models.SyncJob, error) {
	var (
		job          models.SyncJob
		status       string
		errorMessage sql.NullString
		playlistKey  sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&job.Sequence,
		&job.PlaylistID,
		&status,
		&errorMessage,
		&job.TracksTotal,
		&job.TracksMatched,
		&job.TracksMissing,
		&playlistKey,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = models.SyncStatus(status)
	job.ErrorMessage = errorMessage.String
	job.PlexPlaylistKey = playlistKey.String
	job.StartedAt = timePtr(startedAt)
	job.CompletedAt = timePtr(completedAt)

	return &job, nil
}

func (r *SyncJobRepository) scanOne(row *sql.Row) (*models.SyncJob, error) {
	job, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync job: %w", err)
	}
	return job, nil
}
