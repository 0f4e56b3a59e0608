package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/shared"
)

// DownloadRepository handles persistence for album download records.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

const downloadColumns = `id, album_id, album_url, title, artist, remote_job_id, status,
	progress, error_message, queued_at, completed_at, created_at`

// Create inserts a new download record. The album ID carries a UNIQUE
// constraint, so callers dedup via [DownloadRepository.GetByAlbumID] first.
func (r *DownloadRepository) Create(download *models.AlbumDownload) error {
	download.ID = shared.GenerateID()
	if download.Status == "" {
		download.Status = models.DownloadPending
	}
	download.CreatedAt = time.Now().UTC()

	if err := download.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO album_downloads (id, album_id, album_url, title, artist, remote_job_id, status, progress, error_message, queued_at, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		download.ID,
		download.AlbumID,
		download.AlbumURL,
		download.Title,
		download.Artist,
		nullString(download.RemoteJobID),
		string(download.Status),
		download.Progress,
		nullString(download.ErrorMessage),
		nullTime(download.QueuedAt),
		nullTime(download.CompletedAt),
		download.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert album download: %w", err)
	}

	return nil
}

// Get retrieves a download by ID.
func (r *DownloadRepository) Get(id string) (*models.AlbumDownload, error) {
	query := fmt.Sprintf("SELECT %s FROM album_downloads WHERE id = ?", downloadColumns)

	download, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("album download not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album download: %w", err)
	}
	return download, nil
}

// GetByAlbumID retrieves a download by external album identifier, or nil when
// the album has never been requested.
func (r *DownloadRepository) GetByAlbumID(albumID string) (*models.AlbumDownload, error) {
	query := fmt.Sprintf("SELECT %s FROM album_downloads WHERE album_id = ?", downloadColumns)

	download, err := r.scan(r.db.QueryRow(query, albumID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan album download: %w", err)
	}
	return download, nil
}

// Update persists a download's mutable fields (remote job ID, status,
// progress, timestamps).
func (r *DownloadRepository) Update(download *models.AlbumDownload) error {
	if err := download.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE album_downloads
		SET remote_job_id = ?, status = ?, progress = ?, error_message = ?, queued_at = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullString(download.RemoteJobID),
		string(download.Status),
		download.Progress,
		nullString(download.ErrorMessage),
		nullTime(download.QueuedAt),
		nullTime(download.CompletedAt),
		download.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update album download: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("album download not found: %s", download.ID)
	}

	return nil
}

// ListPending retrieves downloads waiting for admission, oldest first so
// starvation cannot occur.
func (r *DownloadRepository) ListPending() ([]*models.AlbumDownload, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM album_downloads WHERE status = ? ORDER BY created_at ASC",
		downloadColumns,
	)
	return r.list(query, string(models.DownloadPending))
}

// ListActive retrieves downloads that have been submitted and are not yet
// terminal.
func (r *DownloadRepository) ListActive() ([]*models.AlbumDownload, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM album_downloads WHERE status IN (?, ?) ORDER BY created_at ASC",
		downloadColumns,
	)
	return r.list(query, string(models.DownloadQueued), string(models.DownloadDownloading))
}

// List retrieves downloads newest first, optionally filtered by status.
func (r *DownloadRepository) List(status models.DownloadStatus, limit int) ([]*models.AlbumDownload, error) {
	query := fmt.Sprintf("SELECT %s FROM album_downloads", downloadColumns)
	args := []any{}

	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.list(query, args...)
}

func (r *DownloadRepository) list(query string, args ...any) ([]*models.AlbumDownload, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query album downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*models.AlbumDownload
	for rows.Next() {
		download, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album download: %w", err)
		}
		downloads = append(downloads, download)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return downloads, nil
}

type downloadScanner interface {
	Scan(dest ...any) error
}

func (r *DownloadRepository) scan(row downloadScanner) (*models.AlbumDownload, error) {
	var (
		download     models.AlbumDownload
		remoteJobID  sql.NullString
		status       string
		errorMessage sql.NullString
		queuedAt     sql.NullTime
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&download.ID,
		&download.AlbumID,
		&download.AlbumURL,
		&download.Title,
		&download.Artist,
		&remoteJobID,
		&status,
		&download.Progress,
		&errorMessage,
		&queuedAt,
		&completedAt,
		&download.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	download.RemoteJobID = remoteJobID.String
	download.Status = models.DownloadStatus(status)
	download.ErrorMessage = errorMessage.String
	download.QueuedAt = timePtr(queuedAt)
	download.CompletedAt = timePtr(completedAt)

	return &download, nil
}
