package models

import (
	"fmt"
	"time"
)

// Playlist is a tracked ListenBrainz playlist. Discovery creates it, schedule
// edits and sync completion mutate it; it is never deleted automatically.
type Playlist struct {
	ID           string
	Sequence     int
	MBID         string
	Name         string
	Creator      string
	CreatedFor   string
	IsDaily      bool
	IsWeekly     bool
	Enabled      bool
	SyncDay      string // day of week, weekly playlists only
	SyncTime     string // HH:MM
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the playlist's required fields.
func (p *Playlist) Validate() error {
	if p.MBID == "" {
		return fmt.Errorf("playlist mbid is required")
	}
	if p.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// SyncJob is one attempt to sync a playlist. At most one non-terminal job may
// exist per playlist; the state machine owns all writes.
type SyncJob struct {
	ID              string
	Sequence        int
	PlaylistID      string
	Status          SyncStatus
	ErrorMessage    string
	TracksTotal     int
	TracksMatched   int
	TracksMissing   int
	PlexPlaylistKey string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

// Validate checks the job's required fields.
func (j *SyncJob) Validate() error {
	if j.PlaylistID == "" {
		return fmt.Errorf("sync job playlist id is required")
	}
	if j.Status == "" {
		return fmt.Errorf("sync job status is required")
	}
	return nil
}

// TrackMatch records the match outcome for one track position within a job.
// Rows cascade with their job; the download reference is weak.
type TrackMatch struct {
	ID            string
	SyncJobID     string
	Position      int
	RecordingMBID string
	Title         string
	Artist        string
	Album         string
	ReleaseMBID   string
	PlexRatingKey string
	Matched       bool
	DownloadID    string
	CreatedAt     time.Time
}

// Validate checks the track match's required fields.
func (m *TrackMatch) Validate() error {
	if m.SyncJobID == "" {
		return fmt.Errorf("track match sync job id is required")
	}
	if m.RecordingMBID == "" {
		return fmt.Errorf("track match recording mbid is required")
	}
	if m.Position < 0 {
		return fmt.Errorf("track match position must be non-negative")
	}
	return nil
}

// AlbumDownload is a deduplicated album-level download unit, keyed by the
// external album identifier so multiple missing tracks share one download.
type AlbumDownload struct {
	ID           string
	AlbumID      string
	AlbumURL     string
	Title        string
	Artist       string
	RemoteJobID  string
	Status       DownloadStatus
	Progress     float64
	ErrorMessage string
	QueuedAt     *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// Validate checks the download's required fields.
func (d *AlbumDownload) Validate() error {
	if d.AlbumID == "" {
		return fmt.Errorf("album download album id is required")
	}
	if d.AlbumURL == "" {
		return fmt.Errorf("album download url is required")
	}
	return nil
}

// MatchCacheEntry maps a recording MBID to its last-known Plex rating key.
// Entries are hints: a cached key must be re-validated against the live
// library before being trusted.
type MatchCacheEntry struct {
	ID            string
	RecordingMBID string
	PlexRatingKey string
	Title         string
	Artist        string
	Album         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the cache entry's required fields.
func (e *MatchCacheEntry) Validate() error {
	if e.RecordingMBID == "" {
		return fmt.Errorf("cache entry recording mbid is required")
	}
	if e.PlexRatingKey == "" {
		return fmt.Errorf("cache entry rating key is required")
	}
	return nil
}
