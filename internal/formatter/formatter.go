// package formatter renders playlists, sync jobs, and album downloads for
// CLI output (plain text tables, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jamsync/jamsync/internal/models"
)

// PlaylistTable renders tracked playlists as a plain text table.
func PlaylistTable(playlists []*models.Playlist) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%-10s %-30s %-20s %-8s %-16s\n", "ID", "NAME", "SCHEDULE", "ENABLED", "LAST SYNC")
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%-10s %-30s %-20s %-8s %-16s\n",
			shortID(p.ID), clip(p.Name, 30), Schedule(p),
			strconv.FormatBool(p.Enabled), timestamp(p.LastSyncedAt))
	}

	return buf.String()
}

// JobTable renders sync jobs as a plain text table. playlistNames maps
// playlist IDs to display names; missing entries fall back to the ID.
func JobTable(jobs []*models.SyncJob, playlistNames map[string]string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%-10s %-30s %-18s %6s %6s %6s %-16s\n",
		"ID", "PLAYLIST", "STATUS", "TOTAL", "MATCH", "MISS", "STARTED")
	for _, job := range jobs {
		name := playlistNames[job.PlaylistID]
		if name == "" {
			name = job.PlaylistID
		}
		fmt.Fprintf(&buf, "%-10s %-30s %-18s %6d %6d %6d %-16s\n",
			shortID(job.ID), clip(name, 30), job.Status,
			job.TracksTotal, job.TracksMatched, job.TracksMissing,
			timestamp(job.StartedAt))
	}

	return buf.String()
}

// DownloadTable renders album downloads as a plain text table.
func DownloadTable(downloads []*models.AlbumDownload) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%-10s %-30s %-22s %-13s %8s %-16s\n",
		"ID", "ALBUM", "ARTIST", "STATUS", "PROGRESS", "QUEUED")
	for _, d := range downloads {
		fmt.Fprintf(&buf, "%-10s %-30s %-22s %-13s %7.0f%% %-16s\n",
			shortID(d.ID), clip(d.Title, 30), clip(d.Artist, 22),
			d.Status, d.Progress*100, timestamp(d.QueuedAt))
	}

	return buf.String()
}

// MatchesCSV converts a job's track matches to CSV with columns:
// Position, Title, Artist, Album, Matched, RatingKey, DownloadID
func MatchesCSV(matches []*models.TrackMatch) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Matched", "RatingKey", "DownloadID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range matches {
		record := []string{
			strconv.Itoa(m.Position),
			m.Title,
			m.Artist,
			m.Album,
			strconv.FormatBool(m.Matched),
			m.PlexRatingKey,
			m.DownloadID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToJSON marshals data for CLI output.
func ToJSON(data any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// Schedule describes when a playlist syncs, e.g. "daily @ 06:00" or
// "Monday @ 07:30". Playlists without a schedule sync manually.
func Schedule(p *models.Playlist) string {
	switch {
	case p.IsDaily:
		return fmt.Sprintf("daily @ %s", orDefault(p.SyncTime, "--:--"))
	case p.IsWeekly:
		return fmt.Sprintf("%s @ %s", orDefault(p.SyncDay, "?"), orDefault(p.SyncTime, "--:--"))
	default:
		return "manual"
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func shortID(id string) string {
	return clip(id, 8)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func timestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
