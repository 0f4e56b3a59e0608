package tasks

import (
	"fmt"

	"github.com/jamsync/jamsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	MatchTracks
	ResolveAlbums
	QueueDownloads
	AwaitDownloads
	BuildPlaylist
	Finished
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case MatchTracks:
		return "match_tracks"
	case ResolveAlbums:
		return "resolve_albums"
	case QueueDownloads:
		return "queue_downloads"
	case AwaitDownloads:
		return "await_downloads"
	case BuildPlaylist:
		return "build_playlist"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking. A nil or full channel
// drops the update; progress reporting never stalls the sync itself.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist (%s)...", name),
	}
}

func fetchedPlaylistUpdate(name string, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", name, trackCount),
	}
}

func matchTrackUpdate(step, total int, track *models.TrackMatch) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Artist, track.Title),
		Data:    track,
	}
}

func resolveAlbumUpdate(step, total int, artist, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving album for: %s - %s", step, total, artist, title),
	}
}

func awaitDownloadsUpdate(missing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AwaitDownloads,
		Step:    0,
		Total:   missing,
		Message: fmt.Sprintf("Waiting on downloads for %d missing tracks...", missing),
	}
}

func buildPlaylistUpdate(name string, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildPlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %s (%d tracks)...", name, trackCount),
	}
}

func finishedUpdate(job *models.SyncJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d/%d matched", job.TracksMatched, job.TracksTotal),
		Data:    job,
	}
}
