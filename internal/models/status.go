package models

// SyncStatus is the state of a playlist sync job.
type SyncStatus string

const (
	SyncPending          SyncStatus = "pending"
	SyncFetching         SyncStatus = "fetching"
	SyncMatching         SyncStatus = "matching"
	SyncDownloading      SyncStatus = "downloading"
	SyncCreatingPlaylist SyncStatus = "creating_playlist"
	SyncCompleted        SyncStatus = "completed"
	SyncFailed           SyncStatus = "failed"
)

// Terminal reports whether the job can no longer make progress.
func (s SyncStatus) Terminal() bool {
	return s == SyncCompleted || s == SyncFailed
}

// DownloadStatus is the local lifecycle of an album download.
type DownloadStatus string

const (
	DownloadPending     DownloadStatus = "pending"
	DownloadQueued      DownloadStatus = "queued"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadCompleted   DownloadStatus = "completed"
	DownloadFailed      DownloadStatus = "failed"
)

// Terminal reports whether the download has finished, successfully or not.
func (s DownloadStatus) Terminal() bool {
	return s == DownloadCompleted || s == DownloadFailed
}

// Active reports whether the download still occupies local or remote queue
// capacity.
func (s DownloadStatus) Active() bool {
	return s == DownloadPending || s == DownloadQueued || s == DownloadDownloading
}

// RemoteJobStatus is the download queue API's status vocabulary.
type RemoteJobStatus string

const (
	RemotePending      RemoteJobStatus = "pending"
	RemoteFetchingInfo RemoteJobStatus = "fetching_info"
	RemoteDownloading  RemoteJobStatus = "downloading"
	RemoteImporting    RemoteJobStatus = "importing"
	RemoteCompleted    RemoteJobStatus = "completed"
	RemoteFailed       RemoteJobStatus = "failed"
	RemoteCancelled    RemoteJobStatus = "cancelled"
)

// ParseRemoteJobStatus maps a wire status string onto the closed vocabulary.
// Unknown statuses are reported rather than silently coerced so that new
// remote states surface as errors instead of disappearing.
func ParseRemoteJobStatus(s string) (RemoteJobStatus, bool) {
	switch RemoteJobStatus(s) {
	case RemotePending, RemoteFetchingInfo, RemoteDownloading, RemoteImporting,
		RemoteCompleted, RemoteFailed, RemoteCancelled:
		return RemoteJobStatus(s), true
	}
	return "", false
}

// Finished reports whether the remote job reached a terminal state.
func (s RemoteJobStatus) Finished() bool {
	return s == RemoteCompleted || s == RemoteFailed || s == RemoteCancelled
}

// Active reports whether the remote job still counts against queue capacity.
func (s RemoteJobStatus) Active() bool {
	return s == RemotePending || s == RemoteFetchingInfo || s == RemoteDownloading || s == RemoteImporting
}

// remoteToLocal is the authoritative mapping from the remote vocabulary to
// the local download lifecycle.
var remoteToLocal = map[RemoteJobStatus]DownloadStatus{
	RemotePending:      DownloadQueued,
	RemoteFetchingInfo: DownloadDownloading,
	RemoteDownloading:  DownloadDownloading,
	RemoteImporting:    DownloadDownloading,
	RemoteCompleted:    DownloadCompleted,
	RemoteFailed:       DownloadFailed,
	RemoteCancelled:    DownloadFailed,
}

// DownloadStatus translates the remote status into the local vocabulary.
func (s RemoteJobStatus) DownloadStatus() (DownloadStatus, bool) {
	local, ok := remoteToLocal[s]
	return local, ok
}
