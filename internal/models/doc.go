// Package models defines the domain entities for the playlist sync service.
//
// The package contains two categories of types:
//
// 1. Persistent entities backed by SQLite rows:
//   - [Playlist] : A tracked ListenBrainz playlist with its sync schedule
//   - [SyncJob] : One attempt to sync a playlist, owned by the state machine
//   - [TrackMatch] : Per-position match outcome for a job's tracks
//   - [AlbumDownload] : A deduplicated album-level download unit
//   - [MatchCacheEntry] : Cached recording MBID -> Plex rating key mapping
//
// 2. Closed status vocabularies:
//   - [SyncStatus] : The sync job state machine states
//   - [DownloadStatus] : Local album download lifecycle
//   - [RemoteJobStatus] : The download queue API's status vocabulary, with
//     an explicit mapping into [DownloadStatus]
package models
