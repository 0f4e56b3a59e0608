// Package services defines the collaborator interfaces for the sync
// pipeline and implements them as HTTP clients.
//
// # Collaborators
//
// [Source] is the playlist provider (ListenBrainz). [Library] is the
// media server holding the local collection (Plex). [Downloader] is the
// asynchronous download-job API that fills library gaps. [Catalog] is
// the music catalog proxy used to resolve album URLs for missing tracks.
//
// # Implementations
//
// [ListenBrainzService] speaks the public ListenBrainz API, parsing
// playlists from JSPF. Authentication is an optional static token sent
// as an Authorization header.
//
// [PlexService] speaks the Plex Media Server HTTP API with a static
// X-Plex-Token. It resolves the configured music library section lazily
// and exposes the search primitives the matcher builds on.
//
// [DownloaderService] wraps the download queue API. The queue is
// capacity-limited; a rejected submission surfaces as
// [shared.ErrQueueFull] so callers can stop submitting instead of
// retrying.
//
// [CatalogService] communicates with a ytmusicapi proxy for album,
// song, and artist search.
//
// # Error Handling
//
// Clients use typed errors from the shared package:
//   - [shared.ErrPlaylistNotFound] : playlist MBID not found at source
//   - [shared.ErrServiceUnavailable] : transport failure or 5xx
//   - [shared.ErrQueueFull] : downloader rejected submission (409)
//   - [shared.ErrTrackNotFound] : rating key no longer in the library
package services
