// package tasks implements the playlist sync orchestration.
//
// The core abstraction is SyncEngine, which drives a sync job through its
// lifecycle: fetch the source playlist, match tracks against the library,
// queue album downloads for misses, and materialize the playlist. Jobs with
// outstanding downloads suspend rather than block; the Reconciler polls the
// download queue and resumes them once every referenced download reaches a
// terminal state.
//
// Supporting pieces: Matcher (library track matching with a persistent
// match cache), Resolver (album URL resolution for missing tracks),
// AdmissionController (bounded submission to the remote download queue),
// Scheduler (cron-style periodic syncs) and Discovery (finding new
// ListenBrainz playlists to track).
//
// Long operations emit progress updates via channels for non-blocking
// status reporting to CLI/UI layers.
package tasks
