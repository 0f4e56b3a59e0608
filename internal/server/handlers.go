package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
	"github.com/jamsync/jamsync/internal/tasks"
)

// API serves the JSON dashboard endpoints.
type API struct {
	playlists  *repositories.PlaylistRepository
	jobs       *repositories.SyncJobRepository
	matches    *repositories.TrackMatchRepository
	downloads  *repositories.DownloadRepository
	cache      *repositories.MatchCacheRepository
	engine     *tasks.SyncEngine
	discovery  *tasks.Discovery
	downloader services.Downloader
	logger     *log.Logger
	mux        *http.ServeMux
}

// NewAPI creates the dashboard API handler.
func NewAPI(
	playlists *repositories.PlaylistRepository,
	jobs *repositories.SyncJobRepository,
	matches *repositories.TrackMatchRepository,
	downloads *repositories.DownloadRepository,
	cache *repositories.MatchCacheRepository,
	engine *tasks.SyncEngine,
	discovery *tasks.Discovery,
	downloader services.Downloader,
	logger *log.Logger,
) *API {
	a := &API{
		playlists:  playlists,
		jobs:       jobs,
		matches:    matches,
		downloads:  downloads,
		cache:      cache,
		engine:     engine,
		discovery:  discovery,
		downloader: downloader,
		logger:     logger,
		mux:        http.NewServeMux(),
	}

	a.mux.HandleFunc("GET /api/status", a.handleStatus)
	a.mux.HandleFunc("GET /api/playlists", a.handleListPlaylists)
	a.mux.HandleFunc("POST /api/playlists", a.handleCreatePlaylist)
	a.mux.HandleFunc("GET /api/playlists/discover", a.handleDiscoverPlaylists)
	a.mux.HandleFunc("POST /api/playlists/refresh", a.handleRefreshPlaylists)
	a.mux.HandleFunc("PATCH /api/playlists/{id}", a.handleUpdatePlaylist)
	a.mux.HandleFunc("DELETE /api/playlists/{id}", a.handleDeletePlaylist)
	a.mux.HandleFunc("GET /api/sync-jobs", a.handleListJobs)
	a.mux.HandleFunc("POST /api/sync-jobs", a.handleCreateJob)
	a.mux.HandleFunc("GET /api/sync-jobs/{id}", a.handleGetJob)
	a.mux.HandleFunc("POST /api/sync-jobs/{id}/cancel", a.handleCancelJob)
	a.mux.HandleFunc("POST /api/sync-jobs/{id}/force-complete", a.handleForceCompleteJob)
	a.mux.HandleFunc("GET /api/downloads", a.handleListDownloads)
	a.mux.HandleFunc("POST /api/downloads/{id}/retry", a.handleRetryDownload)
	return a
}

// Routes implements [Handler].
func (a *API) Routes() []string {
	return []string{
		"GET /api/status",
		"GET /api/playlists",
		"POST /api/playlists",
		"GET /api/playlists/discover",
		"POST /api/playlists/refresh",
		"PATCH /api/playlists/{id}",
		"DELETE /api/playlists/{id}",
		"GET /api/sync-jobs",
		"POST /api/sync-jobs",
		"GET /api/sync-jobs/{id}",
		"POST /api/sync-jobs/{id}/cancel",
		"POST /api/sync-jobs/{id}/force-complete",
		"GET /api/downloads",
		"POST /api/downloads/{id}/retry",
	}
}

// ServeHTTP implements [Handler].
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

type statusResponse struct {
	Playlists         int  `json:"playlists"`
	ActiveJobs        int  `json:"active_jobs"`
	PendingDownloads  int  `json:"pending_downloads"`
	ActiveDownloads   int  `json:"active_downloads"`
	CachedMatches     int  `json:"cached_matches"`
	DownloaderHealthy bool `json:"downloader_healthy"`
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.playlists.List(false)
	if err != nil {
		a.serverError(w, err)
		return
	}
	activeJobs, err := a.jobs.CountActive()
	if err != nil {
		a.serverError(w, err)
		return
	}
	pending, err := a.downloads.ListPending()
	if err != nil {
		a.serverError(w, err)
		return
	}
	active, err := a.downloads.ListActive()
	if err != nil {
		a.serverError(w, err)
		return
	}
	cached, err := a.cache.Count()
	if err != nil {
		a.serverError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Playlists:         len(playlists),
		ActiveJobs:        activeJobs,
		PendingDownloads:  len(pending),
		ActiveDownloads:   len(active),
		CachedMatches:     cached,
		DownloaderHealthy: a.downloader.Health(r.Context()),
	})
}

type playlistResponse struct {
	ID           string     `json:"id"`
	MBID         string     `json:"mbid"`
	Name         string     `json:"name"`
	Creator      string     `json:"creator,omitempty"`
	IsDaily      bool       `json:"is_daily"`
	IsWeekly     bool       `json:"is_weekly"`
	Enabled      bool       `json:"enabled"`
	SyncDay      string     `json:"sync_day,omitempty"`
	SyncTime     string     `json:"sync_time,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

func playlistToResponse(p *models.Playlist) playlistResponse {
	return playlistResponse{
		ID:           p.ID,
		MBID:         p.MBID,
		Name:         p.Name,
		Creator:      p.Creator,
		IsDaily:      p.IsDaily,
		IsWeekly:     p.IsWeekly,
		Enabled:      p.Enabled,
		SyncDay:      p.SyncDay,
		SyncTime:     p.SyncTime,
		LastSyncedAt: p.LastSyncedAt,
	}
}

func (a *API) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.playlists.List(false)
	if err != nil {
		a.serverError(w, err)
		return
	}

	response := make([]playlistResponse, 0, len(playlists))
	for _, p := range playlists {
		response = append(response, playlistToResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

type createPlaylistRequest struct {
	MBID     string `json:"mbid"`
	Name     string `json:"name"`
	IsDaily  bool   `json:"is_daily"`
	IsWeekly bool   `json:"is_weekly"`
	SyncDay  string `json:"sync_day"`
	SyncTime string `json:"sync_time"`
}

func (a *API) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MBID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "mbid and name are required")
		return
	}
	if msg := validateSchedule(req.SyncDay, req.SyncTime); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := a.playlists.GetByMBID(req.MBID)
	if err != nil {
		a.serverError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "playlist already tracked")
		return
	}

	playlist := &models.Playlist{
		MBID:     req.MBID,
		Name:     req.Name,
		IsDaily:  req.IsDaily,
		IsWeekly: req.IsWeekly,
		Enabled:  true,
		SyncDay:  req.SyncDay,
		SyncTime: req.SyncTime,
	}
	if err := a.playlists.Create(playlist); err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlistToResponse(playlist))
}

func (a *API) handleDiscoverPlaylists(w http.ResponseWriter, r *http.Request) {
	candidates, err := a.discovery.Candidates(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}

	response := make([]playlistResponse, 0, len(candidates))
	for _, p := range candidates {
		response = append(response, playlistToResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) handleRefreshPlaylists(w http.ResponseWriter, r *http.Request) {
	added, err := a.discovery.Refresh(r.Context())
	if err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

type updatePlaylistRequest struct {
	Name     *string `json:"name"`
	Enabled  *bool   `json:"enabled"`
	SyncDay  *string `json:"sync_day"`
	SyncTime *string `json:"sync_time"`
}

func (a *API) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := a.playlists.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}

	var req updatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		playlist.Name = *req.Name
	}
	if req.Enabled != nil {
		playlist.Enabled = *req.Enabled
	}
	if req.SyncDay != nil {
		playlist.SyncDay = *req.SyncDay
	}
	if req.SyncTime != nil {
		playlist.SyncTime = *req.SyncTime
	}
	if msg := validateSchedule(playlist.SyncDay, playlist.SyncTime); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := a.playlists.Update(playlist); err != nil {
		a.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlistToResponse(playlist))
}

func (a *API) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := a.playlists.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type jobResponse struct {
	ID              string     `json:"id"`
	PlaylistID      string     `json:"playlist_id"`
	Status          string     `json:"status"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	TracksTotal     int        `json:"tracks_total"`
	TracksMatched   int        `json:"tracks_matched"`
	TracksMissing   int        `json:"tracks_missing"`
	PlexPlaylistKey string     `json:"plex_playlist_key,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func jobToResponse(j *models.SyncJob) jobResponse {
	return jobResponse{
		ID:              j.ID,
		PlaylistID:      j.PlaylistID,
		Status:          string(j.Status),
		ErrorMessage:    j.ErrorMessage,
		TracksTotal:     j.TracksTotal,
		TracksMatched:   j.TracksMatched,
		TracksMissing:   j.TracksMissing,
		PlexPlaylistKey: j.PlexPlaylistKey,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
		CreatedAt:       j.CreatedAt,
	}
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	jobs, err := a.jobs.List(r.URL.Query().Get("playlist_id"), limit)
	if err != nil {
		a.serverError(w, err)
		return
	}

	response := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		response = append(response, jobToResponse(j))
	}
	writeJSON(w, http.StatusOK, response)
}

type createJobRequest struct {
	PlaylistID string `json:"playlist_id"`
}

func (a *API) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID == "" {
		writeError(w, http.StatusBadRequest, "playlist_id is required")
		return
	}

	job, err := a.engine.CreateJob(req.PlaylistID)
	if errors.Is(err, shared.ErrJobActive) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}

	// The job outlives this request.
	go func() {
		if err := a.engine.Run(context.Background(), job.ID, nil); err != nil {
			a.logger.Warn("sync run failed", "job", job.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusCreated, jobToResponse(job))
}

type matchResponse struct {
	Position      int    `json:"position"`
	RecordingMBID string `json:"recording_mbid"`
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	Album         string `json:"album,omitempty"`
	Matched       bool   `json:"matched"`
	PlexRatingKey string `json:"plex_rating_key,omitempty"`
	DownloadID    string `json:"download_id,omitempty"`
}

type jobDetailResponse struct {
	jobResponse
	Tracks []matchResponse `json:"tracks"`
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.jobs.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "sync job not found")
		return
	}

	matches, err := a.matches.ListByJob(job.ID)
	if err != nil {
		a.serverError(w, err)
		return
	}

	detail := jobDetailResponse{jobResponse: jobToResponse(job), Tracks: make([]matchResponse, 0, len(matches))}
	for _, m := range matches {
		detail.Tracks = append(detail.Tracks, matchResponse{
			Position:      m.Position,
			RecordingMBID: m.RecordingMBID,
			Title:         m.Title,
			Artist:        m.Artist,
			Album:         m.Album,
			Matched:       m.Matched,
			PlexRatingKey: m.PlexRatingKey,
			DownloadID:    m.DownloadID,
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	err := a.engine.Cancel(r.PathValue("id"))
	if errors.Is(err, shared.ErrJobTerminal) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "sync job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleForceCompleteJob(w http.ResponseWriter, r *http.Request) {
	err := a.engine.ForceResume(r.Context(), r.PathValue("id"))
	if errors.Is(err, shared.ErrNotSuspended) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "sync job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type downloadResponse struct {
	ID           string     `json:"id"`
	AlbumID      string     `json:"album_id"`
	Title        string     `json:"title"`
	Artist       string     `json:"artist"`
	Status       string     `json:"status"`
	Progress     float64    `json:"progress"`
	ErrorMessage string     `json:"error_message,omitempty"`
	QueuedAt     *time.Time `json:"queued_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

func (a *API) handleListDownloads(w http.ResponseWriter, r *http.Request) {
	status := models.DownloadStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 50)

	downloads, err := a.downloads.List(status, limit)
	if err != nil {
		a.serverError(w, err)
		return
	}

	response := make([]downloadResponse, 0, len(downloads))
	for _, d := range downloads {
		response = append(response, downloadResponse{
			ID:           d.ID,
			AlbumID:      d.AlbumID,
			Title:        d.Title,
			Artist:       d.Artist,
			Status:       string(d.Status),
			Progress:     d.Progress,
			ErrorMessage: d.ErrorMessage,
			QueuedAt:     d.QueuedAt,
			CompletedAt:  d.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) handleRetryDownload(w http.ResponseWriter, r *http.Request) {
	download, err := a.downloads.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "download not found")
		return
	}
	if download.Status != models.DownloadFailed {
		writeError(w, http.StatusConflict, "only failed downloads can be retried")
		return
	}

	download.Status = models.DownloadPending
	download.RemoteJobID = ""
	download.Progress = 0
	download.ErrorMessage = ""
	download.QueuedAt = nil
	download.CompletedAt = nil
	if err := a.downloads.Update(download); err != nil {
		a.serverError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateSchedule checks an optional day-of-week and HH:MM pair.
func validateSchedule(day, syncTime string) string {
	if day != "" && !validDay(day) {
		return "sync_day must be a day of the week"
	}
	if syncTime != "" {
		if _, err := time.Parse("15:04", syncTime); err != nil {
			return "sync_time must be HH:MM"
		}
	}
	return ""
}

func validDay(day string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(day, d.String()) {
			return true
		}
	}
	return false
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (a *API) serverError(w http.ResponseWriter, err error) {
	a.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
