package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamsync/jamsync/internal/models"
	"github.com/jamsync/jamsync/internal/repositories"
)

// Row limits keep the screen stable on small terminals.
const (
	jobRows      = 10
	downloadRows = 10
)

// tickMsg fires on the refresh timer.
type tickMsg time.Time

// refreshMsg carries a fresh snapshot of the tables.
type refreshMsg struct {
	jobs      []*models.SyncJob
	downloads []*models.AlbumDownload
	playlists map[string]string
	err       error
}

// Model is the watch screen state: the latest jobs and downloads plus the
// repositories used to refresh them.
type Model struct {
	playlistRepo *repositories.PlaylistRepository
	jobRepo      *repositories.SyncJobRepository
	downloadRepo *repositories.DownloadRepository
	interval     time.Duration

	keys keyMap
	help help.Model

	jobs      []*models.SyncJob
	downloads []*models.AlbumDownload
	playlists map[string]string
	refreshed time.Time
	err       error
}

// NewModel creates the watch screen. A non-positive interval falls back to
// two seconds.
func NewModel(playlists *repositories.PlaylistRepository, jobs *repositories.SyncJobRepository, downloads *repositories.DownloadRepository, interval time.Duration) Model {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return Model{
		playlistRepo: playlists,
		jobRepo:      jobs,
		downloadRepo: downloads,
		interval:     interval,
		keys:         newKeyMap(),
		help:         help.New(),
		playlists:    map[string]string{},
	}
}

// Run starts the watch TUI and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh loads the latest jobs and downloads. Playlist names are loaded
// best-effort so a failed lookup still renders job rows by ID.
func (m Model) refresh() tea.Msg {
	jobs, err := m.jobRepo.List("", jobRows)
	if err != nil {
		return refreshMsg{err: err}
	}

	downloads, err := m.downloadRepo.List("", downloadRows)
	if err != nil {
		return refreshMsg{err: err}
	}

	names := map[string]string{}
	if lists, err := m.playlistRepo.List(false); err == nil {
		for _, p := range lists {
			names[p.ID] = p.Name
		}
	}

	return refreshMsg{jobs: jobs, downloads: downloads, playlists: names}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.refresh
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tickMsg:
		return m, tea.Batch(m.refresh, m.tick())
	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.jobs = msg.jobs
		m.downloads = msg.downloads
		m.playlists = msg.playlists
		m.refreshed = time.Now()
		m.err = nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("jamsync watch"))
	b.WriteString("\n")

	b.WriteString(styles.header.Render("Sync Jobs"))
	b.WriteString("\n")
	b.WriteString(m.jobsTable())
	b.WriteString("\n")

	b.WriteString(styles.header.Render("Album Downloads"))
	b.WriteString("\n")
	b.WriteString(m.downloadsTable())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("refresh failed: %v", m.err)))
		b.WriteString("\n")
	}
	if !m.refreshed.IsZero() {
		b.WriteString(styles.help.Render(fmt.Sprintf("refreshed %s", m.refreshed.Format("15:04:05"))))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) jobsTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-28s %-18s %6s %6s %6s  %-8s\n",
		"PLAYLIST", "STATUS", "TOTAL", "MATCH", "MISS", "STARTED")

	if len(m.jobs) == 0 {
		b.WriteString(styles.help.Render("  no sync jobs yet"))
		b.WriteString("\n")
		return b.String()
	}

	for _, job := range m.jobs {
		name := m.playlists[job.PlaylistID]
		if name == "" {
			name = job.PlaylistID
		}
		status := syncStatusStyle(job.Status).Render(fmt.Sprintf("%-18s", job.Status))
		fmt.Fprintf(&b, "  %-28s %s %6d %6d %6d  %-8s\n",
			truncate(name, 28), status,
			job.TracksTotal, job.TracksMatched, job.TracksMissing,
			clockOrDash(job.StartedAt))
	}
	return b.String()
}

func (m Model) downloadsTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-28s %-20s %-13s %8s  %-8s\n",
		"ALBUM", "ARTIST", "STATUS", "PROGRESS", "QUEUED")

	if len(m.downloads) == 0 {
		b.WriteString(styles.help.Render("  no downloads"))
		b.WriteString("\n")
		return b.String()
	}

	for _, d := range m.downloads {
		status := downloadStatusStyle(d.Status).Render(fmt.Sprintf("%-13s", d.Status))
		fmt.Fprintf(&b, "  %-28s %-20s %s %7.0f%%  %-8s\n",
			truncate(d.Title, 28), truncate(d.Artist, 20), status,
			d.Progress*100, clockOrDash(d.QueuedAt))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

func clockOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
