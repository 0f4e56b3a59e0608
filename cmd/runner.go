package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/formatter"
	"github.com/jamsync/jamsync/internal/repositories"
	"github.com/jamsync/jamsync/internal/services"
	"github.com/jamsync/jamsync/internal/shared"
	"github.com/jamsync/jamsync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	// Service overrides, set by tests. When nil, connect builds the real
	// clients from config.
	source     services.Source
	library    services.Library
	downloader services.Downloader
	catalog    services.Catalog
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Source     services.Source
	Library    services.Library
	Downloader services.Downloader
	Catalog    services.Catalog
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		source:     opts.Source,
		library:    opts.Library,
		downloader: opts.Downloader,
		catalog:    opts.Catalog,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, playlistsCommand, syncCommand, jobsCommand, downloadsCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig re-reads configuration when the command points at an existing file.
func (r *Runner) loadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current settings", "path", path, "error", err)
		return
	}
	r.config = config
}

// deps bundles the database-backed dependencies behind most commands.
// Callers must Close when done.
type deps struct {
	db *sql.DB

	playlists *repositories.PlaylistRepository
	jobs      *repositories.SyncJobRepository
	matches   *repositories.TrackMatchRepository
	downloads *repositories.DownloadRepository
	cache     *repositories.MatchCacheRepository

	source     services.Source
	library    services.Library
	downloader services.Downloader
	catalog    services.Catalog

	engine    *tasks.SyncEngine
	discovery *tasks.Discovery
	admission *tasks.AdmissionController
}

func (d *deps) Close() {
	d.db.Close()
}

// connect opens the database and wires up repositories, services, and the
// sync engine from the current configuration.
func (r *Runner) connect() (*deps, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	d := &deps{
		db:        db,
		playlists: repositories.NewPlaylistRepository(db),
		jobs:      repositories.NewSyncJobRepository(db),
		matches:   repositories.NewTrackMatchRepository(db),
		downloads: repositories.NewDownloadRepository(db),
		cache:     repositories.NewMatchCacheRepository(db),
	}

	d.source = r.source
	if d.source == nil {
		d.source = services.NewListenBrainzService("", r.config.ListenBrainz.Token)
	}
	d.library = r.library
	if d.library == nil {
		d.library = services.NewPlexService(r.config.Plex.URL, r.config.Plex.Token, r.config.Plex.MusicLibrary)
	}
	d.downloader = r.downloader
	if d.downloader == nil {
		d.downloader = services.NewDownloaderService(r.config.Downloader.URL)
	}
	d.catalog = r.catalog
	if d.catalog == nil {
		d.catalog = services.NewCatalogService(r.config.Catalog.URL)
	}

	matcher := tasks.NewMatcher(d.cache, d.library, r.config.Sync.SearchRateLimit, r.logger)
	resolver := tasks.NewResolver(d.catalog, r.logger)
	d.engine = tasks.NewSyncEngine(d.playlists, d.jobs, d.matches, d.downloads, d.source, d.library, matcher, resolver, r.logger)
	d.discovery = tasks.NewDiscovery(d.source, d.playlists, r.config.ListenBrainz.Username, r.config.Sync, r.logger)
	d.admission = tasks.NewAdmissionController(d.downloads, d.downloader, r.config.Sync.DownloadCeiling, r.logger)

	return d, nil
}

// playlistNames maps playlist IDs to display names for table output.
func (d *deps) playlistNames() map[string]string {
	names := map[string]string{}
	lists, err := d.playlists.List(false)
	if err != nil {
		return names
	}
	for _, p := range lists {
		names[p.ID] = p.Name
	}
	return names
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := formatter.ToJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
