// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config file, initialize database, and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API plus the background reconciler and scheduler.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the sync service: HTTP API, download reconciler, and playlist scheduler",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override listen host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override listen port",
			},
		},
		Action: r.Serve,
	}
}

// playlistsCommand manages tracked playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage tracked ListenBrainz playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracked playlists",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include disabled playlists",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "discover",
				Usage: "Show curated ListenBrainz playlists not yet tracked",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistsDiscover,
			},
			{
				Name:   "refresh",
				Usage:  "Discover and start tracking curated playlists",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistsRefresh,
			},
		},
	}
}

// syncCommand runs a sync for one playlist from the CLI.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a playlist to Plex now",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "playlist",
			},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.SyncRun,
	}
}

// jobsCommand inspects and controls sync jobs.
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect sync jobs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync jobs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of jobs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.JobsList,
			},
			{
				Name:  "show",
				Usage: "Show a sync job with its per-track results",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "csv",
						Aliases: []string{"o"},
						Usage:   "Write track results to a CSV file",
					},
				},
				Action: r.JobsShow,
			},
			{
				Name:  "cancel",
				Usage: "Cancel an in-flight sync job",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.JobsCancel,
			},
		},
	}
}

// downloadsCommand inspects and retries album downloads.
func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "downloads",
		Aliases: []string{"dl"},
		Usage:   "Inspect album downloads",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List album downloads",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (pending, queued, downloading, completed, failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of downloads to show",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DownloadsList,
			},
			{
				Name:  "retry",
				Usage: "Requeue a failed download",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.DownloadsRetry,
			},
		},
	}
}

// watchCommand launches the terminal dashboard.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Watch sync jobs and downloads in the terminal",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Watch,
	}
}
