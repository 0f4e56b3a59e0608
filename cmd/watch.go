package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/jamsync/jamsync/internal/ui"
)

// Watch launches the terminal dashboard for sync jobs and downloads.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)

	d, err := r.connect()
	if err != nil {
		return err
	}
	defer d.Close()

	model := ui.NewModel(d.playlists, d.jobs, d.downloads, 2*time.Second)
	return ui.Run(model)
}
