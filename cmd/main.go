package main

import (
	"context"
	"errors"
	"os"

	"github.com/jamsync/jamsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "jamsync",
		Usage:    "Sync ListenBrainz playlists to Plex, downloading what's missing",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrJobActive) || errors.Is(err, shared.ErrJobTerminal) {
			logger.Warnf("%v", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
