// Package ui implements the watch screen, a terminal dashboard built with
// [bubbletea] that polls the database on a timer and renders recent sync
// jobs and album downloads as [lipgloss] tables.
//
// The screen is read-only. Jobs are created and cancelled through the CLI
// or the HTTP API; the watcher only observes their progress.
//
// [bubbletea]: https://github.com/charmbracelet/bubbletea
// [lipgloss]: https://github.com/charmbracelet/lipgloss
package ui
