package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jamsync/jamsync/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	header lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	plain  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		header: NewBold(h),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		plain:  lipgloss.NewStyle(),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// syncStatusStyle picks a color for a job status cell.
func syncStatusStyle(s models.SyncStatus) lipgloss.Style {
	switch s {
	case models.SyncCompleted:
		return styles.ok
	case models.SyncFailed:
		return styles.err
	case models.SyncDownloading:
		return styles.warn
	default:
		return styles.plain
	}
}

// downloadStatusStyle picks a color for a download status cell.
func downloadStatusStyle(s models.DownloadStatus) lipgloss.Style {
	switch s {
	case models.DownloadCompleted:
		return styles.ok
	case models.DownloadFailed:
		return styles.err
	case models.DownloadQueued, models.DownloadDownloading:
		return styles.warn
	default:
		return styles.plain
	}
}
