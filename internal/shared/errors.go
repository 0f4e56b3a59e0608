package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Download queue errors
	ErrQueueFull   = fmt.Errorf("download queue full")
	ErrJobNotFound = fmt.Errorf("job not found")

	// Sync orchestration errors
	ErrJobActive    = fmt.Errorf("a sync job is already active for this playlist")
	ErrJobTerminal  = fmt.Errorf("sync job already finished")
	ErrNotSuspended = fmt.Errorf("sync job is not awaiting downloads")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
