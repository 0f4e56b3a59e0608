// Download queue API [Downloader] implementation
//
// The queue accepts album URLs, downloads them asynchronously, and
// imports the results into the media library. Capacity is hard-limited
// remotely; a 409 on submission means the queue is full.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jamsync/jamsync/internal/shared"
)

type remoteJobPayload struct {
	ID           string  `json:"id"`
	URL          string  `json:"url"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	ErrorMessage string  `json:"error_message"`
}

// DownloaderService implements the Downloader interface over the download
// queue's HTTP API.
type DownloaderService struct {
	baseURL    string
	httpClient *http.Client
}

// NewDownloaderService creates a new downloader client for the given base URL.
func NewDownloaderService(baseURL string) *DownloaderService {
	return &DownloaderService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

func (d *DownloaderService) doRequest(ctx context.Context, method, endpoint string, body string, result any) error {
	apiURL := d.baseURL + endpoint

	var reader *strings.Reader
	var req *http.Request
	var err error

	if body != "" {
		reader = strings.NewReader(body)
		req, err = http.NewRequestWithContext(ctx, method, apiURL, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return shared.ErrQueueFull
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: downloader API status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: downloader API status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: downloader API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CreateJob submits a download for the given URL.
//
// Calls POST /jobs. The create endpoint returns only the job ID; the full
// job is read back from the list endpoint. A 409 surfaces as
// shared.ErrQueueFull so the admission controller stops submitting.
func (d *DownloaderService) CreateJob(ctx context.Context, jobURL string) (*RemoteJob, error) {
	body, err := json.Marshal(map[string]string{"url": jobURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := d.doRequest(ctx, http.MethodPost, "/jobs", string(body), &created); err != nil {
		return nil, err
	}

	jobs, err := d.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].ID == created.ID {
			return &jobs[i], nil
		}
	}

	// The job was accepted but has not appeared in the list yet.
	return &RemoteJob{ID: created.ID, URL: jobURL, Status: "pending"}, nil
}

// ListJobs returns all jobs the downloader currently knows about, oldest
// first.
//
// Calls GET /jobs.
func (d *DownloaderService) ListJobs(ctx context.Context) ([]RemoteJob, error) {
	var response struct {
		Jobs []remoteJobPayload `json:"jobs"`
	}

	if err := d.doRequest(ctx, http.MethodGet, "/jobs", "", &response); err != nil {
		return nil, err
	}

	jobs := make([]RemoteJob, len(response.Jobs))
	for i, j := range response.Jobs {
		jobs[i] = RemoteJob{
			ID:           j.ID,
			URL:          j.URL,
			Status:       j.Status,
			Progress:     j.Progress,
			ErrorMessage: j.ErrorMessage,
		}
	}

	return jobs, nil
}

// CancelJob cancels a queued or running job.
//
// Calls POST /jobs/{id}/cancel.
func (d *DownloaderService) CancelJob(ctx context.Context, jobID string) error {
	endpoint := fmt.Sprintf("/jobs/%s/cancel", jobID)
	return d.doRequest(ctx, http.MethodPost, endpoint, "", nil)
}

// DeleteJob removes a finished job from the remote queue.
//
// Calls DELETE /jobs/{id}.
func (d *DownloaderService) DeleteJob(ctx context.Context, jobID string) error {
	endpoint := fmt.Sprintf("/jobs/%s", jobID)
	return d.doRequest(ctx, http.MethodDelete, endpoint, "", nil)
}

// Health reports whether the downloader is reachable and healthy.
//
// Calls GET /health.
func (d *DownloaderService) Health(ctx context.Context) bool {
	var response struct {
		Status string `json:"status"`
	}

	if err := d.doRequest(ctx, http.MethodGet, "/health", "", &response); err != nil {
		return false
	}

	return response.Status == "healthy"
}
