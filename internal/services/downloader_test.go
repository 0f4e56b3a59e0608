package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jamsync/jamsync/internal/shared"
)

func TestDownloaderService(t *testing.T) {
	t.Run("CreateJob", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/jobs" && r.Method == http.MethodPost:
				var body struct {
					URL string `json:"url"`
				}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request body: %v", err)
				}
				if body.URL != "https://music.example.com/playlist?list=OLAK5uy_1" {
					t.Errorf("unexpected url %s", body.URL)
				}
				w.Write([]byte(`{"id": "job-1"}`))
			case r.URL.Path == "/jobs" && r.Method == http.MethodGet:
				w.Write([]byte(`{"jobs": [
					{"id": "job-1", "url": "https://music.example.com/playlist?list=OLAK5uy_1", "status": "pending", "progress": 0}
				]}`))
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		}))
		defer server.Close()

		svc := NewDownloaderService(server.URL)

		job, err := svc.CreateJob(context.Background(), "https://music.example.com/playlist?list=OLAK5uy_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if job.ID != "job-1" {
			t.Errorf("expected job ID job-1, got %s", job.ID)
		}
		if job.Status != "pending" {
			t.Errorf("expected status pending, got %s", job.Status)
		}
	})

	t.Run("CreateJob queue full", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		svc := NewDownloaderService(server.URL)

		_, err := svc.CreateJob(context.Background(), "https://music.example.com/album")
		if !errors.Is(err, shared.ErrQueueFull) {
			t.Errorf("expected ErrQueueFull, got %v", err)
		}
	})

	t.Run("ListJobs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/jobs" {
				t.Errorf("expected /jobs, got %s", r.URL.Path)
			}
			w.Write([]byte(`{"jobs": [
				{"id": "job-1", "url": "u1", "status": "downloading", "progress": 0.4},
				{"id": "job-2", "url": "u2", "status": "failed", "progress": 0, "error_message": "video unavailable"}
			]}`))
		}))
		defer server.Close()

		svc := NewDownloaderService(server.URL)

		jobs, err := svc.ListJobs(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		if jobs[0].Progress != 0.4 {
			t.Errorf("expected progress 0.4, got %f", jobs[0].Progress)
		}
		if jobs[1].ErrorMessage != "video unavailable" {
			t.Errorf("expected error message, got %s", jobs[1].ErrorMessage)
		}
	})

	t.Run("CancelJob and DeleteJob", func(t *testing.T) {
		var cancelled, deleted bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.URL.Path == "/jobs/job-1/cancel" && r.Method == http.MethodPost:
				cancelled = true
				w.Write([]byte(`{}`))
			case r.URL.Path == "/jobs/job-1" && r.Method == http.MethodDelete:
				deleted = true
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
		}))
		defer server.Close()

		svc := NewDownloaderService(server.URL)
		ctx := context.Background()

		if err := svc.CancelJob(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := svc.DeleteJob(ctx, "job-1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !cancelled || !deleted {
			t.Error("expected cancel and delete endpoints to be hit")
		}
	})

	t.Run("Health", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "healthy"}`))
		}))
		defer server.Close()

		if !NewDownloaderService(server.URL).Health(context.Background()) {
			t.Error("expected healthy")
		}

		down := NewDownloaderService("http://127.0.0.1:1")
		if down.Health(context.Background()) {
			t.Error("expected unreachable downloader to be unhealthy")
		}
	})
}
