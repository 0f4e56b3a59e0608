package models

import "testing"

func TestSyncStatusTerminal(t *testing.T) {
	terminal := []SyncStatus{SyncCompleted, SyncFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	active := []SyncStatus{SyncPending, SyncFetching, SyncMatching, SyncDownloading, SyncCreatingPlaylist}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestDownloadStatusPredicates(t *testing.T) {
	for _, s := range []DownloadStatus{DownloadPending, DownloadQueued, DownloadDownloading} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
		if !s.Active() {
			t.Errorf("expected %s to be active", s)
		}
	}

	for _, s := range []DownloadStatus{DownloadCompleted, DownloadFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		if s.Active() {
			t.Errorf("expected %s to be inactive", s)
		}
	}
}

func TestParseRemoteJobStatus(t *testing.T) {
	if _, ok := ParseRemoteJobStatus("downloading"); !ok {
		t.Error("expected downloading to parse")
	}
	if _, ok := ParseRemoteJobStatus("transmogrifying"); ok {
		t.Error("expected unknown status to be rejected")
	}
}

func TestRemoteJobStatusMapping(t *testing.T) {
	tc := []struct {
		remote RemoteJobStatus
		local  DownloadStatus
	}{
		{RemotePending, DownloadQueued},
		{RemoteFetchingInfo, DownloadDownloading},
		{RemoteDownloading, DownloadDownloading},
		{RemoteImporting, DownloadDownloading},
		{RemoteCompleted, DownloadCompleted},
		{RemoteFailed, DownloadFailed},
		{RemoteCancelled, DownloadFailed},
	}

	for _, tt := range tc {
		t.Run(string(tt.remote), func(t *testing.T) {
			local, ok := tt.remote.DownloadStatus()
			if !ok {
				t.Fatalf("expected %s to map", tt.remote)
			}
			if local != tt.local {
				t.Errorf("expected %s -> %s, got %s", tt.remote, tt.local, local)
			}
		})
	}
}

func TestRemoteJobStatusPredicates(t *testing.T) {
	for _, s := range []RemoteJobStatus{RemotePending, RemoteFetchingInfo, RemoteDownloading, RemoteImporting} {
		if !s.Active() || s.Finished() {
			t.Errorf("expected %s to be active and unfinished", s)
		}
	}
	for _, s := range []RemoteJobStatus{RemoteCompleted, RemoteFailed, RemoteCancelled} {
		if s.Active() || !s.Finished() {
			t.Errorf("expected %s to be finished and inactive", s)
		}
	}
}
