package shared

import "testing"

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	tables := []string{"playlists", "sync_jobs", "track_matches", "album_downloads", "match_cache"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}

	// Schedule migration should have added the enabled column.
	var enabled int
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('playlists') WHERE name = 'enabled'").Scan(&enabled)
	if err != nil || enabled != 1 {
		t.Errorf("expected playlists.enabled column, err=%v count=%d", err, enabled)
	}

	// Running again is a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
}

func TestRollbackMigration(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	var enabled int
	err = db.QueryRow("SELECT COUNT(*) FROM pragma_table_info('playlists') WHERE name = 'enabled'").Scan(&enabled)
	if err != nil || enabled != 0 {
		t.Errorf("expected playlists.enabled column to be dropped, err=%v count=%d", err, enabled)
	}
}
