package storage

import (
	"path/filepath"
	"testing"

	apperr "timefiles.com/timefiles/internal/errors"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAppliesMigrations(t *testing.T) {
	store := openTestStore(t, ":memory:")

	version, err := SchemaVersion(store.DB())
	if err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if want := migrations[len(migrations)-1].version; version != want {
		t.Errorf("schema version = %d, want %d", version, want)
	}

	for _, table := range []string{"tasks", "tags", "task_tags", "time_events", "rest_suggestions", "meta"} {
		var name string
		err := store.DB().Raw(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name).Error
		if err != nil {
			t.Fatalf("inspect table %s: %v", table, err)
		}
		if name != table {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timefiles.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := openTestStore(t, path)
	version, err := SchemaVersion(second.DB())
	if err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if want := migrations[len(migrations)-1].version; version != want {
		t.Errorf("schema version after reopen = %d, want %d", version, want)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timefiles.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.DB().Exec("UPDATE meta SET schema_version = 99").Error; err != nil {
		t.Fatalf("bump schema version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = Open(path)
	if err == nil {
		t.Fatal("expected open to fail on newer schema version")
	}
	if !apperr.IsKind(err, apperr.KindStorage) {
		t.Errorf("error kind = %s, want storage_error", apperr.KindOf(err))
	}
}

func TestOpenEmptyPathFails(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected open to fail without a path")
	}
}

func TestOpenRepairsDivergedMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timefiles.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// An out-of-band edit: the event log says running, the mirror says idle.
	err = store.DB().Exec(
		"INSERT INTO tasks (id, parent_id, title, status, created_at) VALUES ('t1', NULL, 'diverged', 'idle', 100)",
	).Error
	if err != nil {
		t.Fatalf("insert task: %v", err)
	}
	err = store.DB().Exec(
		"INSERT INTO time_events (task_id, kind, at) VALUES ('t1', 'start', 100)",
	).Error
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := openTestStore(t, path)
	var status string
	err = reopened.DB().Raw("SELECT status FROM tasks WHERE id = 't1'").Scan(&status).Error
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != "running" {
		t.Errorf("status after recovery = %s, want running", status)
	}
}

func TestMirrorStatusDerivation(t *testing.T) {
	kinds := map[string]string{
		"start":  "running",
		"resume": "running",
		"pause":  "paused",
		"stop":   "stopped",
	}
	for kind, want := range kinds {
		k := kind
		if got := statusFromLastEvent(&k); got != want {
			t.Errorf("statusFromLastEvent(%s) = %s, want %s", kind, got, want)
		}
	}
	if got := statusFromLastEvent(nil); got != "idle" {
		t.Errorf("statusFromLastEvent(nil) = %s, want idle", got)
	}
}
