package eventlog_test

import (
	"testing"

	"gorm.io/gorm"

	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.DB().Exec(
		"INSERT INTO tasks (id, parent_id, title, status, created_at) VALUES ('t1', NULL, 'log target', 'idle', 0)",
	).Error
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return store.DB()
}

func TestAppendAssignsIncreasingSequences(t *testing.T) {
	db := newTestDB(t)

	if err := eventlog.Append(db, "t1", models.EventStart, 100, nil); err != nil {
		t.Fatalf("append start: %v", err)
	}
	if err := eventlog.Append(db, "t1", models.EventPause, 160, nil); err != nil {
		t.Fatalf("append pause: %v", err)
	}

	events, err := eventlog.ListAll(db)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("event count = %d, want 2", len(events))
	}
	if events[0].Sequence >= events[1].Sequence {
		t.Errorf("sequences not increasing: %d then %d", events[0].Sequence, events[1].Sequence)
	}
	if events[0].Kind != models.EventStart || events[1].Kind != models.EventPause {
		t.Errorf("unexpected event order: %s then %s", events[0].Kind, events[1].Kind)
	}
}

func TestAppendClampsBackwardsClock(t *testing.T) {
	db := newTestDB(t)

	if err := eventlog.Append(db, "t1", models.EventStart, 500, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	// The wall clock regressed; the stream must stay monotonic anyway.
	if err := eventlog.Append(db, "t1", models.EventPause, 400, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := eventlog.ListAll(db)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if events[1].At != 500 {
		t.Errorf("clamped at = %d, want 500", events[1].At)
	}
}

func TestAppendEncodesPayload(t *testing.T) {
	db := newTestDB(t)

	payload := eventlog.SubtaskPausePayload{Reason: eventlog.ReasonInsertSubtask, ChildID: "c9"}
	if err := eventlog.Append(db, "t1", models.EventPause, 100, payload); err != nil {
		t.Fatalf("append: %v", err)
	}

	latest, err := eventlog.Latest(db, "t1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Payload == nil {
		t.Fatal("expected payload on latest event")
	}
	if got := eventlog.DecodeChildID(latest.Payload); got != "c9" {
		t.Errorf("decoded child id = %q, want c9", got)
	}
}

func TestDecodeHelpersTolerateGarbage(t *testing.T) {
	if got := eventlog.DecodeChildID(nil); got != "" {
		t.Errorf("DecodeChildID(nil) = %q, want empty", got)
	}
	garbage := "{not json"
	if got := eventlog.DecodeChildID(&garbage); got != "" {
		t.Errorf("DecodeChildID(garbage) = %q, want empty", got)
	}
	if _, ok := eventlog.DecodeReparentTo(&garbage); ok {
		t.Error("DecodeReparentTo(garbage) reported success")
	}

	to := "p1"
	payload := `{"from":null,"to":"p1"}`
	decoded, ok := eventlog.DecodeReparentTo(&payload)
	if !ok || decoded == nil || *decoded != to {
		t.Errorf("DecodeReparentTo = %v/%v, want %q", decoded, ok, to)
	}
}

func TestLatestFocusTaskID(t *testing.T) {
	db := newTestDB(t)

	focus, err := eventlog.LatestFocusTaskID(db)
	if err != nil {
		t.Fatalf("latest focus: %v", err)
	}
	if focus != nil {
		t.Fatalf("expected no focus task, got %s", *focus)
	}

	if err := eventlog.Append(db, "t1", models.EventStart, 100, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	focus, err = eventlog.LatestFocusTaskID(db)
	if err != nil {
		t.Fatalf("latest focus: %v", err)
	}
	if focus == nil || *focus != "t1" {
		t.Errorf("latest focus = %v, want t1", focus)
	}
}
