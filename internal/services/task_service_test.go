package services

import (
	"context"
	"testing"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/models"
)

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.tasks.CreateTask(ctx, "   ", nil); !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("blank title: error = %v, want invalid_input", err)
	}

	missing := "no-such-parent"
	if _, err := env.tasks.CreateTask(ctx, "child", &missing); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing parent: error = %v, want not_found", err)
	}

	parentID := env.createTask(t, "parent", nil)
	if err := env.tasks.ArchiveTask(ctx, parentID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := env.tasks.CreateTask(ctx, "child", &parentID); !apperr.IsKind(err, apperr.KindArchived) {
		t.Errorf("archived parent: error = %v, want archived", err)
	}
}

func TestCreateTaskTrimsTitle(t *testing.T) {
	env := newTestEnv(t)

	taskID := env.createTask(t, "  deep work  ", nil)
	if title := env.task(t, taskID).Title; title != "deep work" {
		t.Errorf("title = %q, want %q", title, "deep work")
	}
	if status := env.task(t, taskID).Status; status != models.StatusIdle {
		t.Errorf("status = %s, want idle", status)
	}
}

func TestRenameRoundTripKeepsBothEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "original", nil)
	if err := env.tasks.RenameTask(ctx, taskID, "renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := env.tasks.RenameTask(ctx, taskID, "original"); err != nil {
		t.Fatalf("rename back: %v", err)
	}

	if title := env.task(t, taskID).Title; title != "original" {
		t.Errorf("title = %q, want %q", title, "original")
	}

	renames := 0
	for _, event := range env.eventsFor(t, taskID) {
		if event.Kind == models.EventRename {
			renames++
		}
	}
	if renames != 2 {
		t.Errorf("rename events = %d, want 2 (no collapsing)", renames)
	}
}

func TestRenameToSameTitleIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "stable", nil)
	notifiedBefore := env.notified

	if err := env.tasks.RenameTask(ctx, taskID, "stable"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := len(env.eventsFor(t, taskID)); got != 0 {
		t.Errorf("events after same-title rename = %d, want 0", got)
	}
	if env.notified != notifiedBefore {
		t.Error("no-op rename emitted a data changed notification")
	}
}

func TestReparentRejectsSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "solo", nil)
	if err := env.tasks.ReparentTask(ctx, taskID, &taskID); !apperr.IsKind(err, apperr.KindCycleDetected) {
		t.Errorf("self parent: error = %v, want cycle_detected", err)
	}
}

func TestReparentRejectsDescendant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskX := env.createTask(t, "X", nil)
	taskY := env.createTask(t, "Y", &taskX)

	err := env.tasks.ReparentTask(ctx, taskX, &taskY)
	if !apperr.IsKind(err, apperr.KindCycleDetected) {
		t.Fatalf("cycle request: error = %v, want cycle_detected", err)
	}

	if parent := env.task(t, taskX).ParentID; parent != nil {
		t.Errorf("parent(X) = %v, want nil (unchanged)", *parent)
	}
	for _, event := range env.events(t) {
		if event.Kind == models.EventReparent {
			t.Error("reparent event appended despite rejection")
		}
	}
}

func TestReparentMovesTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskA := env.createTask(t, "A", nil)
	taskB := env.createTask(t, "B", nil)

	if err := env.tasks.ReparentTask(ctx, taskB, &taskA); err != nil {
		t.Fatalf("reparent: %v", err)
	}
	if parent := env.task(t, taskB).ParentID; parent == nil || *parent != taskA {
		t.Errorf("parent(B) = %v, want %s", parent, taskA)
	}

	events := env.eventsFor(t, taskB)
	if len(events) != 1 || events[0].Kind != models.EventReparent {
		t.Fatalf("events = %v, want one reparent", kindsOf(events))
	}

	// Moving back to the root is a plain reparent to nil.
	if err := env.tasks.ReparentTask(ctx, taskB, nil); err != nil {
		t.Fatalf("reparent to root: %v", err)
	}
	if parent := env.task(t, taskB).ParentID; parent != nil {
		t.Errorf("parent(B) = %v, want nil", *parent)
	}
}

func TestArchiveStopsActiveSubtree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.clock.at = 0
	parentID := env.createTask(t, "P", nil)
	if err := env.timer.Start(ctx, parentID); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.at = 100
	childID, err := env.timer.InsertSubtaskAndStart(ctx, parentID, "child")
	if err != nil {
		t.Fatalf("insert subtask: %v", err)
	}

	env.clock.at = 200
	if err := env.tasks.ArchiveTask(ctx, parentID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	for _, id := range []string{parentID, childID} {
		task := env.task(t, id)
		if !task.Archived() {
			t.Errorf("task %s not archived", id)
		}
		if task.Status != models.StatusStopped {
			t.Errorf("task %s status = %s, want stopped", id, task.Status)
		}
	}

	stops := 0
	for _, event := range env.events(t) {
		if event.Kind == models.EventStop && event.At == 200 {
			stops++
		}
	}
	if stops != 2 {
		t.Errorf("stop events at archive time = %d, want 2", stops)
	}
}

func TestHardDeleteRequiresArchivedMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "keep", nil)

	err := env.tasks.DeleteTasks(ctx, []string{taskID}, true)
	if !apperr.IsKind(err, apperr.KindInvalidState) {
		t.Fatalf("hard delete unarchived: error = %v, want invalid_state", err)
	}
}

func TestHardDeletePurgesRowsButKeepsTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.clock.at = 100
	taskID := env.createTask(t, "doomed", nil)
	if err := env.tasks.AddTag(ctx, taskID, "deep"); err != nil {
		t.Fatalf("tag: %v", err)
	}
	if err := env.timer.Start(ctx, taskID); err != nil {
		t.Fatalf("start: %v", err)
	}
	env.clock.at = 200
	if err := env.timer.Stop(ctx, taskID); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := env.tasks.ArchiveTask(ctx, taskID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	if err := env.tasks.DeleteTasks(ctx, []string{taskID}, true); err != nil {
		t.Fatalf("hard delete: %v", err)
	}

	var taskCount, eventCount, membershipCount, tagCount int64
	env.store.DB().Model(&models.Task{}).Count(&taskCount)
	env.store.DB().Model(&models.TimeEvent{}).Where("task_id = ?", taskID).Count(&eventCount)
	env.store.DB().Model(&models.TaskTag{}).Where("task_id = ?", taskID).Count(&membershipCount)
	env.store.DB().Model(&models.Tag{}).Count(&tagCount)

	if taskCount != 0 {
		t.Errorf("task rows = %d, want 0", taskCount)
	}
	if eventCount != 0 {
		t.Errorf("event rows = %d, want 0", eventCount)
	}
	if membershipCount != 0 {
		t.Errorf("membership rows = %d, want 0", membershipCount)
	}
	if tagCount != 1 {
		t.Errorf("tag rows = %d, want 1 (retained)", tagCount)
	}
}

func TestDeleteTasksRejectsEmptyInput(t *testing.T) {
	env := newTestEnv(t)

	err := env.tasks.DeleteTasks(context.Background(), nil, false)
	if !apperr.IsKind(err, apperr.KindInvalidInput) {
		t.Errorf("empty ids: error = %v, want invalid_input", err)
	}
}

func TestAddTagIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "tagged", nil)

	if err := env.tasks.AddTag(ctx, taskID, "focus"); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	if err := env.tasks.AddTag(ctx, taskID, "focus"); err != nil {
		t.Fatalf("re-add tag: %v", err)
	}
	// Case-insensitive match resolves to the existing tag.
	if err := env.tasks.AddTag(ctx, taskID, "FOCUS"); err != nil {
		t.Fatalf("re-add tag upper: %v", err)
	}

	var membershipCount, tagCount int64
	env.store.DB().Model(&models.TaskTag{}).Where("task_id = ?", taskID).Count(&membershipCount)
	env.store.DB().Model(&models.Tag{}).Count(&tagCount)
	if membershipCount != 1 {
		t.Errorf("memberships = %d, want 1", membershipCount)
	}
	if tagCount != 1 {
		t.Errorf("tags = %d, want 1", tagCount)
	}

	adds := 0
	for _, event := range env.eventsFor(t, taskID) {
		if event.Kind == models.EventTagAdd {
			adds++
		}
	}
	if adds != 1 {
		t.Errorf("tag_add events = %d, want 1", adds)
	}
}

func TestTagAddRemoveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	taskID := env.createTask(t, "tagged", nil)

	if err := env.tasks.AddTag(ctx, taskID, "focus"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := env.tasks.RemoveTag(ctx, taskID, "focus"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Removing again changes nothing and emits nothing.
	if err := env.tasks.RemoveTag(ctx, taskID, "focus"); err != nil {
		t.Fatalf("re-remove: %v", err)
	}

	var membershipCount int64
	env.store.DB().Model(&models.TaskTag{}).Where("task_id = ?", taskID).Count(&membershipCount)
	if membershipCount != 0 {
		t.Errorf("memberships = %d, want 0", membershipCount)
	}

	var adds, removes int
	for _, event := range env.eventsFor(t, taskID) {
		switch event.Kind {
		case models.EventTagAdd:
			adds++
		case models.EventTagRemove:
			removes++
		}
	}
	if adds != 1 || removes != 1 {
		t.Errorf("tag events = %d add / %d remove, want 1/1", adds, removes)
	}
}
