package services

import (
	"context"
	"testing"

	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/notify"
	repository "timefiles.com/timefiles/internal/repositories"
	"timefiles.com/timefiles/internal/storage"
)

// fakeClock pins the per-command timestamp so event trails and windows are
// exact.
type fakeClock struct {
	at int64
}

func (c *fakeClock) now() int64 {
	return c.at
}

type testEnv struct {
	store    *storage.Store
	clock    *fakeClock
	notified int

	tasks    *TaskService
	timer    *TimerService
	rest     *RestService
	overview *OverviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{store: store, clock: &fakeClock{at: 1}}
	notifier := notify.Func(func() { env.notified++ })

	env.rest = NewRestService(store, notifier)
	env.tasks = NewTaskService(store, notifier)
	env.timer = NewTimerService(store, env.rest, notifier)
	env.overview = NewOverviewService(store)

	env.rest.now = env.clock.now
	env.tasks.now = env.clock.now
	env.timer.now = env.clock.now
	env.overview.now = env.clock.now

	return env
}

func (e *testEnv) createTask(t *testing.T, title string, parentID *string) string {
	t.Helper()
	taskID, err := e.tasks.CreateTask(context.Background(), title, parentID)
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return taskID
}

func (e *testEnv) task(t *testing.T, taskID string) *models.Task {
	t.Helper()
	task, err := repository.NewTaskRepository(e.store.DB()).Get(taskID)
	if err != nil {
		t.Fatalf("load task %s: %v", taskID, err)
	}
	return task
}

func (e *testEnv) events(t *testing.T) []models.TimeEvent {
	t.Helper()
	events, err := eventlog.ListAll(e.store.DB())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return events
}

func (e *testEnv) eventsFor(t *testing.T, taskID string) []models.TimeEvent {
	t.Helper()
	all := e.events(t)
	filtered := make([]models.TimeEvent, 0, len(all))
	for _, event := range all {
		if event.TaskID == taskID {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

func (e *testEnv) suggestions(t *testing.T) []models.RestSuggestion {
	t.Helper()
	var rows []models.RestSuggestion
	err := e.store.DB().Order("id asc").Find(&rows).Error
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}
	return rows
}

func (e *testEnv) pendingSuggestion(t *testing.T) *models.RestSuggestion {
	t.Helper()
	pending, err := repository.NewSuggestionRepository(e.store.DB()).LatestPending()
	if err != nil {
		t.Fatalf("load pending suggestion: %v", err)
	}
	return pending
}

func kindsOf(events []models.TimeEvent) []models.EventKind {
	kinds := make([]models.EventKind, len(events))
	for i, event := range events {
		kinds[i] = event.Kind
	}
	return kinds
}

func sameKinds(a []models.EventKind, b ...models.EventKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
