package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/notify"
	repository "timefiles.com/timefiles/internal/repositories"
	"timefiles.com/timefiles/internal/storage"
)

// TimerService is the timing state machine. It translates user intents into
// atomic event sequences and guards the single-active-context invariant: at
// most one task is running, and starting or resuming another one pauses the
// current runner inside the same transaction. All events of one intent share
// the wall-clock second captured at command entry.
type TimerService struct {
	store    *storage.Store
	rest     *RestService
	notifier notify.Notifier
	now      func() int64
}

func NewTimerService(store *storage.Store, rest *RestService, notifier notify.Notifier) *TimerService {
	return &TimerService{
		store:    store,
		rest:     rest,
		notifier: notifier,
		now:      unixNow,
	}
}

// Start moves an idle or stopped task to running. Starting the task that is
// already running is a no-op; a paused task must be resumed instead.
func (s *TimerService) Start(ctx context.Context, taskID string) error {
	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		db = db.WithContext(ctx)
		at := s.now()
		var switchedFrom *string

		err := db.Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}

			switch task.Status {
			case models.StatusRunning:
				return nil
			case models.StatusPaused:
				return apperr.InvalidState("task %s is paused, resume it instead", taskID)
			}

			previousFocus, err := eventlog.LatestFocusTaskID(tx)
			if err != nil {
				return err
			}

			if err := pauseCurrentRunner(tx, tasks, taskID, at); err != nil {
				return err
			}
			if err := eventlog.Append(tx, taskID, models.EventStart, at, nil); err != nil {
				return err
			}
			if err := tasks.UpdateStatus(taskID, models.StatusRunning); err != nil {
				return err
			}

			changed = true
			if previousFocus != nil && *previousFocus != taskID {
				switchedFrom = previousFocus
			}
			return nil
		})
		if err != nil {
			return err
		}

		if switchedFrom != nil {
			return s.rest.evaluateTrigger(db, models.TriggerTaskSwitch, switchedFrom, at)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// Pause suspends the running task. Pausing a paused task is a no-op.
func (s *TimerService) Pause(ctx context.Context, taskID string) error {
	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}

			if task.Status == models.StatusPaused {
				return nil
			}
			if task.Status != models.StatusRunning {
				return apperr.InvalidState("only a running task can be paused, task %s is %s", taskID, task.Status)
			}

			if err := eventlog.Append(tx, taskID, models.EventPause, at, nil); err != nil {
				return err
			}
			if err := tasks.UpdateStatus(taskID, models.StatusPaused); err != nil {
				return err
			}
			changed = true
			return nil
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// Resume reactivates a paused task, pausing whichever task currently runs.
func (s *TimerService) Resume(ctx context.Context, taskID string) error {
	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		db = db.WithContext(ctx)
		at := s.now()
		var switchedFrom *string

		err := db.Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}

			if task.Status == models.StatusRunning {
				return nil
			}
			if task.Status != models.StatusPaused {
				return apperr.InvalidState("only a paused task can be resumed, task %s is %s", taskID, task.Status)
			}

			previousFocus, err := eventlog.LatestFocusTaskID(tx)
			if err != nil {
				return err
			}

			if err := pauseCurrentRunner(tx, tasks, taskID, at); err != nil {
				return err
			}
			if err := eventlog.Append(tx, taskID, models.EventResume, at, nil); err != nil {
				return err
			}
			if err := tasks.UpdateStatus(taskID, models.StatusRunning); err != nil {
				return err
			}

			changed = true
			if previousFocus != nil && *previousFocus != taskID {
				switchedFrom = previousFocus
			}
			return nil
		})
		if err != nil {
			return err
		}

		if switchedFrom != nil {
			return s.rest.evaluateTrigger(db, models.TriggerTaskSwitch, switchedFrom, at)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// Stop finalizes the current session of a running or paused task. Stopping a
// subtask resumes its paused parent when the pause was caused by inserting
// that subtask and nothing else has taken over in the meantime.
func (s *TimerService) Stop(ctx context.Context, taskID string) error {
	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		db = db.WithContext(ctx)
		at := s.now()
		subtaskEnded := false

		err := db.Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			task, err := tasks.GetActive(taskID)
			if err != nil {
				return err
			}

			if task.Status == models.StatusStopped {
				return nil
			}
			if task.Status == models.StatusIdle {
				return apperr.InvalidState("cannot stop idle task %s", taskID)
			}

			if err := eventlog.Append(tx, taskID, models.EventStop, at, nil); err != nil {
				return err
			}
			if err := tasks.UpdateStatus(taskID, models.StatusStopped); err != nil {
				return err
			}

			if task.ParentID != nil {
				if err := maybeAutoResumeParent(tx, tasks, *task.ParentID, taskID, at); err != nil {
					return err
				}
				subtaskEnded = true
			}
			changed = true
			return nil
		})
		if err != nil {
			return err
		}

		if subtaskEnded {
			return s.rest.evaluateTrigger(db, models.TriggerSubtaskEnd, &taskID, at)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if changed {
		s.notifier.DataChanged()
	}
	return nil
}

// InsertSubtaskAndStart creates a child under the running parent, pauses the
// parent and starts the child, all in one transaction. The pause payload
// carries the child id so Stop can recognize it for auto-resume.
func (s *TimerService) InsertSubtaskAndStart(ctx context.Context, parentID, title string) (string, error) {
	cleanTitle, err := sanitizeTitle(title)
	if err != nil {
		return "", err
	}

	childID := uuid.NewString()
	err = s.store.Command(func(db *gorm.DB) error {
		db = db.WithContext(ctx)
		at := s.now()

		err := db.Transaction(func(tx *gorm.DB) error {
			tasks := repository.NewTaskRepository(tx)
			parent, err := tasks.GetActive(parentID)
			if err != nil {
				return err
			}
			if parent.Status != models.StatusRunning {
				return apperr.InvalidState("insert_subtask_and_start requires parent %s to be running, it is %s",
					parentID, parent.Status)
			}

			child := &models.Task{
				ID:        childID,
				ParentID:  &parentID,
				Title:     cleanTitle,
				Status:    models.StatusIdle,
				CreatedAt: at,
			}
			if err := tasks.Create(child); err != nil {
				return err
			}

			pausePayload := eventlog.SubtaskPausePayload{Reason: eventlog.ReasonInsertSubtask, ChildID: childID}
			if err := eventlog.Append(tx, parentID, models.EventPause, at, pausePayload); err != nil {
				return err
			}
			if err := tasks.UpdateStatus(parentID, models.StatusPaused); err != nil {
				return err
			}

			startPayload := eventlog.SubtaskStartPayload{Reason: eventlog.ReasonInsertSubtask, ParentID: parentID}
			if err := eventlog.Append(tx, childID, models.EventStart, at, startPayload); err != nil {
				return err
			}
			return tasks.UpdateStatus(childID, models.StatusRunning)
		})
		if err != nil {
			return err
		}

		return s.rest.evaluateTrigger(db, models.TriggerTaskSwitch, &parentID, at)
	})
	if err != nil {
		return "", err
	}

	s.notifier.DataChanged()
	return childID, nil
}

// pauseCurrentRunner pauses whichever task is running, if it is not the one
// about to be activated, keeping the single-active-context invariant inside
// the same transaction.
func pauseCurrentRunner(tx *gorm.DB, tasks *repository.TaskRepository, activatingID string, at int64) error {
	runner, err := tasks.FindRunning()
	if err != nil {
		return err
	}
	if runner == nil || runner.ID == activatingID {
		return nil
	}
	if err := eventlog.Append(tx, runner.ID, models.EventPause, at, nil); err != nil {
		return err
	}
	return tasks.UpdateStatus(runner.ID, models.StatusPaused)
}

// maybeAutoResumeParent resumes the parent after its inserted subtask
// stopped. The parent must still be paused, its latest event must be the
// insert-subtask pause for exactly this child, and no other task may be
// running.
func maybeAutoResumeParent(tx *gorm.DB, tasks *repository.TaskRepository, parentID, childID string, at int64) error {
	parent, err := tasks.Get(parentID)
	if err != nil {
		return err
	}
	if parent.Archived() || parent.Status != models.StatusPaused {
		return nil
	}

	latest, err := eventlog.Latest(tx, parentID)
	if err != nil {
		return err
	}
	if latest == nil || latest.Kind != models.EventPause {
		return nil
	}
	if eventlog.DecodeChildID(latest.Payload) != childID {
		return nil
	}

	runner, err := tasks.FindRunning()
	if err != nil {
		return err
	}
	if runner != nil {
		return nil
	}

	payload := eventlog.AutoResumePayload{Reason: eventlog.ReasonChildStopped, ChildID: childID}
	if err := eventlog.Append(tx, parentID, models.EventResume, at, payload); err != nil {
		return err
	}
	return tasks.UpdateStatus(parentID, models.StatusRunning)
}
