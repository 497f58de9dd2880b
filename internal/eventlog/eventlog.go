// Package eventlog is the append-only timing history. Appending is the only
// legal way to change running state, parent or tag membership; the tasks
// table is a bookkeeping mirror computed from the appended event inside the
// same transaction.
package eventlog

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/models"
)

// Append records one immutable event. The sequence number is assigned by the
// store; at is clamped so it never runs backwards relative to the previous
// event, keeping the stream monotonic even if the wall clock is not.
func Append(tx *gorm.DB, taskID string, kind models.EventKind, at int64, payload any) error {
	var encoded *string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return apperr.Internal("encode %s payload: %v", kind, err)
		}
		value := string(raw)
		encoded = &value
	}

	var last models.TimeEvent
	err := tx.Order("sequence desc").First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Storage(err, "read event stream tail")
	}
	if err == nil && last.At > at {
		at = last.At
	}

	event := models.TimeEvent{TaskID: taskID, Kind: kind, At: at, Payload: encoded}
	if err := tx.Create(&event).Error; err != nil {
		return apperr.Storage(err, "append %s event for task %s", kind, taskID)
	}
	return nil
}

// ListAll returns the full event stream in sequence order.
func ListAll(db *gorm.DB) ([]models.TimeEvent, error) {
	var events []models.TimeEvent
	if err := db.Order("sequence asc").Find(&events).Error; err != nil {
		return nil, apperr.Storage(err, "list time events")
	}
	return events, nil
}

// Latest returns the most recent event for a task, nil if it has none.
func Latest(db *gorm.DB, taskID string) (*models.TimeEvent, error) {
	var event models.TimeEvent
	err := db.Where("task_id = ?", taskID).Order("sequence desc").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "read latest event for task %s", taskID)
	}
	return &event, nil
}

// LatestFocusTaskID returns the task targeted by the most recent start or
// resume event, nil if nothing has ever run.
func LatestFocusTaskID(db *gorm.DB) (*string, error) {
	var event models.TimeEvent
	err := db.Where("kind IN ?", models.FocusKinds).Order("sequence desc").First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "read latest focus event")
	}
	return &event.TaskID, nil
}

// LifecycleForTask returns a task's start/pause/resume/stop events with
// at <= until, in sequence order.
func LifecycleForTask(db *gorm.DB, taskID string, until int64) ([]models.TimeEvent, error) {
	var events []models.TimeEvent
	err := db.
		Where("task_id = ? AND kind IN ? AND at <= ?", taskID, models.LifecycleKinds, until).
		Order("sequence asc").
		Find(&events).Error
	if err != nil {
		return nil, apperr.Storage(err, "list lifecycle events for task %s", taskID)
	}
	return events, nil
}

// FocusEventsUntil returns every start/resume event with at <= until, in
// sequence order. The advisor seeds its switch counter from the events
// preceding its lookback window.
func FocusEventsUntil(db *gorm.DB, until int64) ([]models.TimeEvent, error) {
	var events []models.TimeEvent
	err := db.
		Where("kind IN ? AND at <= ?", models.FocusKinds, until).
		Order("sequence asc").
		Find(&events).Error
	if err != nil {
		return nil, apperr.Storage(err, "list focus events")
	}
	return events, nil
}

// DeleteForTasks removes the event rows of hard-deleted tasks. Hard deletion
// is the one sanctioned exception to append-only.
func DeleteForTasks(tx *gorm.DB, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TimeEvent{}).Error
	if err != nil {
		return apperr.Storage(err, "delete events for %d tasks", len(taskIDs))
	}
	return nil
}
