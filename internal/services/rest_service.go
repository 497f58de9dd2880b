package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"timefiles.com/timefiles/internal/advisor"
	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/notify"
	repository "timefiles.com/timefiles/internal/repositories"
	"timefiles.com/timefiles/internal/storage"
)

// RestService derives the rule-engine inputs from the event log at trigger
// points and owns the suggestion lifecycle: at most one pending row, each new
// trigger superseding the previous one.
type RestService struct {
	store    *storage.Store
	notifier notify.Notifier
	now      func() int64
}

func NewRestService(store *storage.Store, notifier notify.Notifier) *RestService {
	return &RestService{
		store:    store,
		notifier: notifier,
		now:      unixNow,
	}
}

// Respond accepts or ignores a pending suggestion. Unknown ids fail with
// NotFound; responding to an already-settled suggestion is a no-op.
func (s *RestService) Respond(ctx context.Context, suggestionID int64, accept bool) error {
	if suggestionID <= 0 {
		return apperr.InvalidInput("suggestion id must be positive")
	}

	status := models.SuggestionIgnored
	if accept {
		status = models.SuggestionAccepted
	}

	changed := false
	err := s.store.Command(func(db *gorm.DB) error {
		at := s.now()
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			changed, err = repository.NewSuggestionRepository(tx).Respond(suggestionID, status, at)
			return err
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

// evaluateTrigger computes focus, switch and deviation inputs from the event
// log, runs the rule engine and persists the new pending suggestion. It runs
// inside the caller's command scope, after the mutation transaction that
// produced the trigger committed, so the log already contains the closing
// event of the focus block under evaluation.
func (s *RestService) evaluateTrigger(db *gorm.DB, trigger models.TriggerType, anchorTaskID *string, at int64) error {
	var focusSeconds int64
	var history []int64

	if anchorTaskID != nil {
		intervals, err := closedIntervals(db, *anchorTaskID, at)
		if err != nil {
			return err
		}
		blocks := advisor.FocusBlocks(intervals)
		if len(blocks) > 0 {
			focusSeconds = blocks[len(blocks)-1]
			history = blocks[:len(blocks)-1]
		}
	}

	switchCount, err := countRecentSwitches(db, at)
	if err != nil {
		return err
	}
	deviation := advisor.DeviationRatio(focusSeconds, history)

	evaluation := advisor.Evaluate(advisor.Input{
		FocusSeconds:   focusSeconds,
		SwitchCount30m: switchCount,
		DeviationRatio: deviation,
	})

	reasons, err := json.Marshal(evaluation.Reasons)
	if err != nil {
		return apperr.Internal("encode suggestion reasons: %v", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		suggestions := repository.NewSuggestionRepository(tx)
		if err := suggestions.SupersedePending(at); err != nil {
			return err
		}
		return suggestions.Create(&models.RestSuggestion{
			TriggerType:      trigger,
			TaskID:           anchorTaskID,
			FocusSeconds:     focusSeconds,
			SwitchCount30m:   switchCount,
			DeviationRatio:   deviation,
			SuggestedMinutes: evaluation.SuggestedMinutes,
			Reasons:          string(reasons),
			Status:           models.SuggestionPending,
			CreatedAt:        at,
		})
	})
}

// closedIntervals pairs a task's start/resume events with the following
// pause/stop, up to the trigger time. An interval still open at the trigger
// is not counted; triggers always follow the closing event of the block they
// evaluate.
func closedIntervals(db *gorm.DB, taskID string, until int64) ([]advisor.Interval, error) {
	events, err := eventlog.LifecycleForTask(db, taskID, until)
	if err != nil {
		return nil, err
	}

	intervals := make([]advisor.Interval, 0, len(events)/2)
	var openSince *int64

	for _, event := range events {
		switch event.Kind {
		case models.EventStart, models.EventResume:
			if openSince == nil {
				at := event.At
				openSince = &at
			}
		case models.EventPause, models.EventStop:
			if openSince != nil {
				intervals = append(intervals, advisor.Interval{Start: *openSince, End: event.At})
				openSince = nil
			}
		}
	}

	return intervals, nil
}

// countRecentSwitches counts start/resume events inside the lookback window
// that target a different task than the one focused immediately before.
// Events preceding the window only seed the comparison.
func countRecentSwitches(db *gorm.DB, until int64) (int64, error) {
	events, err := eventlog.FocusEventsUntil(db, until)
	if err != nil {
		return 0, err
	}

	windowStart := until - advisor.SwitchWindowSeconds
	var previous string
	var switches int64

	for _, event := range events {
		if previous != "" && previous != event.TaskID && event.At >= windowStart {
			switches++
		}
		previous = event.TaskID
	}

	return switches, nil
}
