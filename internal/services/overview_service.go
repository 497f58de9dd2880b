package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
	"timefiles.com/timefiles/internal/replay"
	repository "timefiles.com/timefiles/internal/repositories"
	"timefiles.com/timefiles/internal/storage"
)

const (
	daySeconds  = 86_400
	weekSeconds = 7 * daySeconds
)

// OverviewService answers the read-only queries. Durations are never read
// from cached columns; every snapshot replays the event log over the
// requested window on a consistent read transaction.
type OverviewService struct {
	store *storage.Store
	now   func() int64
}

func NewOverviewService(store *storage.Store) *OverviewService {
	return &OverviewService{
		store: store,
		now:   unixNow,
	}
}

// Ping is the liveness probe.
func (s *OverviewService) Ping() string {
	return "pong"
}

// GetOverview replays the log over the resolved window and returns the
// snapshot of all non-archived tasks, the active context and the pending
// rest suggestion.
func (s *OverviewService) GetOverview(ctx context.Context, rng string) (*models.OverviewSnapshot, error) {
	generatedAt := s.now()
	windowStart, resolvedRange, err := resolveWindow(rng, generatedAt)
	if err != nil {
		return nil, err
	}

	var snapshot *models.OverviewSnapshot
	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := repository.NewTaskRepository(tx)
		taskRows, err := tasks.ListActive()
		if err != nil {
			return err
		}

		tagsByTask, err := repository.NewTagRepository(tx).NamesByTask()
		if err != nil {
			return err
		}

		events, err := eventlog.ListAll(tx)
		if err != nil {
			return err
		}

		parents := make(map[string]*string, len(taskRows))
		for _, task := range taskRows {
			parents[task.ID] = task.ParentID
		}
		totals := replay.Aggregate(events, parents, replay.Window{Start: windowStart, End: generatedAt})

		runner, err := tasks.FindRunning()
		if err != nil {
			return err
		}
		var activeTaskID *string
		if runner != nil {
			activeTaskID = &runner.ID
		}

		pending, err := repository.NewSuggestionRepository(tx).LatestPending()
		if err != nil {
			return err
		}
		suggestion, err := suggestionRecord(pending)
		if err != nil {
			return err
		}

		records := make([]models.TaskRecord, 0, len(taskRows))
		for _, task := range taskRows {
			tags := tagsByTask[task.ID]
			if tags == nil {
				tags = []string{}
			}
			records = append(records, models.TaskRecord{
				ID:               task.ID,
				ParentID:         task.ParentID,
				Title:            task.Title,
				Status:           task.Status,
				CreatedAt:        task.CreatedAt,
				Tags:             tags,
				InclusiveSeconds: totals.Inclusive[task.ID],
				ExclusiveSeconds: totals.Exclusive[task.ID],
			})
		}

		snapshot = &models.OverviewSnapshot{
			Range:          resolvedRange,
			GeneratedAt:    generatedAt,
			ActiveTaskID:   activeTaskID,
			RestSuggestion: suggestion,
			Tasks:          records,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func suggestionRecord(suggestion *models.RestSuggestion) (*models.RestSuggestionRecord, error) {
	if suggestion == nil {
		return nil, nil
	}
	var reasons []string
	if err := json.Unmarshal([]byte(suggestion.Reasons), &reasons); err != nil {
		return nil, apperr.Internal("decode suggestion %d reasons: %v", suggestion.ID, err)
	}
	return &models.RestSuggestionRecord{
		ID:               suggestion.ID,
		TriggerType:      suggestion.TriggerType,
		TaskID:           suggestion.TaskID,
		FocusSeconds:     suggestion.FocusSeconds,
		SwitchCount30m:   suggestion.SwitchCount30m,
		DeviationRatio:   suggestion.DeviationRatio,
		SuggestedMinutes: suggestion.SuggestedMinutes,
		Reasons:          reasons,
		Status:           suggestion.Status,
		CreatedAt:        suggestion.CreatedAt,
	}, nil
}

// resolveWindow maps a range name onto a window start. The empty range means
// "all". day and week are rolling windows; today starts at local midnight.
func resolveWindow(rng string, now int64) (*int64, string, error) {
	switch rng {
	case "", "all":
		return nil, "all", nil
	case "day":
		start := now - daySeconds
		return &start, "day", nil
	case "week":
		start := now - weekSeconds
		return &start, "week", nil
	case "today":
		start := localDayStart(now)
		return &start, "today", nil
	default:
		return nil, "", apperr.InvalidInput("unsupported range %q, expected one of: all, day, week, today", rng)
	}
}

func localDayStart(now int64) int64 {
	local := time.Unix(now, 0)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	return midnight.Unix()
}
