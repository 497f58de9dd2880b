package models

// TaskRecord is the outward-facing projection of a task inside an overview
// snapshot, with durations computed over the requested window.
type TaskRecord struct {
	ID               string     `json:"id"`
	ParentID         *string    `json:"parent_id,omitempty"`
	Title            string     `json:"title"`
	Status           TaskStatus `json:"status"`
	CreatedAt        int64      `json:"created_at"`
	Tags             []string   `json:"tags"`
	InclusiveSeconds int64      `json:"inclusive_seconds"`
	ExclusiveSeconds int64      `json:"exclusive_seconds"`
}

// RestSuggestionRecord is the outward-facing projection of a rest suggestion
// with the reasons list decoded.
type RestSuggestionRecord struct {
	ID               int64            `json:"id"`
	TriggerType      TriggerType      `json:"trigger_type"`
	TaskID           *string          `json:"task_id,omitempty"`
	FocusSeconds     int64            `json:"focus_seconds"`
	SwitchCount30m   int64            `json:"switch_count_30m"`
	DeviationRatio   float64          `json:"deviation_ratio"`
	SuggestedMinutes int              `json:"suggested_minutes"`
	Reasons          []string         `json:"reasons"`
	Status           SuggestionStatus `json:"status"`
	CreatedAt        int64            `json:"created_at"`
}

type OverviewSnapshot struct {
	Range          string                `json:"range"`
	GeneratedAt    int64                 `json:"generated_at"`
	ActiveTaskID   *string               `json:"active_task_id,omitempty"`
	RestSuggestion *RestSuggestionRecord `json:"rest_suggestion,omitempty"`
	Tasks          []TaskRecord          `json:"tasks"`
}
