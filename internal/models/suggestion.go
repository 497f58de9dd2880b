package models

type TriggerType string

const (
	TriggerSubtaskEnd TriggerType = "subtask_end"
	TriggerTaskSwitch TriggerType = "task_switch"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionIgnored  SuggestionStatus = "ignored"
)

// RestSuggestion is an advisory record produced by the rule engine at switch
// and subtask-end trigger points. At most one row is pending at any time; a
// new trigger supersedes the previous pending row by marking it ignored.
type RestSuggestion struct {
	ID               int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	TriggerType      TriggerType      `gorm:"type:varchar(20);not null" json:"trigger_type"`
	TaskID           *string          `gorm:"size:36" json:"task_id,omitempty"`
	FocusSeconds     int64            `gorm:"not null" json:"focus_seconds"`
	SwitchCount30m   int64            `gorm:"column:switch_count_30m;not null" json:"switch_count_30m"`
	DeviationRatio   float64          `gorm:"not null" json:"deviation_ratio"`
	SuggestedMinutes int              `gorm:"not null" json:"suggested_minutes"`
	Reasons          string           `gorm:"not null" json:"-"`
	Status           SuggestionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt        int64            `gorm:"not null" json:"created_at"`
	RespondedAt      *int64           `json:"responded_at,omitempty"`
}
