package models

type EventKind string

const (
	EventStart     EventKind = "start"
	EventPause     EventKind = "pause"
	EventResume    EventKind = "resume"
	EventStop      EventKind = "stop"
	EventRename    EventKind = "rename"
	EventReparent  EventKind = "reparent"
	EventTagAdd    EventKind = "tag_add"
	EventTagRemove EventKind = "tag_remove"
)

// LifecycleKinds are the event kinds that open or close running intervals.
var LifecycleKinds = []EventKind{EventStart, EventPause, EventResume, EventStop}

// FocusKinds are the event kinds that move focus onto a task.
var FocusKinds = []EventKind{EventStart, EventResume}

// TimeEvent is an immutable, append-only record. Rows are never updated or
// deleted (hard task deletion aside); corrections are represented by
// compensating future events. Sequence is assigned by the store and is the
// authoritative order; At carries the wall-clock second captured once per
// command, so every event of one command shares it.
type TimeEvent struct {
	Sequence uint64    `gorm:"primaryKey;autoIncrement" json:"sequence"`
	TaskID   string    `gorm:"size:36;not null" json:"task_id"`
	Kind     EventKind `gorm:"type:varchar(20);not null" json:"kind"`
	At       int64     `gorm:"not null" json:"at"`
	Payload  *string   `json:"payload,omitempty"`
}
