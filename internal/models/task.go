package models

// TaskStatus is the lifecycle state mirrored on the tasks table. The event
// log is authoritative; this column is a per-row cache maintained in the same
// transaction as the event that changes it.
type TaskStatus string

const (
	StatusIdle    TaskStatus = "idle"
	StatusRunning TaskStatus = "running"
	StatusPaused  TaskStatus = "paused"
	StatusStopped TaskStatus = "stopped"
)

type Task struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	ParentID   *string    `gorm:"size:36;index" json:"parent_id,omitempty"`
	Title      string     `gorm:"not null" json:"title"`
	Status     TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt  int64      `gorm:"not null" json:"created_at"`
	ArchivedAt *int64     `json:"archived_at,omitempty"`
}

// Archived reports whether the task has been soft-deleted.
func (t *Task) Archived() bool {
	return t.ArchivedAt != nil
}
