package models

// Tag names are case-preserving but matched case-insensitively, so "Deep"
// and "deep" resolve to the same row.
type Tag struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Name      string `gorm:"not null;unique" json:"name"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}

type TaskTag struct {
	TaskID    string `gorm:"primaryKey;size:36" json:"task_id"`
	TagID     string `gorm:"primaryKey;size:36" json:"tag_id"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
}
