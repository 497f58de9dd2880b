package storage

import (
	"log"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
)

// Schema changes are applied only through this forward-only list; each entry
// runs inside its own transaction and bumps meta.schema_version. The compiled
// list is immutable process-wide state.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "core tables",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				parent_id TEXT REFERENCES tasks(id),
				title TEXT NOT NULL CHECK(length(trim(title)) > 0),
				status TEXT NOT NULL CHECK(status IN ('idle', 'running', 'paused', 'stopped')),
				created_at INTEGER NOT NULL,
				archived_at INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_parent_id ON tasks(parent_id)`,
			`CREATE TABLE IF NOT EXISTS tags (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS task_tags (
				task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				created_at INTEGER NOT NULL,
				PRIMARY KEY (task_id, tag_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_task_tags_tag_id ON task_tags(tag_id)`,
			`CREATE TABLE IF NOT EXISTS time_events (
				sequence INTEGER PRIMARY KEY AUTOINCREMENT,
				task_id TEXT NOT NULL REFERENCES tasks(id),
				kind TEXT NOT NULL CHECK(
					kind IN ('start', 'pause', 'resume', 'stop', 'rename', 'reparent', 'tag_add', 'tag_remove')
				),
				at INTEGER NOT NULL,
				payload TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_time_events_task_sequence ON time_events(task_id, sequence)`,
			`CREATE INDEX IF NOT EXISTS idx_time_events_at ON time_events(at)`,
		},
	},
	{
		version: 2,
		name:    "rest suggestions",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS rest_suggestions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				trigger_type TEXT NOT NULL CHECK(trigger_type IN ('subtask_end', 'task_switch')),
				task_id TEXT REFERENCES tasks(id),
				focus_seconds INTEGER NOT NULL,
				switch_count_30m INTEGER NOT NULL,
				deviation_ratio REAL NOT NULL,
				suggested_minutes INTEGER NOT NULL CHECK(suggested_minutes IN (0, 3, 8, 15)),
				reasons TEXT NOT NULL,
				status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'ignored')),
				created_at INTEGER NOT NULL,
				responded_at INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_rest_suggestions_status
				ON rest_suggestions(status, created_at DESC, id DESC)`,
		},
	},
}

// Migrate compares the on-disk schema_version with the compiled migration
// list and applies whatever is missing, in order. A version newer than the
// binary knows is a fatal initialization error.
func Migrate(db *gorm.DB) error {
	if err := ensureMeta(db); err != nil {
		return err
	}

	version, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	latest := migrations[len(migrations)-1].version
	if version > latest {
		return apperr.Storage(nil,
			"database schema version %d is newer than the supported version %d", version, latest)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			for _, statement := range m.statements {
				if err := tx.Exec(statement).Error; err != nil {
					return err
				}
			}
			return tx.Exec("UPDATE meta SET schema_version = ?", m.version).Error
		})
		if err != nil {
			return apperr.Storage(err, "apply schema migration %d (%s)", m.version, m.name)
		}
		log.Printf("storage: applied schema migration %d (%s)", m.version, m.name)
	}

	return nil
}

func ensureMeta(db *gorm.DB) error {
	var name string
	err := db.Raw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'meta' LIMIT 1",
	).Scan(&name).Error
	if err != nil {
		return apperr.Storage(err, "inspect schema metadata")
	}

	if name == "meta" {
		var count int64
		if err := db.Raw("SELECT COUNT(*) FROM meta").Scan(&count).Error; err != nil {
			return apperr.Storage(err, "read schema metadata")
		}
		if count == 0 {
			return apperr.Storage(nil, "meta table exists but carries no schema_version row")
		}
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("CREATE TABLE meta (schema_version INTEGER NOT NULL)").Error; err != nil {
			return apperr.Storage(err, "create meta table")
		}
		if err := tx.Exec("INSERT INTO meta (schema_version) VALUES (0)").Error; err != nil {
			return apperr.Storage(err, "seed schema_version")
		}
		return nil
	})
}

// SchemaVersion reads the current on-disk schema version.
func SchemaVersion(db *gorm.DB) (int, error) {
	var version int
	err := db.Raw("SELECT schema_version FROM meta LIMIT 1").Scan(&version).Error
	if err != nil {
		return 0, apperr.Storage(err, "read schema_version")
	}
	return version, nil
}
