package storage

import (
	"log"

	"gorm.io/gorm"

	apperr "timefiles.com/timefiles/internal/errors"
)

type mirrorRow struct {
	ID       string
	Status   string
	LastKind *string
}

// repairMirror verifies, per task, that the cached status matches what the
// event log implies and rebuilds the rows that diverge. The event log and the
// mirror are written in the same transaction, so divergence only appears
// after out-of-band edits or a defective build; a recovery note is logged for
// each repaired row.
func repairMirror(db *gorm.DB) error {
	var rows []mirrorRow
	err := db.Raw(`
		SELECT t.id AS id, t.status AS status, (
			SELECT e.kind FROM time_events e
			WHERE e.task_id = t.id
			  AND e.kind IN ('start', 'pause', 'resume', 'stop')
			ORDER BY e.sequence DESC LIMIT 1
		) AS last_kind
		FROM tasks t
	`).Scan(&rows).Error
	if err != nil {
		return apperr.Storage(err, "verify tasks mirror")
	}

	for _, row := range rows {
		expected := statusFromLastEvent(row.LastKind)
		if row.Status == expected {
			continue
		}
		err := db.Exec("UPDATE tasks SET status = ? WHERE id = ?", expected, row.ID).Error
		if err != nil {
			return apperr.Storage(err, "rebuild status for task %s", row.ID)
		}
		log.Printf("storage: recovered task %s status %s -> %s (replayed from event log)",
			row.ID, row.Status, expected)
	}

	return nil
}

func statusFromLastEvent(kind *string) string {
	if kind == nil {
		return "idle"
	}
	switch *kind {
	case "start", "resume":
		return "running"
	case "pause":
		return "paused"
	default:
		return "stopped"
	}
}
