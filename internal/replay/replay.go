// Package replay deterministically recomputes per-task durations from the
// event log. Identical history and window always produce identical totals;
// everything is integer arithmetic, nothing is accumulated in floats.
package replay

import (
	"timefiles.com/timefiles/internal/eventlog"
	"timefiles.com/timefiles/internal/models"
)

// Window bounds a query. Start is nil for the unbounded "all" range; End
// also closes any interval still open when the stream runs out, so callers
// pass min(now, t1).
type Window struct {
	Start *int64
	End   int64
}

// Totals holds per-task seconds. Exclusive is the time the task itself was
// running inside the window; Inclusive adds the inclusive time of all
// descendants.
type Totals struct {
	Exclusive map[string]int64
	Inclusive map[string]int64
}

// Aggregate streams events in sequence order, maintaining per-task
// running-since marks, and rolls exclusive seconds up the parent tree.
// parents is the current adjacency from the tasks mirror; reparent events
// adjust the working copy as they are encountered so the roll-up follows the
// same history the durations came from. Single active context means at most
// one task is ever marked running, so exclusive time needs no
// double-counting correction.
func Aggregate(events []models.TimeEvent, parents map[string]*string, window Window) Totals {
	working := make(map[string]*string, len(parents))
	for id, parentID := range parents {
		working[id] = parentID
	}

	runningSince := make(map[string]int64)
	exclusive := make(map[string]int64)

	for _, event := range events {
		switch event.Kind {
		case models.EventStart, models.EventResume:
			if _, open := runningSince[event.TaskID]; !open {
				runningSince[event.TaskID] = event.At
			}
		case models.EventPause, models.EventStop:
			if start, open := runningSince[event.TaskID]; open {
				delete(runningSince, event.TaskID)
				addInterval(exclusive, event.TaskID, start, event.At, window)
			}
		case models.EventReparent:
			if _, tracked := working[event.TaskID]; tracked {
				if to, ok := eventlog.DecodeReparentTo(event.Payload); ok {
					working[event.TaskID] = to
				}
			}
		}
	}

	// A task still running when the stream ends is clipped at the window end.
	for taskID, start := range runningSince {
		addInterval(exclusive, taskID, start, window.End, window)
	}

	return Totals{
		Exclusive: exclusive,
		Inclusive: rollUp(working, exclusive),
	}
}

func addInterval(exclusive map[string]int64, taskID string, start, end int64, window Window) {
	clippedStart := start
	if window.Start != nil && *window.Start > clippedStart {
		clippedStart = *window.Start
	}
	clippedEnd := end
	if window.End < clippedEnd {
		clippedEnd = window.End
	}
	if clippedEnd > clippedStart {
		exclusive[taskID] += clippedEnd - clippedStart
	}
}

// rollUp computes inclusive(t) = exclusive(t) + sum of inclusive(children)
// by memoized post-order traversal over the tracked tasks.
func rollUp(parents map[string]*string, exclusive map[string]int64) map[string]int64 {
	children := make(map[string][]string, len(parents))
	for id, parentID := range parents {
		if parentID != nil {
			children[*parentID] = append(children[*parentID], id)
		}
	}

	inclusive := make(map[string]int64, len(parents))
	visiting := make(map[string]struct{})

	var compute func(id string) int64
	compute = func(id string) int64 {
		if total, done := inclusive[id]; done {
			return total
		}
		if _, busy := visiting[id]; busy {
			// Corrupt adjacency; fall back to exclusive rather than recurse forever.
			return exclusive[id]
		}
		visiting[id] = struct{}{}

		total := exclusive[id]
		for _, childID := range children[id] {
			total += compute(childID)
		}

		delete(visiting, id)
		inclusive[id] = total
		return total
	}

	for id := range parents {
		compute(id)
	}
	return inclusive
}
