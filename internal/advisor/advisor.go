// Package advisor is the rule engine behind rest suggestions. It is pure:
// the service layer derives the inputs from the event log and persists the
// outcome.
package advisor

import "sort"

const (
	// FocusGapSeconds is the pause length below which two running intervals
	// merge into one focus block.
	FocusGapSeconds = 120

	// SwitchWindowSeconds bounds the task-switch lookback.
	SwitchWindowSeconds = 1800
)

// Rule thresholds, in seconds unless noted.
const (
	longFocusSeconds    = 5400
	mediumFocusSeconds  = 3000
	shortFocusSeconds   = 900
	overrunFocusSeconds = 1200
	quickFocusSeconds   = 600

	fragmentedSwitches = 5
	quickSwitches      = 3

	overrunDeviation = 0.5
)

type Input struct {
	FocusSeconds   int64
	SwitchCount30m int64
	DeviationRatio float64
}

type Evaluation struct {
	SuggestedMinutes int
	Reasons          []string
}

// Evaluate runs rules R1..R6 in order. Each firing rule contributes a floor
// on the suggested minutes and its id to the reasons; the result is the
// maximum contribution snapped to {0, 3, 8, 15}.
func Evaluate(in Input) Evaluation {
	minutes := 0
	reasons := make([]string, 0, 3)

	fire := func(rule string, floor int) {
		reasons = append(reasons, rule)
		if floor > minutes {
			minutes = floor
		}
	}

	switch {
	case in.FocusSeconds >= longFocusSeconds:
		fire("R1", 15)
	case in.FocusSeconds >= mediumFocusSeconds:
		fire("R2", 8)
	case in.FocusSeconds >= shortFocusSeconds:
		fire("R3", 3)
	}
	if in.SwitchCount30m >= fragmentedSwitches {
		fire("R4", 8)
	}
	if in.DeviationRatio >= overrunDeviation && in.FocusSeconds >= overrunFocusSeconds {
		fire("R5", 3)
	}
	if in.FocusSeconds < quickFocusSeconds && in.SwitchCount30m < quickSwitches {
		fire("R6", 0)
	}

	return Evaluation{SuggestedMinutes: snap(minutes), Reasons: reasons}
}

func snap(minutes int) int {
	switch {
	case minutes >= 15:
		return 15
	case minutes >= 8:
		return 8
	case minutes >= 3:
		return 3
	default:
		return 0
	}
}

// Interval is one closed running span of a task.
type Interval struct {
	Start int64
	End   int64
}

// FocusBlocks merges running intervals whose separating pause is shorter
// than FocusGapSeconds and returns the running seconds of each block, oldest
// first. Gaps do not count toward a block's seconds.
func FocusBlocks(intervals []Interval) []int64 {
	if len(intervals) == 0 {
		return nil
	}

	blocks := make([]int64, 0, len(intervals))
	var current int64
	lastEnd := intervals[0].Start

	for i, interval := range intervals {
		if i > 0 && interval.Start-lastEnd >= FocusGapSeconds {
			blocks = append(blocks, current)
			current = 0
		}
		current += interval.End - interval.Start
		lastEnd = interval.End
	}

	return append(blocks, current)
}

// DeviationRatio is |focus - expected| / expected where expected is the
// median of the task's prior completed focus blocks. No history means no
// expectation, so the ratio is zero.
func DeviationRatio(focusSeconds int64, history []int64) float64 {
	if len(history) == 0 {
		return 0
	}
	expected := median(history)
	if expected <= 0 {
		return 0
	}
	diff := focusSeconds - expected
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(expected)
}

func median(values []int64) int64 {
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
