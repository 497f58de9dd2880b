package advisor

import (
	"reflect"
	"testing"
)

func TestEvaluateRules(t *testing.T) {
	cases := []struct {
		name    string
		input   Input
		minutes int
		reasons []string
	}{
		{
			name:    "long focus",
			input:   Input{FocusSeconds: 5400},
			minutes: 15,
			reasons: []string{"R1"},
		},
		{
			name:    "medium focus",
			input:   Input{FocusSeconds: 3000},
			minutes: 8,
			reasons: []string{"R2"},
		},
		{
			name:    "short focus",
			input:   Input{FocusSeconds: 900},
			minutes: 3,
			reasons: []string{"R3"},
		},
		{
			name:    "fragmented half hour",
			input:   Input{FocusSeconds: 700, SwitchCount30m: 5},
			minutes: 8,
			reasons: []string{"R4"},
		},
		{
			name:    "fragmented with short focus",
			input:   Input{FocusSeconds: 1800, SwitchCount30m: 5},
			minutes: 8,
			reasons: []string{"R3", "R4"},
		},
		{
			name:    "overrun",
			input:   Input{FocusSeconds: 1200, SwitchCount30m: 3, DeviationRatio: 0.5},
			minutes: 3,
			reasons: []string{"R3", "R5"},
		},
		{
			name:    "overrun needs enough focus",
			input:   Input{FocusSeconds: 700, SwitchCount30m: 3, DeviationRatio: 2.0},
			minutes: 0,
			reasons: []string{},
		},
		{
			name:    "quick task",
			input:   Input{FocusSeconds: 120, SwitchCount30m: 0},
			minutes: 0,
			reasons: []string{"R6"},
		},
		{
			name:    "long focus beats everything",
			input:   Input{FocusSeconds: 7200, SwitchCount30m: 9, DeviationRatio: 1.5},
			minutes: 15,
			reasons: []string{"R1", "R4", "R5"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.input)
			if got.SuggestedMinutes != tc.minutes {
				t.Errorf("suggested minutes = %d, want %d", got.SuggestedMinutes, tc.minutes)
			}
			if len(got.Reasons) == 0 && len(tc.reasons) == 0 {
				return
			}
			if !reflect.DeepEqual(got.Reasons, tc.reasons) {
				t.Errorf("reasons = %v, want %v", got.Reasons, tc.reasons)
			}
		})
	}
}

func TestFocusBlocksMergesShortGaps(t *testing.T) {
	blocks := FocusBlocks([]Interval{
		{Start: 0, End: 1000},
		{Start: 1060, End: 2000}, // 60s gap, merges
	})
	want := []int64{1940}
	if !reflect.DeepEqual(blocks, want) {
		t.Fatalf("blocks = %v, want %v", blocks, want)
	}
}

func TestFocusBlocksSplitsAtGapThreshold(t *testing.T) {
	blocks := FocusBlocks([]Interval{
		{Start: 0, End: 1000},
		{Start: 1120, End: 2000}, // exactly 120s gap, splits
		{Start: 2050, End: 2300}, // 50s gap, merges into second block
	})
	want := []int64{1000, 1130}
	if !reflect.DeepEqual(blocks, want) {
		t.Fatalf("blocks = %v, want %v", blocks, want)
	}
}

func TestFocusBlocksEmpty(t *testing.T) {
	if blocks := FocusBlocks(nil); blocks != nil {
		t.Fatalf("expected no blocks, got %v", blocks)
	}
}

func TestDeviationRatio(t *testing.T) {
	if ratio := DeviationRatio(1800, nil); ratio != 0 {
		t.Errorf("no history should yield 0, got %f", ratio)
	}
	if ratio := DeviationRatio(1500, []int64{1000}); ratio != 0.5 {
		t.Errorf("ratio = %f, want 0.5", ratio)
	}
	// Median of an even count averages the middle pair.
	if ratio := DeviationRatio(3000, []int64{1000, 2000, 3000, 4000}); ratio != 0.2 {
		t.Errorf("ratio = %f, want 0.2", ratio)
	}
	// Deviation is symmetric: running far under the median also counts.
	if ratio := DeviationRatio(500, []int64{1000}); ratio != 0.5 {
		t.Errorf("ratio = %f, want 0.5", ratio)
	}
}
