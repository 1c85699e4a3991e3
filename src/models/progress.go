package models

import "math"

// NextStep is the recommended next milestone for a connection.
// ReadyToAdvance is set when no incomplete milestone is left to suggest.
type NextStep struct {
	MilestoneID    string `json:"milestoneId,omitempty"`
	Stage          Stage  `json:"stage,omitempty"`
	ReadyToAdvance bool   `json:"readyToAdvance"`
}

// StageProgress returns the completion percentage of the milestones tagged for stage.
// A stage with no tagged milestones is vacuously complete (100).
func StageProgress(ms Milestones, stage Stage) int {
	tagged := 0
	var done float64
	for _, m := range ms {
		if !m.TaggedFor(stage) {
			continue
		}
		tagged++
		if m.Completed {
			done++
			continue
		}
		done += float64(clampPercent(m.Progress)) / 100
	}
	if tagged == 0 {
		return 100
	}
	return clampPercent(int(math.Round(100 * done / float64(tagged))))
}

// RecommendNextStep picks the first incomplete milestone of the current stage,
// then of the next stage, and otherwise reports ready to advance.
func RecommendNextStep(ms Milestones, stage Stage) NextStep {
	if m, ok := firstIncomplete(ms, stage); ok {
		return NextStep{MilestoneID: m.ID, Stage: stage}
	}
	if next, ok := stage.Next(); ok {
		if m, ok := firstIncomplete(ms, next); ok {
			return NextStep{MilestoneID: m.ID, Stage: next}
		}
	}
	return NextStep{ReadyToAdvance: true}
}

func firstIncomplete(ms Milestones, stage Stage) (Milestone, bool) {
	for _, m := range ms {
		if m.TaggedFor(stage) && !m.Completed {
			return m, true
		}
	}
	return Milestone{}, false
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
