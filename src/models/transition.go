package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AdvancePolicy decides how much stage progress is required before AdvanceStage succeeds
type AdvancePolicy struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
	// Manual skips the progress check entirely
	Manual bool `json:"manual"`
}

var (
	PolicyStrict  = AdvancePolicy{Name: "strict", Threshold: 100}
	PolicyRelaxed = AdvancePolicy{Name: "relaxed", Threshold: 80}
	PolicyManual  = AdvancePolicy{Name: "manual", Manual: true}
)

// ParseAdvancePolicy accepts strict, relaxed, manual or a bare threshold between 0 and 100.
// An empty value selects strict.
func ParseAdvancePolicy(raw string) (AdvancePolicy, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "", "strict":
		return PolicyStrict, nil
	case "relaxed":
		return PolicyRelaxed, nil
	case "manual":
		return PolicyManual, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return AdvancePolicy{}, NewValidationError(fmt.Sprintf("unknown advance policy %q", raw))
	}
	if n < 0 || n > 100 {
		return AdvancePolicy{}, &InvalidRangeError{Field: "threshold", Value: n, Min: 0, Max: 100}
	}
	return AdvancePolicy{Name: "custom", Threshold: n}, nil
}

// CanAdvance applies the transition guard for leaving stage with the given progress
func CanAdvance(stage Stage, progress int, policy AdvancePolicy) (Stage, error) {
	next, ok := stage.Next()
	if !ok {
		return "", &TerminalStageError{Stage: stage}
	}
	if !policy.Manual && progress < policy.Threshold {
		return "", &InsufficientProgressError{Stage: stage, Progress: progress, Threshold: policy.Threshold}
	}
	return next, nil
}

// StageHistory is one append-only entry of a connection's stage journey
type StageHistory struct {
	ConnectionID string    `json:"-" bson:"-" gorm:"primaryKey;type:varchar(36)"`
	Sequence     int       `json:"sequence" bson:"sequence" gorm:"primaryKey;autoIncrement:false"`
	Stage        Stage     `json:"stage" bson:"stage" gorm:"type:varchar(20)"`
	EnteredAt    time.Time `json:"enteredAt" bson:"enteredAt"`
	Reset        bool      `json:"reset,omitempty" bson:"reset,omitempty"`
}
