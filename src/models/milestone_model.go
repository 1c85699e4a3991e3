package models

import (
	"fmt"
	"strings"
	"time"
)

// Milestone is a named step of a connection's lifecycle. It is owned by its Connection.
type Milestone struct {
	ID           string     `json:"id" bson:"id" gorm:"primaryKey;type:varchar(64)"`
	ConnectionID string     `json:"-" bson:"-" gorm:"primaryKey;type:varchar(36)"`
	Position     int        `json:"position" bson:"position"`
	Title        string     `json:"title" bson:"title"`
	Description  string     `json:"description" bson:"description"`
	Stage        Stage      `json:"stage,omitempty" bson:"stage,omitempty" gorm:"type:varchar(20)"`
	Completed    bool       `json:"completed" bson:"completed"`
	CompletedAt  *time.Time `json:"completedAt" bson:"completedAt,omitempty"`
	Progress     int        `json:"progress" bson:"progress"`
}

// TaggedFor reports whether the milestone counts toward the given stage.
// Untagged milestones span stages and never count.
func (m Milestone) TaggedFor(s Stage) bool {
	return m.Stage != "" && m.Stage == s
}

// Milestones is the ordered milestone list of one connection
type Milestones []Milestone

func (ms Milestones) index(id string) int {
	for i := range ms {
		if ms[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the milestone with the given id
func (ms Milestones) Find(id string) (Milestone, bool) {
	i := ms.index(id)
	if i < 0 {
		return Milestone{}, false
	}
	return ms[i], true
}

func (ms Milestones) CompletedCount() int {
	n := 0
	for _, m := range ms {
		if m.Completed {
			n++
		}
	}
	return n
}

func (ms Milestones) TotalCount() int {
	return len(ms)
}

// Complete marks a milestone done. Completing a milestone twice is a no-op that
// keeps the original completion time; changed reports whether anything was written.
func (ms Milestones) Complete(id string, now time.Time) (changed bool, err error) {
	i := ms.index(id)
	if i < 0 {
		return false, &NotFoundError{Kind: "milestone", ID: id}
	}
	if ms[i].Completed {
		return false, nil
	}
	at := now.UTC()
	ms[i].Completed = true
	ms[i].CompletedAt = &at
	ms[i].Progress = 100
	return true, nil
}

// UpdatePartialProgress sets the progress of an incomplete milestone.
// Reaching 100 is only possible through Complete.
func (ms Milestones) UpdatePartialProgress(id string, percent int) error {
	if percent < 0 || percent >= 100 {
		return &InvalidRangeError{Field: "progress", Value: percent, Min: 0, Max: 100, MaxExclusive: true}
	}
	i := ms.index(id)
	if i < 0 {
		return &NotFoundError{Kind: "milestone", ID: id}
	}
	if ms[i].Completed {
		return &AlreadyCompletedError{MilestoneID: id}
	}
	ms[i].Progress = percent
	return nil
}

// Append validates m and returns the list with m added at the end
func (ms Milestones) Append(m Milestone) (Milestones, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.Title = strings.TrimSpace(m.Title)
	if m.ID == "" {
		return ms, NewValidationError("milestone id is required")
	}
	if m.Title == "" {
		return ms, NewValidationError("milestone title is required")
	}
	if m.Stage != "" && !m.Stage.Valid() {
		return ms, NewValidationError(fmt.Sprintf("unknown stage %q", m.Stage))
	}
	if ms.index(m.ID) >= 0 {
		return ms, NewConflictError(fmt.Sprintf("milestone %q already exists", m.ID))
	}
	if m.Completed {
		return ms, NewValidationError("new milestones must start incomplete")
	}
	if m.Progress < 0 || m.Progress >= 100 {
		return ms, &InvalidRangeError{Field: "progress", Value: m.Progress, Min: 0, Max: 100, MaxExclusive: true}
	}
	m.CompletedAt = nil
	m.Position = len(ms)
	return append(ms, m), nil
}

func (ms Milestones) clone() Milestones {
	if ms == nil {
		return nil
	}
	out := make(Milestones, len(ms))
	for i, m := range ms {
		if m.CompletedAt != nil {
			at := *m.CompletedAt
			m.CompletedAt = &at
		}
		out[i] = m
	}
	return out
}
