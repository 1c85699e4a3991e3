package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Connection is the aggregate tracking two participants through the stage lifecycle.
// Participants are opaque references owned by the auth provider.
// ReadyToAdvance is not stored; EvaluateAdvance sets it for the active policy.
type Connection struct {
	ID                string         `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ParticipantA      string         `json:"participantA" bson:"participantA" gorm:"index;type:varchar(64)"`
	ParticipantB      string         `json:"participantB" bson:"participantB" gorm:"index;type:varchar(64)"`
	PairKey           string         `json:"-" bson:"pairKey" gorm:"uniqueIndex;type:varchar(130)"`
	Type              ConnectionType `json:"type" bson:"type" gorm:"type:varchar(32)"`
	Stage             Stage          `json:"stage" bson:"stage" gorm:"index;type:varchar(20)"`
	StageProgress     int            `json:"stageProgress" bson:"stageProgress"`
	NextMilestoneID   string         `json:"nextMilestoneId,omitempty" bson:"nextMilestoneId,omitempty" gorm:"type:varchar(64)"`
	ReadyToAdvance    bool           `json:"readyToAdvance" bson:"-" gorm:"-"`
	Milestones        []Milestone    `json:"milestones" bson:"milestones" gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE"`
	History           []StageHistory `json:"history" bson:"history" gorm:"foreignKey:ConnectionID;constraint:OnDelete:CASCADE"`
	Insights          Insights       `json:"insights" bson:"insights" gorm:"embedded;embeddedPrefix:insight_"`
	Guidance          Guidance       `json:"guidance" bson:"guidance" gorm:"embedded;embeddedPrefix:guidance_"`
	CreatedAt         time.Time      `json:"createdAt" bson:"createdAt"`
	LastInteractionAt time.Time      `json:"lastInteractionAt" bson:"lastInteractionAt" gorm:"index"`
	Version           int            `json:"version" bson:"version"`
}

// Insights are supplied by the external scoring service and stored as-is
type Insights struct {
	CompatibilityScore   int        `json:"compatibilityScore" bson:"compatibilityScore"`
	Recommendation       string     `json:"recommendation" bson:"recommendation" gorm:"type:text"`
	SuggestedMilestoneID string     `json:"suggestedMilestoneId,omitempty" bson:"suggestedMilestoneId,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt            *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Guidance is the built-in next step suggestion, refreshed after every milestone or stage change.
// It never overwrites Insights.
type Guidance struct {
	Text        string `json:"text" bson:"text" gorm:"type:text"`
	MilestoneID string `json:"milestoneId,omitempty" bson:"milestoneId,omitempty" gorm:"type:varchar(64)"`
}

// ProgressReport is returned by milestone operations
type ProgressReport struct {
	Stage         Stage    `json:"stage"`
	StageProgress int      `json:"stageProgress"`
	NextStep      NextStep `json:"nextStep"`
	// Changed is false when the operation was an idempotent repeat
	Changed bool `json:"changed"`
}

// PairKey returns the order independent key of a participant pair
func PairKey(a, b string) string {
	ids := []string{strings.TrimSpace(a), strings.TrimSpace(b)}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

// NewConnection creates a connection at the handshake stage with milestones seeded from tpl
func NewConnection(participantA, participantB string, kind ConnectionType, tpl []MilestoneTemplate, now time.Time) (*Connection, error) {
	a, b := strings.TrimSpace(participantA), strings.TrimSpace(participantB)
	if a == "" || b == "" {
		return nil, NewValidationError("both participants are required")
	}
	if a == b {
		return nil, NewValidationError("a participant cannot connect with themselves")
	}
	if kind == "" {
		kind = ConnectionTypeDating
	}
	now = now.UTC()
	c := &Connection{
		ID:                uuid.NewString(),
		ParticipantA:      a,
		ParticipantB:      b,
		PairKey:           PairKey(a, b),
		Type:              kind,
		Stage:             StageHandshake,
		CreatedAt:         now,
		LastInteractionAt: now,
	}
	ms := Milestones{}
	for _, t := range tpl {
		var err error
		ms, err = ms.Append(t.Milestone())
		if err != nil {
			return nil, err
		}
	}
	c.setMilestones(ms)
	c.History = []StageHistory{{ConnectionID: c.ID, Sequence: 0, Stage: StageHandshake, EnteredAt: now}}
	c.refresh()
	return c, nil
}

func (c *Connection) milestones() Milestones { return Milestones(c.Milestones) }

func (c *Connection) setMilestones(ms Milestones) {
	for i := range ms {
		ms[i].ConnectionID = c.ID
	}
	c.Milestones = []Milestone(ms)
}

// refresh recomputes every derived field from milestone state
func (c *Connection) refresh() {
	c.StageProgress = StageProgress(c.milestones(), c.Stage)
	next := RecommendNextStep(c.milestones(), c.Stage)
	c.NextMilestoneID = next.MilestoneID
}

func (c *Connection) report(changed bool) ProgressReport {
	return ProgressReport{
		Stage:         c.Stage,
		StageProgress: c.StageProgress,
		NextStep:      c.NextStep(),
		Changed:       changed,
	}
}

// NextStep returns the recommendation derived from current milestone state
func (c *Connection) NextStep() NextStep {
	return RecommendNextStep(c.milestones(), c.Stage)
}

// CanAdvance reports whether AdvanceStage would succeed under policy
func (c *Connection) CanAdvance(policy AdvancePolicy) bool {
	_, err := CanAdvance(c.Stage, c.StageProgress, policy)
	return err == nil
}

// EvaluateAdvance sets ReadyToAdvance for policy
func (c *Connection) EvaluateAdvance(policy AdvancePolicy) {
	c.ReadyToAdvance = c.CanAdvance(policy)
}

// Involves reports whether participant is one of the two sides of the connection
func (c *Connection) Involves(participant string) bool {
	return participant != "" && (c.ParticipantA == participant || c.ParticipantB == participant)
}

// Counterpart returns the other participant, or "" if participant is not part of the connection
func (c *Connection) Counterpart(participant string) string {
	switch participant {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	}
	return ""
}

func (c *Connection) RecordInteraction(now time.Time) {
	c.LastInteractionAt = now.UTC()
}

// CompleteMilestone completes a milestone and recomputes progress. Repeats succeed without changes.
func (c *Connection) CompleteMilestone(id string, now time.Time) (ProgressReport, error) {
	changed, err := c.milestones().Complete(id, now)
	if err != nil {
		return ProgressReport{}, err
	}
	c.refresh()
	return c.report(changed), nil
}

func (c *Connection) UpdateMilestoneProgress(id string, percent int) (ProgressReport, error) {
	if err := c.milestones().UpdatePartialProgress(id, percent); err != nil {
		return ProgressReport{}, err
	}
	c.refresh()
	return c.report(true), nil
}

// AddMilestone appends a milestone. A blank id gets a generated one.
func (c *Connection) AddMilestone(m Milestone) (Milestone, error) {
	if strings.TrimSpace(m.ID) == "" {
		m.ID = uuid.NewString()
	}
	ms, err := c.milestones().Append(m)
	if err != nil {
		return Milestone{}, err
	}
	c.setMilestones(ms)
	c.refresh()
	return ms[len(ms)-1], nil
}

// AdvanceStage moves to the next stage when the policy allows it
func (c *Connection) AdvanceStage(policy AdvancePolicy, now time.Time) error {
	next, err := CanAdvance(c.Stage, c.StageProgress, policy)
	if err != nil {
		return err
	}
	c.enterStage(next, now, false)
	return nil
}

// ResetToStage forces the stage without checking transition rules.
// It is meant for corrective and administrative use only and is always recorded as a reset.
func (c *Connection) ResetToStage(stage Stage, now time.Time) error {
	if !stage.Valid() {
		return NewValidationError("unknown stage " + string(stage))
	}
	c.enterStage(stage, now, true)
	return nil
}

func (c *Connection) enterStage(stage Stage, now time.Time, reset bool) {
	c.Stage = stage
	c.History = append(c.History, StageHistory{
		ConnectionID: c.ID,
		Sequence:     len(c.History),
		Stage:        stage,
		EnteredAt:    now.UTC(),
		Reset:        reset,
	})
	c.refresh()
}

// SetInsights stores externally computed insights
func (c *Connection) SetInsights(in Insights, now time.Time) error {
	if in.CompatibilityScore < 0 || in.CompatibilityScore > 100 {
		return &InvalidRangeError{Field: "compatibilityScore", Value: in.CompatibilityScore, Min: 0, Max: 100}
	}
	if in.SuggestedMilestoneID != "" {
		if _, ok := c.milestones().Find(in.SuggestedMilestoneID); !ok {
			return &NotFoundError{Kind: "milestone", ID: in.SuggestedMilestoneID}
		}
	}
	at := now.UTC()
	in.UpdatedAt = &at
	c.Insights = in
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine
func (c *Connection) Clone() *Connection {
	if c == nil {
		return nil
	}
	out := *c
	out.Milestones = []Milestone(c.milestones().clone())
	if c.History != nil {
		out.History = make([]StageHistory, len(c.History))
		copy(out.History, c.History)
	}
	if c.Insights.UpdatedAt != nil {
		at := *c.Insights.UpdatedAt
		out.Insights.UpdatedAt = &at
	}
	return &out
}

// MarshalJSON adds display fields derived from the stage
func (c Connection) MarshalJSON() ([]byte, error) {
	type Alias Connection
	return json.Marshal(&struct {
		StageLabel string `json:"stageLabel"`
		StageColor string `json:"stageColor"`
		TypeColor  string `json:"typeColor"`
		Completed  int    `json:"completedMilestones"`
		Total      int    `json:"totalMilestones"`
		Alias
	}{
		StageLabel: c.Stage.Label(),
		StageColor: c.Stage.Color(),
		TypeColor:  c.Type.Color(),
		Completed:  c.milestones().CompletedCount(),
		Total:      c.milestones().TotalCount(),
		Alias:      Alias(c),
	})
}
