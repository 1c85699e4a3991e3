package services

import (
	"context"
	"fmt"

	"github.com/theleywin/Backend-Kindred/src/models"
)

// Recommendation is the informational suggestion shown next to a connection
type Recommendation struct {
	Text        string
	MilestoneID string
}

// Recommender produces suggestions for a connection. Implementations may call out to
// an external scoring service; their failures never block a command.
type Recommender interface {
	Recommend(ctx context.Context, c *models.Connection) (Recommendation, error)
}

var stageTips = map[models.Stage]string{
	models.StageHandshake:     "Ask about something from their profile you both enjoy.",
	models.StageCommunication: "Suggest a coffee date at a place you both discussed.",
	models.StageFaceToFace:    "Pick a relaxed public spot for your first meetup.",
}

// TemplateRecommender builds suggestions from the next milestone and per stage tips
type TemplateRecommender struct{}

func (TemplateRecommender) Recommend(_ context.Context, c *models.Connection) (Recommendation, error) {
	next := c.NextStep()
	if next.ReadyToAdvance {
		if c.Stage.IsTerminal() {
			return Recommendation{Text: "You've completed every milestone. Keep the connection going!"}, nil
		}
		following, _ := c.Stage.Next()
		return Recommendation{Text: fmt.Sprintf("You're ready to move on to %q.", following.Label())}, nil
	}

	m, ok := models.Milestones(c.Milestones).Find(next.MilestoneID)
	if !ok {
		return Recommendation{Text: "Continue building connection"}, nil
	}
	tip := stageTips[next.Stage]
	return Recommendation{
		Text:        fmt.Sprintf("Next step: %s. %s", m.Title, tip),
		MilestoneID: m.ID,
	}, nil
}
