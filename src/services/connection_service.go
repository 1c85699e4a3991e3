package services

import (
	"context"
	"errors"
	"time"

	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
	"github.com/theleywin/Backend-Kindred/src/store"
)

type Deps struct {
	Store         store.ConnectionStore
	Reads         *store.CachedReader
	Notifications store.NotificationStore
	Locker        Locker
	Recommender   Recommender
	Templates     models.TemplateSet
	Policy        models.AdvancePolicy
	Clock         func() time.Time
	Log           *lib.Logger
}

// ConnectionService runs connection commands with one serialized writer per
// connection id and serves reads from snapshots.
type ConnectionService struct {
	store         store.ConnectionStore
	reads         *store.CachedReader
	notifications store.NotificationStore
	locker        Locker
	recommender   Recommender
	templates     models.TemplateSet
	policy        models.AdvancePolicy
	now           func() time.Time
	log           *lib.Logger
}

func NewConnectionService(d Deps) (*ConnectionService, error) {
	if d.Store == nil {
		return nil, errors.New("connection service requires a store")
	}
	if d.Log == nil {
		d.Log = lib.NopLogger()
	}
	if d.Reads == nil {
		reads, err := store.NewCachedReader(d.Store, 1024, d.Log)
		if err != nil {
			return nil, err
		}
		d.Reads = reads
	}
	if d.Locker == nil {
		d.Locker = NewKeyedMutex()
	}
	if d.Recommender == nil {
		d.Recommender = TemplateRecommender{}
	}
	if d.Templates == nil {
		d.Templates = models.DefaultTemplates()
	}
	if d.Policy == (models.AdvancePolicy{}) {
		d.Policy = models.PolicyStrict
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &ConnectionService{
		store:         d.Store,
		reads:         d.Reads,
		notifications: d.Notifications,
		locker:        d.Locker,
		recommender:   d.Recommender,
		templates:     d.Templates,
		policy:        d.Policy,
		now:           d.Clock,
		log:           d.Log.With("service", "ConnectionService"),
	}, nil
}

// Policy returns the advance policy in effect
func (s *ConnectionService) Policy() models.AdvancePolicy {
	return s.policy
}

// CreateConnection starts tracking a mutual match between two participants
func (s *ConnectionService) CreateConnection(ctx context.Context, participantA, participantB string, kind models.ConnectionType) (*models.Connection, error) {
	c, err := models.NewConnection(participantA, participantB, kind, s.templates.For(kind), s.now())
	if err != nil {
		return nil, err
	}
	s.refreshRecommendation(ctx, c)

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.reads.Put(c)
	s.log.Info("Connection created", "connection_id", c.ID, "type", c.Type)

	s.notify(ctx, c, models.NotificationTypeConnectionCreated, c.ParticipantA, c.ParticipantB, "")
	s.notify(ctx, c, models.NotificationTypeConnectionCreated, c.ParticipantB, c.ParticipantA, "")
	return s.view(c.Clone()), nil
}

// GetConnection returns a possibly stale snapshot
func (s *ConnectionService) GetConnection(ctx context.Context, id string) (*models.Connection, error) {
	c, err := s.reads.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *ConnectionService) ListConnectionsForParticipant(ctx context.Context, participant string, stage *models.Stage) ([]*models.Connection, error) {
	conns, err := s.store.ListForParticipant(ctx, participant, stage)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		s.view(c)
	}
	return conns, nil
}

func (s *ConnectionService) Stats(ctx context.Context, participant string) (models.Stats, error) {
	conns, err := s.store.ListForParticipant(ctx, participant, nil)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Summarize(conns, s.policy, s.now()), nil
}

func (s *ConnectionService) RecordInteraction(ctx context.Context, id string) (*models.Connection, error) {
	return s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		c.RecordInteraction(s.now())
		return true, nil
	})
}

// CompleteMilestone completes a milestone on behalf of actor. Repeating it succeeds without writing.
func (s *ConnectionService) CompleteMilestone(ctx context.Context, id, milestoneID, actor string) (*models.Connection, models.ProgressReport, error) {
	var report models.ProgressReport
	c, err := s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		var err error
		report, err = c.CompleteMilestone(milestoneID, s.now())
		if err != nil || !report.Changed {
			return false, err
		}
		s.refreshRecommendation(ctx, c)
		return true, nil
	})
	if err != nil {
		return nil, models.ProgressReport{}, err
	}
	if report.Changed {
		s.notify(ctx, c, models.NotificationTypeMilestoneCompleted, c.Counterpart(actor), actor, milestoneID)
	}
	return c, report, nil
}

func (s *ConnectionService) UpdateMilestoneProgress(ctx context.Context, id, milestoneID string, percent int) (*models.Connection, models.ProgressReport, error) {
	var report models.ProgressReport
	c, err := s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		var err error
		report, err = c.UpdateMilestoneProgress(milestoneID, percent)
		if err != nil {
			return false, err
		}
		s.refreshRecommendation(ctx, c)
		return true, nil
	})
	if err != nil {
		return nil, models.ProgressReport{}, err
	}
	return c, report, nil
}

func (s *ConnectionService) AddMilestone(ctx context.Context, id string, m models.Milestone) (*models.Connection, models.Milestone, error) {
	var added models.Milestone
	c, err := s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		var err error
		added, err = c.AddMilestone(m)
		if err != nil {
			return false, err
		}
		s.refreshRecommendation(ctx, c)
		return true, nil
	})
	if err != nil {
		return nil, models.Milestone{}, err
	}
	return c, added, nil
}

// AdvanceStage moves the connection forward under the configured policy
func (s *ConnectionService) AdvanceStage(ctx context.Context, id string) (*models.Connection, error) {
	c, err := s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		if err := c.AdvanceStage(s.policy, s.now()); err != nil {
			return false, err
		}
		s.refreshRecommendation(ctx, c)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Connection advanced", "connection_id", c.ID, "stage", c.Stage)
	s.notify(ctx, c, models.NotificationTypeStageAdvanced, c.ParticipantA, c.ParticipantB, "")
	s.notify(ctx, c, models.NotificationTypeStageAdvanced, c.ParticipantB, c.ParticipantA, "")
	return c, nil
}

// ResetToStage forces the stage, bypassing transition rules. Administrative use only.
func (s *ConnectionService) ResetToStage(ctx context.Context, id string, stage models.Stage) (*models.Connection, error) {
	c, err := s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		if err := c.ResetToStage(stage, s.now()); err != nil {
			return false, err
		}
		s.refreshRecommendation(ctx, c)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn("Connection stage reset", "connection_id", c.ID, "stage", c.Stage)
	return c, nil
}

// SetInsights stores insights pushed by the scoring service
func (s *ConnectionService) SetInsights(ctx context.Context, id string, in models.Insights) (*models.Connection, error) {
	return s.mutate(ctx, id, func(c *models.Connection) (bool, error) {
		return true, c.SetInsights(in, s.now())
	})
}

// mutate loads the connection under its writer lock, applies fn and saves the result.
// fn returning write=false skips the save; any error leaves the stored connection untouched.
func (s *ConnectionService) mutate(ctx context.Context, id string, fn func(c *models.Connection) (write bool, err error)) (*models.Connection, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	write, err := fn(c)
	if err != nil {
		return nil, err
	}
	if !write {
		s.reads.Put(c)
		return s.view(c.Clone()), nil
	}
	if err := s.store.Save(ctx, c); err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.reads.Invalidate(id)
			s.log.Warn("Concurrent connection write rejected", "connection_id", id)
		}
		return nil, err
	}
	s.reads.Put(c)
	return s.view(c.Clone()), nil
}

// view fills the policy dependent fields of a connection about to be returned
func (s *ConnectionService) view(c *models.Connection) *models.Connection {
	c.EvaluateAdvance(s.policy)
	return c
}

func (s *ConnectionService) refreshRecommendation(ctx context.Context, c *models.Connection) {
	rec, err := s.recommender.Recommend(ctx, c)
	if err != nil {
		s.log.Warn("Recommendation unavailable", "connection_id", c.ID, "error", err)
		return
	}
	c.Guidance = models.Guidance{Text: rec.Text, MilestoneID: rec.MilestoneID}
}

func (s *ConnectionService) notify(ctx context.Context, c *models.Connection, kind models.NotificationType, recipient, related, milestoneID string) {
	if s.notifications == nil || recipient == "" {
		return
	}
	n := &models.Notification{
		Recipient:    recipient,
		Type:         kind,
		RelatedUser:  related,
		ConnectionID: c.ID,
		MilestoneID:  milestoneID,
		Stage:        c.Stage,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		// notifications are not critical to the command
		s.log.Error("Failed to create notification", "connection_id", c.ID, "type", kind, "error", err)
	}
}
