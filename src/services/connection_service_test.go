package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/Backend-Kindred/src/models"
)

type failingRecommender struct{}

func (failingRecommender) Recommend(context.Context, *models.Connection) (Recommendation, error) {
	return Recommendation{}, errors.New("scoring service down")
}

func TestServiceDatingScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	assert.Equal(t, models.StageHandshake, c.Stage)
	assert.Equal(t, 0, c.StageProgress)
	assert.Contains(t, c.Guidance.Text, "First Message")
	assert.Equal(t, "first-message", c.Guidance.MilestoneID)

	_, report, err := f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-a")
	require.NoError(t, err)
	assert.Equal(t, 50, report.StageProgress)

	_, err = f.svc.AdvanceStage(ctx, c.ID)
	var insufficient *models.InsufficientProgressError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 50, insufficient.Progress)

	_, _, err = f.svc.CompleteMilestone(ctx, c.ID, "shared-interest", "user-b")
	require.NoError(t, err)

	advanced, err := f.svc.AdvanceStage(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCommunication, advanced.Stage)
	assert.Equal(t, 0, advanced.StageProgress)
	assert.Len(t, advanced.History, 2)

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCommunication, stored.Stage)
	assert.Equal(t, advanced.Version, stored.Version)
}

func TestServiceCompleteUnknownMilestoneLeavesConnectionUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	before, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)

	_, _, err = f.svc.CompleteMilestone(ctx, c.ID, "nonexistent-id", "user-a")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	after, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Milestones, after.Milestones)
	assert.Equal(t, before.StageProgress, after.StageProgress)
}

func TestServiceCompleteMilestoneTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	first, report, err := f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-a")
	require.NoError(t, err)
	assert.True(t, report.Changed)

	second, report, err := f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-b")
	require.NoError(t, err)
	assert.False(t, report.Changed)
	assert.Equal(t, first.Version, second.Version, "a repeat must not write")

	m1, _ := models.Milestones(first.Milestones).Find("first-message")
	m2, _ := models.Milestones(second.Milestones).Find("first-message")
	assert.True(t, m1.CompletedAt.Equal(*m2.CompletedAt))
	assert.Equal(t, m1.Progress, m2.Progress)

	// only the first completion notifies the counterpart
	notes, err := f.notifications.ListForRecipient(ctx, "user-b", 0)
	require.NoError(t, err)
	completed := 0
	for _, n := range notes {
		if n.Type == models.NotificationTypeMilestoneCompleted {
			completed++
			assert.Equal(t, "first-message", n.MilestoneID)
		}
	}
	assert.Equal(t, 1, completed)
}

func TestServiceResetFromFaceToFace(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *Deps) { d.Policy = models.PolicyManual })
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	_, err = f.svc.AdvanceStage(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.AdvanceStage(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.AdvanceStage(ctx, c.ID)
	assert.True(t, errors.Is(err, models.ErrTerminalStage))

	reset, err := f.svc.ResetToStage(ctx, c.ID, models.StageHandshake)
	require.NoError(t, err)
	assert.Equal(t, models.StageHandshake, reset.Stage)

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 4)
	assert.Equal(t, models.StageFaceToFace, stored.History[2].Stage)
	assert.True(t, stored.History[3].Reset)
}

func TestServiceRecordInteractionAndListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	older, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	newer, err := f.svc.CreateConnection(ctx, "user-a", "user-c", models.ConnectionTypeFriendship)
	require.NoError(t, err)

	conns, err := f.svc.ListConnectionsForParticipant(ctx, "user-a", nil)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, newer.ID, conns[0].ID)

	touched, err := f.svc.RecordInteraction(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, touched.LastInteractionAt.After(older.LastInteractionAt))
	assert.Equal(t, models.StageHandshake, touched.Stage)

	conns, err = f.svc.ListConnectionsForParticipant(ctx, "user-a", nil)
	require.NoError(t, err)
	assert.Equal(t, older.ID, conns[0].ID)

	stats, err := f.svc.Stats(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStage[models.StageHandshake])
	assert.Equal(t, 1, stats.ByType[models.ConnectionTypeFriendship])
}

func TestServiceCreateRejectsDuplicatePair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	_, err = f.svc.CreateConnection(ctx, "user-b", "user-a", models.ConnectionTypeSocial)
	assert.True(t, errors.Is(err, models.ErrConflict))
}

func TestServiceGetServesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	_, _, err = f.svc.UpdateMilestoneProgress(ctx, c.ID, "first-message", 40)
	require.NoError(t, err)

	got, err := f.svc.GetConnection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.StageProgress)

	_, err = f.svc.GetConnection(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestServiceValidationErrorsDoNotWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	_, _, err = f.svc.UpdateMilestoneProgress(ctx, c.ID, "first-message", 100)
	assert.True(t, errors.Is(err, models.ErrInvalidRange))
	_, err = f.svc.SetInsights(ctx, c.ID, models.Insights{CompatibilityScore: 140})
	assert.True(t, errors.Is(err, models.ErrInvalidRange))
	_, _, err = f.svc.AddMilestone(ctx, c.ID, models.Milestone{ID: "first-message", Title: "dup"})
	assert.True(t, errors.Is(err, models.ErrConflict))

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Version)
}

func TestServiceSetInsights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	updated, err := f.svc.SetInsights(ctx, c.ID, models.Insights{CompatibilityScore: 94, Recommendation: "Share a photography spot"})
	require.NoError(t, err)
	assert.Equal(t, 94, updated.Insights.CompatibilityScore)

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Share a photography spot", stored.Insights.Recommendation)
}

func TestServiceRecommenderFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *Deps) { d.Recommender = failingRecommender{} })
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	assert.Empty(t, c.Guidance.Text)

	_, report, err := f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-a")
	require.NoError(t, err)
	assert.Equal(t, 50, report.StageProgress)
}

func TestServiceSerializesConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	ids := []string{"first-message", "shared-interest", "personal-story", "daily-communication"}
	var wg sync.WaitGroup
	errs := make(chan error, len(ids)*2)
	for _, id := range ids {
		id := id
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.CompleteMilestone(ctx, c.ID, id, "user-a")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.svc.RecordInteraction(ctx, c.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Version)
	assert.Equal(t, 4, models.Milestones(stored.Milestones).CompletedCount())
	assert.Equal(t, 100, stored.StageProgress)
}

func TestServiceReadyToAdvanceFollowsPolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(d *Deps) { d.Policy = models.PolicyRelaxed })
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)
	assert.False(t, c.ReadyToAdvance)

	c, _, err = f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-a")
	require.NoError(t, err)
	assert.False(t, c.ReadyToAdvance)
	c, _, err = f.svc.UpdateMilestoneProgress(ctx, c.ID, "shared-interest", 60)
	require.NoError(t, err)
	assert.Equal(t, 80, c.StageProgress)
	assert.True(t, c.ReadyToAdvance)

	got, err := f.svc.GetConnection(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.ReadyToAdvance)

	stats, err := f.svc.Stats(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReadyToAdvance)
	assert.Equal(t, 1, stats.ActiveChats)
	assert.Equal(t, 1, stats.MilestonesThisWeek)

	advanced, err := f.svc.AdvanceStage(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, advanced.ReadyToAdvance)
}

func TestServiceGuidanceKeepsScorerInsights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.svc.CreateConnection(ctx, "user-a", "user-b", models.ConnectionTypeDating)
	require.NoError(t, err)

	_, err = f.svc.SetInsights(ctx, c.ID, models.Insights{
		CompatibilityScore:   94,
		Recommendation:       "Share a photography spot",
		SuggestedMilestoneID: "shared-interest",
	})
	require.NoError(t, err)

	_, _, err = f.svc.CompleteMilestone(ctx, c.ID, "first-message", "user-a")
	require.NoError(t, err)
	_, err = f.svc.RecordInteraction(ctx, c.ID)
	require.NoError(t, err)

	stored, err := f.store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 94, stored.Insights.CompatibilityScore)
	assert.Equal(t, "Share a photography spot", stored.Insights.Recommendation)
	assert.Equal(t, "shared-interest", stored.Insights.SuggestedMilestoneID)
	assert.Equal(t, "shared-interest", stored.Guidance.MilestoneID)
	assert.Contains(t, stored.Guidance.Text, "Shared Interest")
}
