package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsFixture(t *testing.T) []*Connection {
	t.Helper()
	fresh := newDating(t)

	complete := newDating(t)
	for _, id := range []string{"first-message", "shared-interest"} {
		_, err := complete.CompleteMilestone(id, t0.Add(time.Hour))
		require.NoError(t, err)
	}

	meetup := newDating(t)
	require.NoError(t, meetup.AdvanceStage(PolicyManual, t0.Add(2*time.Hour)))
	require.NoError(t, meetup.AdvanceStage(PolicyManual, t0.Add(2*time.Hour)))
	_, err := meetup.CompleteMilestone("first-date-planned", t0.Add(2*time.Hour))
	require.NoError(t, err)

	quiet, err := NewConnection("user-a", "user-d", ConnectionTypeFriendship, DefaultTemplates().For(ConnectionTypeFriendship), t0.Add(-30*24*time.Hour))
	require.NoError(t, err)

	return []*Connection{fresh, complete, meetup, quiet, nil}
}

func TestSummarize(t *testing.T) {
	now := t0.Add(3 * time.Hour)
	st := Summarize(statsFixture(t), PolicyStrict, now)

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.ByStage[StageHandshake])
	assert.Equal(t, 0, st.ByStage[StageCommunication])
	assert.Equal(t, 1, st.ByStage[StageFaceToFace])
	assert.Equal(t, 3, st.ByType[ConnectionTypeDating])
	assert.Equal(t, 1, st.ByType[ConnectionTypeFriendship])
	assert.Equal(t, 3, st.ActiveChats)
	assert.Equal(t, 1, st.ScheduledMeetups)
	assert.Equal(t, 2, st.StageAdvances)
	assert.Equal(t, 3, st.MilestonesThisWeek)
	assert.Equal(t, 37, st.AverageProgress)
}

func TestSummarizeReadyToAdvanceFollowsPolicy(t *testing.T) {
	conns := statsFixture(t)
	now := t0.Add(3 * time.Hour)

	// only the handshake connection at 100% can move on; face2face is terminal
	assert.Equal(t, 1, Summarize(conns, PolicyStrict, now).ReadyToAdvance)
	assert.Equal(t, 1, Summarize(conns, PolicyRelaxed, now).ReadyToAdvance)
	assert.Equal(t, 3, Summarize(conns, PolicyManual, now).ReadyToAdvance)
}

func TestSummarizeWindowExpires(t *testing.T) {
	st := Summarize(statsFixture(t), PolicyStrict, t0.Add(10*24*time.Hour))
	assert.Equal(t, 0, st.ActiveChats)
	assert.Equal(t, 0, st.StageAdvances)
	assert.Equal(t, 0, st.MilestonesThisWeek)
	assert.Equal(t, 1, st.ScheduledMeetups)
}

func TestSummarizeEmpty(t *testing.T) {
	empty := Summarize(nil, PolicyStrict, t0)
	assert.Equal(t, 0, empty.Total)
	assert.Contains(t, empty.ByStage, StageCommunication)
}
