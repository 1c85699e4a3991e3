package models

import "time"

// ActivityWindow is how far back an interaction or advancement counts as recent
const ActivityWindow = 7 * 24 * time.Hour

// Stats summarizes the connections of one participant.
// StageAdvances counts forward stage moves within the activity window.
type Stats struct {
	Total              int                    `json:"totalConnections"`
	ActiveChats        int                    `json:"activeChats"`
	ScheduledMeetups   int                    `json:"scheduledMeetups"`
	StageAdvances      int                    `json:"thisWeekProgress"`
	MilestonesThisWeek int                    `json:"milestonesThisWeek"`
	ByStage            map[Stage]int          `json:"stageDistribution"`
	ByType             map[ConnectionType]int `json:"connectionTypes"`
	ReadyToAdvance     int                    `json:"readyToAdvance"`
	AverageProgress    int                    `json:"averageProgress"`
}

// Summarize aggregates conns as of now. ReadyToAdvance counts connections that
// AdvanceStage would accept under policy.
func Summarize(conns []*Connection, policy AdvancePolicy, now time.Time) Stats {
	st := Stats{
		ByStage: make(map[Stage]int, len(stageOrder)),
		ByType:  make(map[ConnectionType]int),
	}
	for _, s := range stageOrder {
		st.ByStage[s] = 0
	}
	since := now.Add(-ActivityWindow)
	sum := 0
	for _, c := range conns {
		if c == nil {
			continue
		}
		st.Total++
		st.ByStage[c.Stage]++
		st.ByType[c.Type]++
		if c.CanAdvance(policy) {
			st.ReadyToAdvance++
		}
		if c.LastInteractionAt.After(since) {
			st.ActiveChats++
		}
		if meetupScheduled(c) {
			st.ScheduledMeetups++
		}
		for _, h := range c.History {
			if h.Sequence > 0 && !h.Reset && h.EnteredAt.After(since) {
				st.StageAdvances++
			}
		}
		for _, m := range c.Milestones {
			if m.Completed && m.CompletedAt != nil && m.CompletedAt.After(since) {
				st.MilestonesThisWeek++
			}
		}
		sum += c.StageProgress
	}
	if st.Total > 0 {
		st.AverageProgress = sum / st.Total
	}
	return st
}

// meetupScheduled is true at face2face once some face2face milestone is done
// (the meetup is planned) but not all of them (it has not happened yet).
func meetupScheduled(c *Connection) bool {
	if c.Stage != StageFaceToFace {
		return false
	}
	done, tagged := 0, 0
	for _, m := range c.Milestones {
		if m.Stage != StageFaceToFace {
			continue
		}
		tagged++
		if m.Completed {
			done++
		}
	}
	return done > 0 && done < tagged
}
