// Package poller keeps a client's view of a poker or retro board in sync by
// interval polling. The reconciliation rules live in pure functions over
// State; Poller only schedules fetches and feeds the results through them.
package poller

import (
	"fmt"

	"sprint-poker/internal/api"
)

type State struct {
	VoterName     string
	SessionLoaded bool
	IsAdmin       bool

	LastVoteUpdate     int64
	LastVoteCount      int
	LastStoryUpdate    int64
	LastStoryID        uint
	LastMeetingVersion string

	StoryInputFocused bool
	SkipNextStoryPoll bool
	CheckVotes        bool
	Revealed          bool
	PendingVote       string
}

// TickPlan lists the resources a scheduled tick should fetch. Board covers
// the story on poker boards and the meeting on retro boards.
type TickPlan struct {
	Votes bool
	Board bool
}

type Action int

const (
	ActionVote Action = iota
	ActionStory
	ActionReveal
	ActionReset
	ActionNewStory
	ActionBoardEdit
)

// PlanTick decides what a scheduled tick fetches. Revealed votes are frozen
// until a local action asks for a check. A pending suppression flag is
// consumed here.
func PlanTick(s State) (TickPlan, State) {
	plan := TickPlan{Votes: !s.Revealed || s.CheckVotes}
	switch {
	case s.SkipNextStoryPoll:
		s.SkipNextStoryPoll = false
	case s.StoryInputFocused:
	default:
		plan.Board = true
	}
	return plan, s
}

// ApplyVotes records a votes response. It reports false, leaving s as it
// was apart from the consumed check flag, when nothing changed since the
// last applied response.
func ApplyVotes(s State, resp api.VotesResponse, force bool) (State, bool) {
	s.CheckVotes = false
	changed := force ||
		resp.LastUpdated != s.LastVoteUpdate ||
		resp.VoteCount != s.LastVoteCount ||
		resp.IsRevealed != s.Revealed
	if !changed {
		return s, false
	}
	s.LastVoteUpdate = resp.LastUpdated
	s.LastVoteCount = resp.VoteCount
	s.Revealed = resp.IsRevealed
	if s.Revealed {
		s.PendingVote = ""
	} else if s.PendingVote != "" && s.VoterName != "" && resp.Votes[s.VoterName] == s.PendingVote {
		s.PendingVote = ""
	}
	return s, true
}

func ApplyStory(s State, resp api.StoryResponse, force bool) (State, bool) {
	var id uint
	if resp.ID != nil {
		id = *resp.ID
	}
	if !force && id == s.LastStoryID && resp.LastUpdated == s.LastStoryUpdate {
		return s, false
	}
	if id != s.LastStoryID {
		s.PendingVote = ""
	}
	s.LastStoryID = id
	s.LastStoryUpdate = resp.LastUpdated
	return s, true
}

// MeetingVersion is the change indicator of a meeting response; empty when
// there is no meeting.
func MeetingVersion(m *api.MeetingResponse) string {
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d:%d:%d", m.ID, m.LastUpdated, m.ColumnCount, m.ItemCount)
}

func ApplyMeeting(s State, m *api.MeetingResponse, force bool) (State, bool) {
	version := MeetingVersion(m)
	if !force && version == s.LastMeetingVersion {
		return s, false
	}
	s.LastMeetingVersion = version
	return s, true
}

// AfterAction runs once a local mutation succeeded: the next scheduled board
// fetch is skipped and, for actions that change the reveal state, revealed
// votes are checked once more.
func AfterAction(s State, action Action) State {
	s.SkipNextStoryPoll = true
	switch action {
	case ActionVote:
		s.PendingVote = ""
	case ActionReveal, ActionReset, ActionNewStory:
		s.CheckVotes = true
	}
	return s
}

// SelectVote is the first phase of voting. Cards cannot be picked once votes
// are revealed.
func SelectVote(s State, card string) State {
	if s.Revealed {
		return s
	}
	s.PendingVote = card
	return s
}
