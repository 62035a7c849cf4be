package leader

import "time"

// state is the closed set of FSM states. name is used for
// logging and for matching the timer/transition tables.
type state interface {
	name() string
}

// observerState: not participating, or waiting to compete.
type observerState struct {
	electable bool
	removed   bool
}

func (observerState) name() string { return "Observer" }

// votedForState: gave a vote in the current term; no leader known yet.
type votedForState struct {
	peer PeerID
	ts   time.Time
}

func (votedForState) name() string { return "VotedFor" }

// candidateState: an election worker is running.
type candidateState struct{}

func (candidateState) name() string { return "Candidate" }

// leaderState: this node won; status begins tentative, becomes established
// once the proposer confirms quorum commit in the term.
type leaderState struct {
	historyID HistoryID
	term      Term
	status    Status
}

func (leaderState) name() string { return "Leader" }

// followerState: tracking a remote leader via heartbeats.
type followerState struct {
	leader    PeerID
	historyID HistoryID
	term      Term
	status    Status
}

func (followerState) name() string { return "Follower" }

// checkMemberState: running a membership probe.
type checkMemberState struct{}

func (checkMemberState) name() string { return "CheckMember" }

// isLeaderLike reports whether s is one of Leader/Follower/CheckMember —
// the states in which the check_member idle timer must NOT run.
func isLeaderLike(s state) bool {
	switch s.(type) {
	case leaderState, followerState, checkMemberState:
		return true
	}
	return false
}

// isRemovedObserver reports whether s is Observer{removed=true}.
func isRemovedObserver(s state) bool {
	o, ok := s.(observerState)
	return ok && o.removed
}
