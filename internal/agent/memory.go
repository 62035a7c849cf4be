// Package agent provides an in-memory leader.Agent: a development/test
// stand-in for Chronicle's real log/storage engine. It tracks just enough
// state — history, term, membership, and a simple append-only log — to
// drive the leader FSM through its full lifecycle without a real
// replicated log underneath it.
package agent

import (
	"context"
	"sync"

	"chronicle/internal/events"
	"chronicle/internal/leader"
)

// MemoryAgent is an in-memory leader.Agent implementation.
type MemoryAgent struct {
	self leader.PeerID
	bus  *events.Bus

	mu            sync.Mutex
	systemState   leader.SystemState
	historyID     leader.HistoryID
	term          leader.Term // last ESTABLISHED term this node has recorded
	highTerm      leader.Term
	config        leader.ClusterConfig
	highSeqno     uint64
	pendingBranch *leader.HistoryID
	members       map[leader.PeerID]bool
	votedIn       map[leader.Term]leader.PeerID // term -> candidate already granted a vote this term
	removed       bool
}

// NewMemoryAgent constructs a MemoryAgent already provisioned into hid with
// the given cluster configuration. bus may be nil; when set, state
// mutations that correspond to spec-level metadata events are published to
// it so a subscribed FSM observes them without a direct method call.
func NewMemoryAgent(self leader.PeerID, hid leader.HistoryID, cfg leader.ClusterConfig, bus *events.Bus) *MemoryAgent {
	members := make(map[leader.PeerID]bool, len(cfg.Peers))
	for _, p := range cfg.Peers {
		members[p] = true
	}
	return &MemoryAgent{
		self:        self,
		bus:         bus,
		systemState: leader.SystemStateProvisioned,
		historyID:   hid,
		config:      cfg,
		members:     members,
		votedIn:     make(map[leader.Term]leader.PeerID),
	}
}

func (a *MemoryAgent) snapshotLocked() leader.Metadata {
	return leader.Metadata{
		Self:          a.self,
		HistoryID:     a.historyID,
		Term:          a.term,
		Config:        a.config,
		HighSeqno:     a.highSeqno,
		HighTerm:      a.highTerm,
		PendingBranch: a.pendingBranch,
	}
}

// GetSystemState implements leader.Agent.
func (a *MemoryAgent) GetSystemState(ctx context.Context) (leader.SystemState, leader.Metadata, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.systemState, a.snapshotLocked(), nil
}

// GetMetadata implements leader.Agent.
func (a *MemoryAgent) GetMetadata(ctx context.Context) (leader.Metadata, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked(), nil
}

// CheckGrantVote implements leader.Agent: grants at most one vote per term,
// and only to a candidate whose offered position is at least as advanced
// as this node's own.
func (a *MemoryAgent) CheckGrantVote(ctx context.Context, hid leader.HistoryID, pos leader.Position, candidate leader.PeerID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if hid != a.historyID {
		return leader.ErrHistoryMismatch
	}
	ourPos := a.snapshotLocked().Position()
	if pos.Less(ourPos) {
		return leader.ErrStaleTerm
	}
	if already, ok := a.votedIn[pos.Term]; ok && already != candidate {
		return leader.ErrStaleTerm
	}
	a.votedIn[pos.Term] = candidate
	return nil
}

// CheckMember implements leader.Agent.
func (a *MemoryAgent) CheckMember(ctx context.Context, hid leader.HistoryID, peer leader.PeerID, peerSeqno uint64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if hid != a.historyID {
		return false, leader.ErrHistoryMismatch
	}
	return a.members[peer], nil
}

// MarkRemoved implements leader.Agent.
func (a *MemoryAgent) MarkRemoved(ctx context.Context, self leader.PeerID) error {
	a.mu.Lock()
	a.removed = true
	a.systemState = leader.SystemStateRemoved
	a.mu.Unlock()

	if a.bus != nil {
		a.bus.Publish(leader.Event{Kind: leader.EventSystemRemoved})
	}
	return nil
}

// Sync implements leader.Agent. The in-memory Agent has no queued events
// to flush, so this is a no-op.
func (a *MemoryAgent) Sync(ctx context.Context) error {
	return nil
}

// Append records a new log entry at the next sequence number, advancing
// HighSeqno. It models what the real log/storage engine does on a
// successful proposer write.
func (a *MemoryAgent) Append(term leader.Term) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.highSeqno++
	if term.Number > a.highTerm.Number {
		a.highTerm = term
	}
	return a.highSeqno
}

// EstablishTerm marks term as the proposer-confirmed established term,
// mirroring the commit a real log engine would persist before the
// proposer calls FSM.NoteTermEstablished. Publishes EventTermEstablished
// on the bus, if one is set.
func (a *MemoryAgent) EstablishTerm(term leader.Term) {
	a.mu.Lock()
	a.term = term
	hid := a.historyID
	a.mu.Unlock()

	if a.bus != nil {
		a.bus.Publish(leader.Event{Kind: leader.EventTermEstablished, HistoryID: hid, Term: term})
	}
}

// SetConfig installs a new cluster configuration and publishes
// EventNewConfig, mirroring a committed reconfiguration entry.
func (a *MemoryAgent) SetConfig(cfg leader.ClusterConfig) {
	a.mu.Lock()
	a.config = cfg
	a.members = make(map[leader.PeerID]bool, len(cfg.Peers))
	for _, p := range cfg.Peers {
		a.members[p] = true
	}
	a.mu.Unlock()

	if a.bus != nil {
		a.bus.Publish(leader.Event{Kind: leader.EventNewConfig, Config: cfg})
	}
}

// NewHistory starts a fresh history epoch and publishes EventNewHistory.
func (a *MemoryAgent) NewHistory(hid leader.HistoryID) {
	a.mu.Lock()
	a.historyID = hid
	a.highSeqno = 0
	a.highTerm = leader.Term{}
	a.term = leader.Term{}
	a.votedIn = make(map[leader.Term]leader.PeerID)
	a.mu.Unlock()

	if a.bus != nil {
		a.bus.Publish(leader.Event{Kind: leader.EventNewHistory, HistoryID: hid})
	}
}
