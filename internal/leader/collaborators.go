package leader

import "context"

// SystemState is the Agent's classification of this node's provisioning
// status.
type SystemState int

const (
	// SystemStateOther covers any Agent response this FSM does not know
	// how to interpret; receiving it is fatal.
	SystemStateOther SystemState = iota
	SystemStateProvisioned
	SystemStateRemoved
	SystemStateJoiningCluster
)

// ClusterConfig describes the cluster membership and quorum rule in
// effect, as carried by Metadata.
type ClusterConfig struct {
	Peers   []PeerID
	Quorum  Quorum
	Pending *ClusterConfig // set while a joint/pending-branch reconfiguration is in flight
}

// Metadata is the Agent's snapshot of everything the FSM needs to act. PendingBranch is non-nil while a reconfiguration is in
// flight (a second history/term pair competing to become canonical).
type Metadata struct {
	Self          PeerID
	HistoryID     HistoryID
	Term          Term
	Config        ClusterConfig
	HighSeqno     uint64
	HighTerm      Term
	PendingBranch *HistoryID
}

// Position derives the log position this node would offer in a vote
// request from its own metadata.
func (m Metadata) Position() Position {
	return Position{Term: m.HighTerm, HighSeqno: m.HighSeqno}
}

// Electable reports whether self is in the configured peer set — the
// precondition for participating in elections.
func (m Metadata) Electable() bool {
	for _, p := range m.Config.Peers {
		if p == m.Self {
			return true
		}
	}
	return false
}

// Agent is the metadata/log collaborator consumed by the FSM. Its
// real implementation is the storage/log engine; this package only
// depends on this interface and never assumes a particular backend.
type Agent interface {
	// GetSystemState classifies the node's provisioning status at
	// startup.
	GetSystemState(ctx context.Context) (SystemState, Metadata, error)

	// GetMetadata returns the current metadata snapshot.
	GetMetadata(ctx context.Context) (Metadata, error)

	// CheckGrantVote verifies a vote request's history and log position
	// are acceptable before the FSM commits to VotedFor.
	CheckGrantVote(ctx context.Context, hid HistoryID, pos Position, candidate PeerID) error

	// CheckMember asks the Agent whether peer/peerID is still considered
	// a member at the given history/seqno. Used by the membership
	// checker via peer RPC, not locally — this method exists so the
	// in-memory reference Agent can answer check_member requests
	// received from a remote FSM in single-process tests.
	CheckMember(ctx context.Context, hid HistoryID, peer PeerID, peerSeqno uint64) (bool, error)

	// MarkRemoved persists that self has been removed from the cluster.
	MarkRemoved(ctx context.Context, self PeerID) error

	// Sync flushes any queued metadata events before a read.
	Sync(ctx context.Context) error
}

// VoteReply is what a peer's request_vote handler returns.
type VoteReply struct {
	Granted bool
	// LatestTerm is the peer's own latest known term, returned whether
	// granted or not so the candidate can refresh max_term.
	LatestTerm Term
	// Reason carries the protocol refusal category when Granted is
	// false: ErrInElection, ErrCheckMember, ErrHaveLeader, or a
	// history/stale-term rejection.
	Reason error
	// HaveLeader carries the peer's known leader info when Reason is
	// ErrHaveLeader, letting the candidate notice a live leader sooner.
	HaveLeader *Info
}

// CheckMemberReply is what a peer answers to a check_member probe.
type CheckMemberReply struct {
	IsMember bool
}

// PeerTransport is the non-blocking messaging collaborator consumed by
// the FSM. Sends must never block on remote backpressure;
// requests run inside workers, never on the FSM goroutine.
type PeerTransport interface {
	// SendHeartbeat is a fire-and-forget heartbeat to the named peer.
	SendHeartbeat(peer PeerID, info Info)

	// SendSteppingDown is a fire-and-forget stepping_down notice to the
	// named peer.
	SendSteppingDown(peer PeerID, info Info)

	// RequestVote sends a request_vote and blocks (within the calling
	// worker goroutine, never the FSM) for a reply or ctx cancellation.
	RequestVote(ctx context.Context, peer PeerID, candidate PeerID, hid HistoryID, pos Position) (VoteReply, error)

	// RequestCheckMember sends a check_member probe and blocks for a
	// reply or ctx cancellation.
	RequestCheckMember(ctx context.Context, peer PeerID, hid HistoryID, self PeerID, selfSeqno uint64) (CheckMemberReply, error)

	// Connect attempts a fire-and-forget connection to a peer the local
	// liveness view does not yet consider live.
	Connect(peer PeerID)
}

// IncomingHandler is implemented by the FSM and registered with a
// PeerTransport so inbound messages addressed to the "leader" endpoint
// reach it. Kept as a separate interface so transports can be
// wired without the FSM depending on transport internals.
type IncomingHandler interface {
	HandleHeartbeat(from PeerID, info Info)
	HandleSteppingDown(from PeerID, info Info)
	HandleRequestVote(ctx context.Context, from PeerID, hid HistoryID, pos Position) VoteReply
	HandleCheckMember(ctx context.Context, from PeerID, hid HistoryID, peer PeerID, peerSeqno uint64) CheckMemberReply
}

// PeerMonitor tracks which configured peers are currently reachable.
type PeerMonitor interface {
	IsLive(peer PeerID) bool
	LivePeers(all []PeerID) []PeerID
	// Subscribe delivers peer up/down notifications until ctx is done.
	Subscribe(ctx context.Context) <-chan PeerLivenessEvent
}

// PeerLivenessEvent is a single up/down transition from PeerMonitor.
type PeerLivenessEvent struct {
	Peer PeerID
	Up   bool
}

// EventKind enumerates the Agent/metadata events the FSM consumes.
type EventKind int

const (
	EventSystemProvisioned EventKind = iota
	EventSystemRemoved
	EventNewHistory
	EventTermEstablished
	EventNewConfig
)

// Event is a single metadata event delivered in commit order.
type Event struct {
	Kind      EventKind
	HistoryID HistoryID
	Term      Term
	Config    ClusterConfig
	Metadata  Metadata
}

// EventBus is the process-wide event source the FSM subscribes to. The FSM filters for the kinds it cares about.
type EventBus interface {
	Subscribe(ctx context.Context) <-chan Event
}
