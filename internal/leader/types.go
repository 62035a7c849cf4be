// Package leader implements Chronicle's per-node leader lifecycle state
// machine: election, heartbeating, liveness detection, and membership
// self-healing on top of a Raft-like quorum discipline.
package leader

import "fmt"

// PeerID identifies a cluster node. It is opaque to the FSM beyond
// equality and use as a transport routing key.
type PeerID string

// HistoryID identifies an epoch of the cluster's log. Any history change
// invalidates all prior leader state.
type HistoryID string

// Term is monotonic within a history and carries a hint of which peer
// believes it owns the term.
type Term struct {
	Number uint64
	Hint   PeerID
}

// Next returns the successor term, hinting self as its owner.
func (t Term) Next(self PeerID) Term {
	return Term{Number: t.Number + 1, Hint: self}
}

func (t Term) String() string {
	return fmt.Sprintf("(%d,%s)", t.Number, t.Hint)
}

// Less reports whether t sorts strictly before o by term number only;
// use Position.Less for the full log-position order.
func (t Term) Less(o Term) bool {
	return t.Number < o.Number
}

func (t Term) Equal(o Term) bool {
	return t.Number == o.Number && t.Hint == o.Hint
}

// Position is a log position: the term in which the high entry was voted,
// and the highest sequence number reached. Positions order lexicographically
// by term number first, then by sequence number.
type Position struct {
	Term      Term
	HighSeqno uint64
}

// Less reports whether p sorts strictly before o.
func (p Position) Less(o Position) bool {
	if p.Term.Number != o.Term.Number {
		return p.Term.Number < o.Term.Number
	}
	return p.HighSeqno < o.HighSeqno
}

// AtLeast reports whether p is greater than or equal to o under the same
// order (the comparison a vote grant check performs).
func (p Position) AtLeast(o Position) bool {
	return !p.Less(o)
}

// Status distinguishes a leader that has won an election from one whose
// term has been confirmed committed by the proposer.
type Status string

const (
	StatusTentative   Status = "tentative"
	StatusEstablished Status = "established"
	// StatusInactive is never published; it stands in for "our_status"
	// in the heartbeat-acceptance comparison when the node is not
	// currently Leader or Follower.
	StatusInactive Status = "inactive"
)

// Info is a leader snapshot. Only Status == StatusEstablished infos are
// visible to external clients (get_leader, wait_for_leader).
type Info struct {
	Leader    PeerID
	HistoryID HistoryID
	Term      Term
	Status    Status
}

// IsZero reports whether this Info carries no leader at all.
func (i Info) IsZero() bool {
	return i.Leader == ""
}

// Incarnation identifies "which leader" for wait_for_leader purposes:
// either a concrete term or the wildcard Any.
type Incarnation struct {
	Any  bool
	Term Term
}

// AnyIncarnation matches any established leader.
var AnyIncarnation = Incarnation{Any: true}

// Matches reports whether info's term equals this incarnation (Any never
// matches by equality — callers compare against the wildcard explicitly).
func (inc Incarnation) Matches(t Term) bool {
	if inc.Any {
		return false
	}
	return inc.Term.Equal(t)
}
