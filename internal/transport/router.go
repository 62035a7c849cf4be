// Package transport provides an in-memory leader.PeerTransport: every
// peer's IncomingHandler lives in the same process and RPCs are plain
// function calls instead of wire traffic. A production deployment swaps
// this for a real RPC client (gRPC, HTTP, or similar) without the leader
// package needing to change.
package transport

import (
	"context"
	"errors"
	"log"
	"sync"

	"chronicle/internal/leader"
)

// ErrPeerUnreachable is returned when no handler is registered for a peer,
// simulating an unreachable node.
var ErrPeerUnreachable = errors.New("transport: peer unreachable")

// Switchboard is the shared handler registry behind a set of per-node
// Routers: several FSMs in one process can each get their own Router view
// (stamping their own identity as sender) while routing through the same
// table, the way several nodes would share one network in a real cluster.
type Switchboard struct {
	mu       sync.RWMutex
	handlers map[leader.PeerID]leader.IncomingHandler
	down     map[leader.PeerID]bool
}

// NewSwitchboard constructs an empty handler registry.
func NewSwitchboard() *Switchboard {
	return &Switchboard{
		handlers: make(map[leader.PeerID]leader.IncomingHandler),
		down:     make(map[leader.PeerID]bool),
	}
}

// Register makes peer's handler reachable through every Router sharing
// this Switchboard.
func (s *Switchboard) Register(peer leader.PeerID, h leader.IncomingHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[peer] = h
}

// Partition simulates a network partition: messages addressed to peer are
// dropped until Heal is called. Messages that peer itself sends are still
// delivered.
func (s *Switchboard) Partition(peer leader.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down[peer] = true
}

// Heal reverses a prior Partition.
func (s *Switchboard) Heal(peer leader.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.down, peer)
}

func (s *Switchboard) handlerFor(peer leader.PeerID) (leader.IncomingHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.down[peer] {
		return nil, false
	}
	h, ok := s.handlers[peer]
	return h, ok
}

// Router is one node's view onto a Switchboard: it stamps outgoing
// messages with self and implements leader.PeerTransport.
type Router struct {
	self leader.PeerID
	sb   *Switchboard
}

// NewRouter constructs a Router for the node identified by self, backed by
// a dedicated Switchboard. Use NewRouterOn to share one Switchboard across
// several Routers in the same process.
func NewRouter(self leader.PeerID) *Router {
	return NewRouterOn(self, NewSwitchboard())
}

// NewRouterOn constructs a Router for self backed by an existing
// Switchboard.
func NewRouterOn(self leader.PeerID, sb *Switchboard) *Router {
	return &Router{self: self, sb: sb}
}

// Register makes peer's handler reachable through this Router's
// Switchboard.
func (r *Router) Register(peer leader.PeerID, h leader.IncomingHandler) {
	r.sb.Register(peer, h)
}

// Partition simulates a network partition: messages addressed to peer are
// dropped until Heal is called. Messages that peer itself sends are still
// delivered.
func (r *Router) Partition(peer leader.PeerID) {
	r.sb.Partition(peer)
}

// Heal reverses a prior Partition.
func (r *Router) Heal(peer leader.PeerID) {
	r.sb.Heal(peer)
}

// Connect implements leader.PeerTransport. In-memory peers are always
// "connected"; this only logs the intent.
func (r *Router) Connect(peer leader.PeerID) {
	log.Printf("transport: connect %s -> %s", r.self, peer)
}

// SendHeartbeat implements leader.PeerTransport. Fire-and-forget: delivery
// happens on its own goroutine so a slow or missing handler never blocks
// the caller.
func (r *Router) SendHeartbeat(peer leader.PeerID, info leader.Info) {
	h, ok := r.sb.handlerFor(peer)
	if !ok {
		return
	}
	go h.HandleHeartbeat(r.self, info)
}

// SendSteppingDown implements leader.PeerTransport.
func (r *Router) SendSteppingDown(peer leader.PeerID, info leader.Info) {
	h, ok := r.sb.handlerFor(peer)
	if !ok {
		return
	}
	go h.HandleSteppingDown(r.self, info)
}

// RequestVote implements leader.PeerTransport.
func (r *Router) RequestVote(ctx context.Context, peer leader.PeerID, candidate leader.PeerID, hid leader.HistoryID, pos leader.Position) (leader.VoteReply, error) {
	h, ok := r.sb.handlerFor(peer)
	if !ok {
		return leader.VoteReply{}, ErrPeerUnreachable
	}
	return h.HandleRequestVote(ctx, candidate, hid, pos), nil
}

// RequestCheckMember implements leader.PeerTransport.
func (r *Router) RequestCheckMember(ctx context.Context, peer leader.PeerID, hid leader.HistoryID, self leader.PeerID, selfSeqno uint64) (leader.CheckMemberReply, error) {
	h, ok := r.sb.handlerFor(peer)
	if !ok {
		return leader.CheckMemberReply{}, ErrPeerUnreachable
	}
	return h.HandleCheckMember(ctx, self, hid, self, selfSeqno), nil
}
