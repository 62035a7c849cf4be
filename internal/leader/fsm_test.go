package leader_test

import (
	"context"
	"testing"
	"time"

	"chronicle/internal/agent"
	"chronicle/internal/events"
	"chronicle/internal/leader"
	"chronicle/internal/peermonitor"
	"chronicle/internal/transport"
)

// fastConfig shrinks every timing knob so these tests converge in well
// under a second instead of DefaultConfig's production-sized intervals.
func fastConfig(self leader.PeerID) leader.Config {
	cfg := leader.DefaultConfig(self)
	cfg.HeartbeatInterval = 15 * time.Millisecond
	cfg.ExtraWaitTime = 5 * time.Millisecond
	cfg.CheckMemberAfter = 2 * time.Second
	cfg.CheckMemberTimeout = 500 * time.Millisecond
	return cfg
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

// waitForTentative drains sub until it sees info.Leader == want in
// StatusTentative, or fails the test after timeout.
func waitForTentative(t *testing.T, sub <-chan leader.Info, want leader.PeerID, timeout time.Duration) leader.Info {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case info := <-sub:
			if info.Leader == want && info.Status == leader.StatusTentative {
				return info
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s to become tentative leader", want)
		}
	}
}

// TestSoloNodeBecomesLeader covers the solo-provisioning scenario: a
// single-peer cluster has no one to vote against, so the lone node should
// win its own election as soon as its observer wait elapses.
func TestSoloNodeBecomesLeader(t *testing.T) {
	self := leader.PeerID("node-a")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self}, Quorum: leader.Majority{Set: []leader.PeerID{self}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self})

	fsm := leader.NewFSM(fastConfig(self), ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	sub, unsub := fsm.Subscribe()
	defer unsub()

	tentative := waitForTentative(t, sub, self, 2*time.Second)

	// Nothing has confirmed the term yet: get_leader must stay hidden.
	if _, err := fsm.GetLeader(); err != leader.ErrNoLeader {
		t.Fatalf("expected ErrNoLeader before term establishment, got %v", err)
	}

	fsm.NoteTermEstablished(tentative.HistoryID, tentative.Term)

	waitForCondition(t, time.Second, func() bool {
		info, err := fsm.GetLeader()
		return err == nil && info.Leader == self && info.Status == leader.StatusEstablished
	})
}

// TestThreeNodeElectsASingleLeader wires three FSMs through a shared
// Switchboard and verifies exactly one of them wins the election, and that
// once its term is established the other two learn about it through
// ordinary heartbeats.
func TestThreeNodeElectsASingleLeader(t *testing.T) {
	selves := []leader.PeerID{"node-a", "node-b", "node-c"}
	cc := leader.ClusterConfig{Peers: selves, Quorum: leader.Majority{Set: selves}}

	sb := transport.NewSwitchboard()
	monitor := peermonitor.NewMonitor(selves)

	fsms := make(map[leader.PeerID]*leader.FSM, len(selves))
	agents := make(map[leader.PeerID]*agent.MemoryAgent, len(selves))
	subs := make(map[leader.PeerID]<-chan leader.Info)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, self := range selves {
		// Each node gets its own event bus, the way each node's own
		// log/storage engine only notifies its own FSM.
		bus := events.NewBus()
		ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
		router := transport.NewRouterOn(self, sb)
		fsm := leader.NewFSM(fastConfig(self), ag, router, monitor, bus, nil)
		sb.Register(self, fsm)

		agents[self] = ag
		fsms[self] = fsm

		sub, unsub := fsm.Subscribe()
		defer unsub()
		subs[self] = sub

		if err := fsm.Run(ctx); err != nil {
			t.Fatalf("run %s: %v", self, err)
		}
		defer fsm.Stop()
	}

	// Poll every node's subscription for a Tentative self-leadership
	// announcement; whichever node sees one first is the winner.
	var winner leader.PeerID
	var winnerInfo leader.Info
	deadline := time.Now().Add(3 * time.Second)
	for winner == "" && time.Now().Before(deadline) {
		for self, sub := range subs {
			select {
			case info := <-sub:
				if info.Leader == self && info.Status == leader.StatusTentative {
					winner = self
					winnerInfo = info
				}
			default:
			}
		}
	}
	if winner == "" {
		t.Fatal("no node became a tentative leader within the deadline")
	}

	// Confirm the winner's term, mirroring a proposer's commit.
	agents[winner].EstablishTerm(winnerInfo.Term)
	fsms[winner].NoteTermEstablished(winnerInfo.HistoryID, winnerInfo.Term)

	waitForCondition(t, 2*time.Second, func() bool {
		info, err := fsms[winner].GetLeader()
		return err == nil && info.Leader == winner && info.Status == leader.StatusEstablished
	})

	// The remaining two nodes should come to agree via heartbeats.
	for self, fsm := range fsms {
		if self == winner {
			continue
		}
		waitForCondition(t, 2*time.Second, func() bool {
			info, err := fsm.GetLeader()
			return err == nil && info.Leader == winner
		})
	}
}

// passiveHandler answers only check_member probes, delegating straight to
// an Agent, the way a peer FSM that never runs its own state machine in a
// test still needs to answer requests addressed to it.
type passiveHandler struct {
	ag *agent.MemoryAgent
}

func (p *passiveHandler) HandleHeartbeat(from leader.PeerID, info leader.Info)    {}
func (p *passiveHandler) HandleSteppingDown(from leader.PeerID, info leader.Info) {}

func (p *passiveHandler) HandleRequestVote(ctx context.Context, from leader.PeerID, hid leader.HistoryID, pos leader.Position) leader.VoteReply {
	return leader.VoteReply{Reason: leader.ErrStaleTerm}
}

func (p *passiveHandler) HandleCheckMember(ctx context.Context, from leader.PeerID, hid leader.HistoryID, peer leader.PeerID, peerSeqno uint64) leader.CheckMemberReply {
	ok, err := p.ag.CheckMember(ctx, hid, peer, peerSeqno)
	if err != nil {
		return leader.CheckMemberReply{IsMember: true}
	}
	return leader.CheckMemberReply{IsMember: ok}
}

// TestMembershipSelfHealing covers the removed-node scenario: a node
// whose peer no longer considers it a member should notice via its
// membership check and mark itself removed, without any proposer action.
func TestMembershipSelfHealing(t *testing.T) {
	self := leader.PeerID("node-a")
	peerB := leader.PeerID("node-b")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self, peerB}, Quorum: leader.Majority{Set: []leader.PeerID{self, peerB}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self, peerB})

	bAgent := agent.NewMemoryAgent(peerB, "hist-1", cc, nil)
	router.Register(peerB, &passiveHandler{ag: bAgent})

	cfg := fastConfig(self)
	cfg.CheckMemberAfter = 10 * time.Millisecond
	cfg.CheckMemberTimeout = time.Second
	cfg.HeartbeatInterval = time.Second
	cfg.ObserverMultiplier = 1

	fsm := leader.NewFSM(cfg, ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	// node-b no longer considers node-a a member of the cluster.
	bAgent.SetConfig(leader.ClusterConfig{Peers: []leader.PeerID{peerB}, Quorum: leader.Majority{Set: []leader.PeerID{peerB}}})

	waitForCondition(t, 2*time.Second, func() bool {
		state, _, err := ag.GetSystemState(context.Background())
		return err == nil && state == leader.SystemStateRemoved
	})
}

// TestWaitForLeaderUnblocksOnEstablishment exercises the wait_for_leader
// local API: a caller blocked on AnyIncarnation should unblock the
// moment a term is established, without polling GetLeader itself.
func TestWaitForLeaderUnblocksOnEstablishment(t *testing.T) {
	self := leader.PeerID("node-a")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self}, Quorum: leader.Majority{Set: []leader.PeerID{self}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self})

	fsm := leader.NewFSM(fastConfig(self), ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	sub, unsub := fsm.Subscribe()
	tentative := waitForTentative(t, sub, self, 2*time.Second)
	unsub()

	resultCh := make(chan leader.Info, 1)
	errCh := make(chan error, 1)
	go func() {
		info, err := fsm.WaitForLeader(context.Background(), leader.AnyIncarnation, 2*time.Second)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- info
	}()

	// Give the waiter a moment to register before the term establishes.
	time.Sleep(20 * time.Millisecond)
	fsm.NoteTermEstablished(tentative.HistoryID, tentative.Term)

	select {
	case info := <-resultCh:
		if info.Leader != self || info.Status != leader.StatusEstablished {
			t.Fatalf("unexpected wait_for_leader result: %#v", info)
		}
	case err := <-errCh:
		t.Fatalf("wait_for_leader returned an error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wait_for_leader to unblock")
	}
}

// TestLeaderDisconnectTriggersImmediateObserver covers spec.md §8 scenario
// 3: a follower's tracked leader going down must transition it back to
// Observer right away, not only once its (here deliberately long) state
// timer eventually fires.
func TestLeaderDisconnectTriggersImmediateObserver(t *testing.T) {
	self := leader.PeerID("node-b")
	other := leader.PeerID("node-a")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self, other}, Quorum: leader.Majority{Set: []leader.PeerID{self, other}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self, other})
	router.Register(other, &passiveHandler{ag: agent.NewMemoryAgent(other, "hist-1", cc, nil)})

	cfg := fastConfig(self)
	// A follower timeout far longer than the test's own deadline: if the
	// Observer transition below happened because of this timer instead of
	// the nodedown notification, the test would time out instead of
	// passing quickly.
	cfg.FollowerMultiplier = 10000

	fsm := leader.NewFSM(cfg, ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	fsm.HandleHeartbeat(other, leader.Info{
		Leader:    other,
		HistoryID: "hist-1",
		Term:      leader.Term{Number: 1, Hint: other},
		Status:    leader.StatusEstablished,
	})
	waitForCondition(t, time.Second, func() bool {
		info, err := fsm.GetLeader()
		return err == nil && info.Leader == other
	})

	monitor.MarkDown(other)

	waitForCondition(t, 500*time.Millisecond, func() bool {
		_, err := fsm.GetLeader()
		return err == leader.ErrNoLeader
	})
}

// TestNewHistoryClearsFollowerImmediately covers spec.md §8 scenario 6: a
// new_history event must force the next state to Observer (and clear the
// stale leader_info from publication) regardless of what state the node
// was in, without waiting on any running timer.
func TestNewHistoryClearsFollowerImmediately(t *testing.T) {
	self := leader.PeerID("node-b")
	other := leader.PeerID("node-a")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self, other}, Quorum: leader.Majority{Set: []leader.PeerID{self, other}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self, other})

	cfg := fastConfig(self)
	cfg.FollowerMultiplier = 10000 // see TestLeaderDisconnectTriggersImmediateObserver.

	fsm := leader.NewFSM(cfg, ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	fsm.HandleHeartbeat(other, leader.Info{
		Leader:    other,
		HistoryID: "hist-1",
		Term:      leader.Term{Number: 1, Hint: other},
		Status:    leader.StatusEstablished,
	})
	waitForCondition(t, time.Second, func() bool {
		info, err := fsm.GetLeader()
		return err == nil && info.Leader == other
	})

	ag.NewHistory("hist-2")

	waitForCondition(t, 500*time.Millisecond, func() bool {
		_, err := fsm.GetLeader()
		return err == leader.ErrNoLeader
	})
}

// grantingHandler always grants request_vote, letting a peer FSM under
// test win a legitimate (non-solo) election without a second real FSM
// running its own state machine in the test.
type grantingHandler struct{}

func (grantingHandler) HandleHeartbeat(from leader.PeerID, info leader.Info)    {}
func (grantingHandler) HandleSteppingDown(from leader.PeerID, info leader.Info) {}

func (grantingHandler) HandleRequestVote(ctx context.Context, from leader.PeerID, hid leader.HistoryID, pos leader.Position) leader.VoteReply {
	return leader.VoteReply{Granted: true}
}

func (grantingHandler) HandleCheckMember(ctx context.Context, from leader.PeerID, hid leader.HistoryID, peer leader.PeerID, peerSeqno uint64) leader.CheckMemberReply {
	return leader.CheckMemberReply{IsMember: true}
}

// TestSplitTentativeAcceptsEstablishedChallenger covers spec.md §8
// scenario 4: once this node has won its own election and is sitting in
// Leader{tentative}, a same-term-number heartbeat from a different leader
// hint that already carries status=established must be accepted and flip
// this node to Follower, per the tie-break rule in decideHeartbeat.
func TestSplitTentativeAcceptsEstablishedChallenger(t *testing.T) {
	self := leader.PeerID("node-b")
	other := leader.PeerID("node-a")
	cc := leader.ClusterConfig{Peers: []leader.PeerID{self, other}, Quorum: leader.Majority{Set: []leader.PeerID{self, other}}}

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor([]leader.PeerID{self, other})
	router.Register(other, grantingHandler{})

	cfg := fastConfig(self)
	cfg.ObserverMultiplier = 1

	fsm := leader.NewFSM(cfg, ag, router, monitor, bus, nil)
	router.Register(self, fsm)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := fsm.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	defer fsm.Stop()

	sub, unsub := fsm.Subscribe()
	defer unsub()
	tentative := waitForTentative(t, sub, self, 2*time.Second)

	fsm.HandleHeartbeat(other, leader.Info{
		Leader:    other,
		HistoryID: "hist-1",
		Term:      leader.Term{Number: tentative.Term.Number, Hint: other},
		Status:    leader.StatusEstablished,
	})

	waitForCondition(t, time.Second, func() bool {
		info, err := fsm.GetLeader()
		return err == nil && info.Leader == other && info.Status == leader.StatusEstablished
	})
}
