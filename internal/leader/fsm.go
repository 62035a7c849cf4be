package leader

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log"
	mrand "math/rand"
	"sync"
	"time"
)

// Metrics is the optional instrumentation hook the FSM calls on election
// and transition events. A nil Metrics is valid; every call site guards
// against it. The concrete Prometheus-backed implementation lives in
// internal/metrics.
type Metrics interface {
	IncElectionsStarted()
	IncVotesGranted()
	IncLeaderTransitions()
	SetCurrentTerm(termNumber uint64)
	// ObserveHeartbeatInterval records the time since the previous
	// heartbeat from leader, broken out per leader peer: a node's
	// heartbeat cadence is only meaningful relative to the specific
	// leader it is currently tracking, not as one cluster-wide number.
	ObserveHeartbeatInterval(leader PeerID, d time.Duration)
}

// FSM is the per-node leader lifecycle state machine. All state mutation
// is serialized by mu, matching a single logical actor: timer callbacks,
// worker results, and inbound peer messages all take the same lock
// before touching state, so only one of them is ever "inside" the
// machine at a time. A hand-rolled channel-actor runtime would buy
// nothing here since every external event already arrives as an
// independent callback/goroutine that must take a lock before it can
// safely read or write shared state.
type FSM struct {
	cfg       Config
	agent     Agent
	transport PeerTransport
	monitor   PeerMonitor
	bus       EventBus
	metrics   Metrics
	rng       *mrand.Rand

	publisher *publisher
	waiters   *waiterRegistry
	timers    *timerSet
	bk        *backoff

	mu                  sync.Mutex
	cur                 state
	historyID           HistoryID
	clusterConfig       ClusterConfig
	electable           bool
	removed             bool
	knownTerm           Term // last known ESTABLISHED term, used as (our_term) when inactive
	latestTerm          Term // highest term number observed anywhere
	lastHeartbeatFrom   PeerID
	lastHeartbeatAt     time.Time
	stateGen            uint64
	heartbeatGen        uint64
	checkMemberGenValue uint64
	workerGen           uint64
	workerCancel        context.CancelFunc

	fatalCh chan error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFSM constructs an FSM. Run must be called once to query the Agent's
// initial system state and begin processing.
func NewFSM(cfg Config, agent Agent, transport PeerTransport, monitor PeerMonitor, bus EventBus, metrics Metrics) *FSM {
	return &FSM{
		cfg:       cfg,
		agent:     agent,
		transport: transport,
		monitor:   monitor,
		bus:       bus,
		metrics:   metrics,
		rng:       mrand.New(mrand.NewSource(seedFromCrypto())),
		publisher: newPublisher(),
		waiters:   newWaiterRegistry(),
		timers:    newTimerSet(),
		bk:        newBackoff(cfg.MaxBackoff),
		cur:       observerState{},
		fatalCh:   make(chan error, 1),
	}
}

func seedFromCrypto() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err == nil {
		return int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return time.Now().UnixNano()
}

// Run queries the Agent for this node's initial provisioning state,
// attempts to connect to all non-live peers, and starts the background
// event/liveness loops. It returns a *FatalError if the Agent reports an
// unrecognized system state.
func (f *FSM) Run(ctx context.Context) error {
	sysState, meta, err := f.agent.GetSystemState(ctx)
	if err != nil {
		return fmt.Errorf("leader: get_system_state: %w", err)
	}

	f.mu.Lock()
	f.historyID = meta.HistoryID
	f.clusterConfig = meta.Config
	f.latestTerm = meta.HighTerm
	f.knownTerm = meta.Term

	var initial state
	switch sysState {
	case SystemStateProvisioned:
		f.electable = meta.Electable()
		f.removed = false
		initial = observerState{electable: f.electable, removed: false}
	case SystemStateRemoved:
		f.electable = false
		f.removed = true
		initial = observerState{electable: false, removed: true}
	case SystemStateJoiningCluster:
		f.electable = false
		f.removed = false
		initial = observerState{electable: false, removed: false}
	default:
		f.mu.Unlock()
		return &FatalError{Reason: "agent returned unrecognized system state"}
	}
	f.enterLocked(initial)
	peers := f.cachedPeersLocked()
	f.mu.Unlock()

	for _, p := range peers {
		if !f.monitor.IsLive(p) {
			f.transport.Connect(p)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	// Subscribe before returning so events published right after Run
	// returns are not lost.
	evCh := f.bus.Subscribe(runCtx)
	liveCh := f.monitor.Subscribe(runCtx)

	f.wg.Add(2)
	go f.eventLoop(runCtx, evCh)
	go f.livenessLoop(runCtx, liveCh)

	return nil
}

// Stop cancels background loops, terminates any running worker, and
// cancels all timers.
func (f *FSM) Stop() {
	f.mu.Lock()
	f.cancelWorkerLocked()
	f.timers.cancelAll()
	f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

// Fatal returns a channel that receives a local invariant failure: two
// established leaders observed in the same term. (An unrecognized Agent
// system state is reported by Run's return value instead.) The process
// supervisor should treat any send here as fatal and restart the FSM from
// scratch.
func (f *FSM) Fatal() <-chan error {
	return f.fatalCh
}

func (f *FSM) reportFatalLocked(err error) {
	select {
	case f.fatalCh <- err:
	default:
	}
}

func (f *FSM) eventLoop(ctx context.Context, ch <-chan Event) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			f.onEvent(ev)
		}
	}
}

func (f *FSM) livenessLoop(ctx context.Context, ch <-chan PeerLivenessEvent) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			f.onLiveness(ev)
		}
	}
}

// --- metadata event handling ---

func (f *FSM) onEvent(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch ev.Kind {
	case EventSystemProvisioned:
		f.historyID = ev.Metadata.HistoryID
		f.clusterConfig = ev.Metadata.Config
		f.electable = ev.Metadata.Electable()
		f.removed = false
		f.enterLocked(observerState{electable: f.electable, removed: false})

	case EventSystemRemoved:
		f.removed = true
		f.electable = false
		if _, ok := f.cur.(leaderState); ok {
			// Leader keeps its state; it terminates on its own accord
			// once the proposer notices.
			return
		}
		f.enterLocked(observerState{electable: false, removed: true})

	case EventNewHistory:
		f.historyID = ev.HistoryID
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})

	case EventNewConfig:
		f.clusterConfig = ev.Config
		newElectable := containsPeer(ev.Config.Peers, f.cfg.Self)
		flipped := newElectable != f.electable
		f.electable = newElectable
		if _, ok := f.cur.(leaderState); ok {
			return // proposer handles its own step-down
		}
		if flipped {
			f.enterLocked(observerState{electable: f.electable, removed: f.removed})
		}

	case EventTermEstablished:
		f.applyTermEstablishedLocked(ev.HistoryID, ev.Term)
	}
}

func (f *FSM) onLiveness(ev PeerLivenessEvent) {
	if ev.Up {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch s := f.cur.(type) {
	case followerState:
		if s.leader == ev.Peer {
			f.enterLocked(observerState{electable: f.electable, removed: f.removed})
		}
	case votedForState:
		if s.peer == ev.Peer {
			f.enterLocked(observerState{electable: f.electable, removed: f.removed})
		}
	}
}

// --- proposer-facing local API ---

func (f *FSM) NoteTermEstablished(hid HistoryID, term Term) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyTermEstablishedLocked(hid, term)
}

func (f *FSM) applyTermEstablishedLocked(hid HistoryID, term Term) {
	ls, ok := f.cur.(leaderState)
	if !ok || ls.historyID != hid || !ls.term.Equal(term) {
		return // stale notice, ignored
	}
	ls.status = StatusEstablished
	f.knownTerm = ls.term
	f.enterLocked(ls)
	if f.metrics != nil {
		f.metrics.IncLeaderTransitions()
	}
}

func (f *FSM) NoteTermFinished(hid HistoryID, term Term) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ls, ok := f.cur.(leaderState)
	if !ok || ls.historyID != hid || !ls.term.Equal(term) {
		return
	}
	f.enterLocked(observerState{electable: f.electable, removed: f.removed})
}

func (f *FSM) Sync(ctx context.Context) error {
	return f.agent.Sync(ctx)
}

// GetLeader returns the current leader only when established.
func (f *FSM) GetLeader() (Info, error) {
	info, ok := f.publisher.current()
	if !ok {
		return Info{}, ErrNoLeader
	}
	return info, nil
}

// WaitForLeader blocks until an established leader distinct from inc is
// visible, timeout elapses, or ctx is canceled.
func (f *FSM) WaitForLeader(ctx context.Context, inc Incarnation, timeout time.Duration) (Info, error) {
	if info, ok := f.publisher.current(); ok {
		if inc.Any || !inc.Term.Equal(info.Term) {
			return info, nil
		}
	}

	ch, id := f.waiters.register(inc, timeout)
	select {
	case res := <-ch:
		if res.err != nil {
			return Info{}, res.err
		}
		return res.info, nil
	case <-ctx.Done():
		f.waiters.deregister(id)
		return Info{}, ctx.Err()
	}
}

// AnnounceLeaderStatus force-republishes the current snapshot to status
// subscribers, regardless of whether it changed.
func (f *FSM) AnnounceLeaderStatus() {
	f.mu.Lock()
	info := f.snapshotInfoLocked()
	f.mu.Unlock()
	f.publisher.republish(info)
}

// Subscribe returns a channel of leader status events and an
// unsubscribe function.
func (f *FSM) Subscribe() (<-chan Info, func()) {
	return f.publisher.subscribe()
}

// --- inbound peer messages (IncomingHandler) ---

func (f *FSM) HandleHeartbeat(from PeerID, info Info) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if info.HistoryID != f.historyID {
		return // history mismatch, dropped
	}

	ourTerm, ourStatus := f.currentTermStatusLocked()
	accept, fatal := decideHeartbeat(ourTerm, ourStatus, info.Term, info.Status)
	if fatal {
		err := &FatalError{Reason: fmt.Sprintf(
			"two established leaders in term %s: local=%s remote=%s (from %s)",
			info.Term, ourTerm, info.Term, from)}
		f.reportFatalLocked(err)
		return
	}
	if !accept {
		return
	}

	now := time.Now()
	if f.metrics != nil && f.lastHeartbeatFrom == from && !f.lastHeartbeatAt.IsZero() {
		f.metrics.ObserveHeartbeatInterval(from, now.Sub(f.lastHeartbeatAt))
	}
	f.lastHeartbeatFrom = from
	f.lastHeartbeatAt = now

	f.bumpLatestTermLocked(info.Term)
	if info.Status == StatusEstablished {
		f.knownTerm = info.Term
	}
	f.enterLocked(followerState{leader: from, historyID: info.HistoryID, term: info.Term, status: info.Status})
}

func (f *FSM) HandleSteppingDown(from PeerID, info Info) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fs, ok := f.cur.(followerState)
	if !ok || fs.leader != from {
		return
	}
	f.enterLocked(observerState{electable: f.electable, removed: f.removed})
}

func (f *FSM) HandleRequestVote(ctx context.Context, from PeerID, hid HistoryID, pos Position) VoteReply {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch s := f.cur.(type) {
	case candidateState:
		return VoteReply{Reason: ErrInElection, LatestTerm: f.latestTerm}
	case checkMemberState:
		return VoteReply{Reason: ErrCheckMember, LatestTerm: f.latestTerm}
	case leaderState:
		info := Info{Leader: f.cfg.Self, HistoryID: s.historyID, Term: s.term, Status: s.status}
		return VoteReply{Reason: ErrHaveLeader, LatestTerm: f.latestTerm, HaveLeader: &info}
	case followerState:
		info := Info{Leader: s.leader, HistoryID: s.historyID, Term: s.term, Status: s.status}
		return VoteReply{Reason: ErrHaveLeader, LatestTerm: f.latestTerm, HaveLeader: &info}
	}

	// Observer or VotedFor: the Agent is the sole arbiter.
	if err := f.agent.CheckGrantVote(ctx, hid, pos, from); err != nil {
		return VoteReply{Reason: err, LatestTerm: f.latestTerm}
	}
	f.enterLocked(votedForState{peer: from, ts: time.Now()})
	if f.metrics != nil {
		f.metrics.IncVotesGranted()
	}
	return VoteReply{Granted: true, LatestTerm: f.latestTerm}
}

// HandleCheckMember proxies straight to the Agent; it does not touch FSM
// state.
func (f *FSM) HandleCheckMember(ctx context.Context, from PeerID, hid HistoryID, peer PeerID, peerSeqno uint64) CheckMemberReply {
	ok, err := f.agent.CheckMember(ctx, hid, peer, peerSeqno)
	if err != nil {
		log.Printf("leader: check_member from %s failed: %v", from, err)
		return CheckMemberReply{IsMember: true}
	}
	return CheckMemberReply{IsMember: ok}
}

// decideHeartbeat implements the heartbeat accept/reject rule.
func decideHeartbeat(ourTerm Term, ourStatus Status, newTerm Term, newStatus Status) (accept, fatal bool) {
	if newTerm.Equal(ourTerm) {
		return true, false
	}
	if newTerm.Number > ourTerm.Number {
		return true, false
	}
	if newTerm.Number == ourTerm.Number {
		if newStatus == StatusEstablished {
			if ourStatus == StatusEstablished {
				return true, true
			}
			return true, false
		}
		if newStatus == StatusTentative && ourStatus == StatusInactive {
			return true, false
		}
		return false, false
	}
	return false, false // strictly less: stale
}

// --- state machine core ---

// enterLocked performs the ordered state-entry actions. Callers
// must hold mu.
func (f *FSM) enterLocked(next state) {
	prev := f.cur

	// (a) announce stepping down to live peers iff leaving Leader.
	if ls, ok := prev.(leaderState); ok {
		info := Info{Leader: f.cfg.Self, HistoryID: ls.historyID, Term: ls.term, Status: ls.status}
		for _, p := range f.livePeersLocked() {
			f.transport.SendSteppingDown(p, info)
		}
	}

	f.cur = next

	// (b) republish leader info if changed.
	f.publishLocked()

	// (c) cancel all state-scoped timers and terminate any worker.
	f.timers.cancelAllStateScoped()
	f.cancelWorkerLocked()

	// (d) start state-scoped timers for next.
	f.startStateTimersLocked(next)

	// (e) reset backoff if entering Leader, Follower, or VotedFor.
	switch next.(type) {
	case leaderState, followerState, votedForState:
		f.bk.reset()
	}

	// (f) (re)schedule the membership-check timer iff the state is not
	// one of Leader/Follower/CheckMember/Observer{removed}.
	if !isLeaderLike(next) && !isRemovedObserver(next) {
		f.startCheckMemberTimerLocked()
	} else {
		f.timers.cancel(timerCheckMember)
	}

	// (g) spawn the worker for Candidate or CheckMember.
	switch next.(type) {
	case candidateState:
		if f.metrics != nil {
			f.metrics.IncElectionsStarted()
		}
		f.spawnElectionWorkerLocked()
	case checkMemberState:
		f.spawnMemberCheckWorkerLocked()
	}

	if prev.name() != next.name() {
		log.Printf("leader: %s -> %s", prev.name(), next.name())
	}
	if f.metrics != nil {
		f.metrics.SetCurrentTerm(f.knownTerm.Number)
	}
}

func (f *FSM) startStateTimersLocked(next state) {
	switch s := next.(type) {
	case observerState:
		if s.electable {
			f.stateGen++
			gen := f.stateGen
			d := f.cfg.HeartbeatInterval + observerWait(f.rng, f.cfg.HeartbeatInterval, f.cfg.ObserverMultiplier, f.bk.factor)
			f.timers.start(timerState, d, func() { f.onStateTimerFired(gen) })
		}
	case votedForState:
		f.stateGen++
		gen := f.stateGen
		f.timers.start(timerState, f.cfg.followerTimeout(), func() { f.onStateTimerFired(gen) })
	case followerState:
		f.stateGen++
		gen := f.stateGen
		f.timers.start(timerState, f.cfg.followerTimeout(), func() { f.onStateTimerFired(gen) })
	case candidateState:
		f.stateGen++
		gen := f.stateGen
		f.timers.start(timerState, f.cfg.candidateTimeout(), func() { f.onStateTimerFired(gen) })
	case checkMemberState:
		f.stateGen++
		gen := f.stateGen
		f.timers.start(timerState, f.cfg.CheckMemberTimeout, func() { f.onStateTimerFired(gen) })
	case leaderState:
		f.heartbeatGen++
		gen := f.heartbeatGen
		f.timers.start(timerSendHeartbeat, 0, func() { f.onHeartbeatTimerFired(gen) })
	}
}

// startCheckMemberTimerLocked (re)schedules the non-state-scoped
// check_member timer, isolated from stateGen since it is rescheduled
// independently of state entry/exit.
func (f *FSM) startCheckMemberTimerLocked() {
	f.checkMemberGenValue++
	gen := f.checkMemberGenValue
	f.timers.start(timerCheckMember, f.cfg.CheckMemberAfter, func() { f.onCheckMemberTimerFired(gen) })
}

func (f *FSM) onStateTimerFired(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.stateGen {
		return // superseded by a later state entry
	}

	switch s := f.cur.(type) {
	case observerState:
		if s.electable {
			f.enterLocked(candidateState{})
		}
	case votedForState:
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
	case followerState:
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
	case candidateState:
		// The election worker overran its budget; treat like a failed
		// election.
		f.cancelWorkerLocked()
		f.bk.double()
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
	case checkMemberState:
		f.cancelWorkerLocked()
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
	}
}

func (f *FSM) onHeartbeatTimerFired(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.heartbeatGen {
		return
	}
	ls, ok := f.cur.(leaderState)
	if !ok {
		return
	}
	info := Info{Leader: f.cfg.Self, HistoryID: ls.historyID, Term: ls.term, Status: ls.status}
	for _, p := range f.livePeersLocked() {
		f.transport.SendHeartbeat(p, info)
	}
	f.heartbeatGen++
	next := f.heartbeatGen
	f.timers.start(timerSendHeartbeat, f.cfg.HeartbeatInterval, func() { f.onHeartbeatTimerFired(next) })
}

func (f *FSM) onCheckMemberTimerFired(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.checkMemberGenValue {
		return
	}
	if isLeaderLike(f.cur) || isRemovedObserver(f.cur) {
		return
	}
	f.enterLocked(checkMemberState{})
}

func (f *FSM) cancelWorkerLocked() {
	if f.workerCancel != nil {
		f.workerCancel()
		f.workerCancel = nil
	}
	f.workerGen++ // any in-flight result becomes stale
}

func (f *FSM) spawnElectionWorkerLocked() {
	f.workerGen++
	gen := f.workerGen
	ctx, cancel := context.WithCancel(context.Background())
	f.workerCancel = cancel

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.onElectionResult(gen, electionOutcome{err: fmt.Errorf("%w: %v", ErrWorkerCrashed, r)})
			}
		}()
		_ = f.agent.Sync(ctx)
		meta, err := f.agent.GetMetadata(ctx)
		if err != nil {
			f.onElectionResult(gen, electionOutcome{err: fmt.Errorf("%w: %v", ErrWorkerCrashed, err)})
			return
		}
		outcome := runElectionWorker(ctx, f.cfg, f.transport, meta)
		f.onElectionResult(gen, outcome)
	}()
}

func (f *FSM) spawnMemberCheckWorkerLocked() {
	f.workerGen++
	gen := f.workerGen
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.CheckMemberTimeout)
	f.workerCancel = cancel

	// The worker samples peers with its own PRNG rather than f.rng: f.rng
	// is FSM-owned state that observerWait draws from under f.mu while the
	// worker is still running, and *rand.Rand is not safe for
	// concurrent use. Seeding a fresh one here, while still holding f.mu,
	// keeps the worker from touching FSM state at all per §5.
	workerRng := mrand.New(mrand.NewSource(f.rng.Int63()))

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				f.onMemberCheckResult(gen, memberCheckOutcome{err: fmt.Errorf("%w: %v", ErrWorkerCrashed, r)})
			}
		}()
		_ = f.agent.Sync(ctx)
		meta, err := f.agent.GetMetadata(ctx)
		if err != nil {
			f.onMemberCheckResult(gen, memberCheckOutcome{err: fmt.Errorf("%w: %v", ErrWorkerCrashed, err)})
			return
		}
		outcome := runMemberCheckWorker(ctx, f.transport, workerRng, meta)
		f.onMemberCheckResult(gen, outcome)
	}()
}

func (f *FSM) onElectionResult(gen uint64, outcome electionOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.workerGen {
		return // canceled/superseded
	}
	if _, ok := f.cur.(candidateState); !ok {
		return
	}

	if outcome.err != nil {
		log.Printf("leader: election failed: %v", outcome.err)
		f.bk.double()
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
		return
	}

	term := outcome.term.Next(f.cfg.Self)
	f.bumpLatestTermLocked(term)
	f.enterLocked(leaderState{historyID: f.historyID, term: term, status: StatusTentative})
}

func (f *FSM) onMemberCheckResult(gen uint64, outcome memberCheckOutcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.workerGen {
		return
	}
	if _, ok := f.cur.(checkMemberState); !ok {
		return
	}

	if outcome.err != nil {
		log.Printf("leader: membership check failed: %v", outcome.err)
		f.enterLocked(observerState{electable: f.electable, removed: f.removed})
		return
	}

	if outcome.removed {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := f.agent.MarkRemoved(ctx, f.cfg.Self); err != nil {
			log.Printf("leader: mark_removed failed: %v", err)
		}
		cancel()
		f.removed = true
		f.electable = false
		f.enterLocked(observerState{electable: false, removed: true})
		return
	}

	f.enterLocked(observerState{electable: f.electable, removed: f.removed})
}

func (f *FSM) currentTermStatusLocked() (Term, Status) {
	switch s := f.cur.(type) {
	case leaderState:
		return s.term, s.status
	case followerState:
		return s.term, s.status
	default:
		return f.knownTerm, StatusInactive
	}
}

func (f *FSM) bumpLatestTermLocked(t Term) {
	if t.Number > f.latestTerm.Number {
		f.latestTerm = t
	}
}

func (f *FSM) cachedPeersLocked() []PeerID {
	all := f.clusterConfig.Peers
	out := make([]PeerID, 0, len(all))
	for _, p := range all {
		if p != f.cfg.Self {
			out = append(out, p)
		}
	}
	return out
}

func (f *FSM) livePeersLocked() []PeerID {
	return f.monitor.LivePeers(f.cachedPeersLocked())
}

func (f *FSM) publishLocked() {
	info := f.snapshotInfoLocked()
	changed := f.publisher.publish(info)
	if changed && info.Status == StatusEstablished {
		f.waiters.notify(info)
	}
}

func (f *FSM) snapshotInfoLocked() Info {
	switch s := f.cur.(type) {
	case leaderState:
		return Info{Leader: f.cfg.Self, HistoryID: s.historyID, Term: s.term, Status: s.status}
	case followerState:
		return Info{Leader: s.leader, HistoryID: s.historyID, Term: s.term, Status: s.status}
	default:
		return Info{}
	}
}
