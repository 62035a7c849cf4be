package leader

import (
	"context"
	"log"
	"time"
)

// electionOutcome is the one-shot result an election worker delivers
// to the FSM. Exactly one of ok or err is meaningful.
type electionOutcome struct {
	ok   bool
	term Term // max_term observed, used to compute NextTerm(term, self)
	err  error
}

// runElectionWorker requests votes from a quorum and reports the outcome.
// It is spawned as a plain goroutine linked to the FSM by generation
// number (not by channel ownership, since the FSM may move on before
// this returns); late results are discarded by the caller.
func runElectionWorker(ctx context.Context, cfg Config, transport PeerTransport, meta Metadata) electionOutcome {
	self := meta.Self
	pos := meta.Position()
	hid := meta.HistoryID

	peers := meta.Config.Quorum.Peers()
	if !containsPeer(peers, self) {
		return electionOutcome{err: ErrNotVoter}
	}

	others := make([]PeerID, 0, len(peers))
	for _, p := range peers {
		if p != self {
			others = append(others, p)
		}
	}

	if len(others) == 0 {
		return electionOutcome{ok: true, term: meta.HighTerm}
	}

	type voteResult struct {
		peer  PeerID
		reply VoteReply
		err   error
	}

	results := make(chan voteResult, len(others))
	for _, p := range others {
		p := p
		go func() {
			reply, err := transport.RequestVote(ctx, p, self, hid, pos)
			results <- voteResult{peer: p, reply: reply, err: err}
		}()
	}

	votes := map[PeerID]bool{self: true}
	maxTerm := meta.HighTerm
	remaining := len(others)
	quorumMet := false
	var extraDeadline <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return electionOutcome{err: ctx.Err()}

		case res := <-results:
			remaining--
			switch {
			case res.err != nil:
				log.Printf("leader: election: peer %s unreachable: %v", res.peer, res.err)
			case res.reply.Granted:
				votes[res.peer] = true
				maxTerm = maxTermOf(maxTerm, res.reply.LatestTerm)
			default:
				log.Printf("leader: election: peer %s refused vote: %v", res.peer, res.reply.Reason)
				maxTerm = maxTermOf(maxTerm, res.reply.LatestTerm)
			}

			if !quorumMet && meta.Config.Quorum.HasQuorum(votes) {
				quorumMet = true
				extraDeadline = time.After(cfg.ExtraWaitTime)
			}

			if remaining == 0 {
				if quorumMet {
					return electionOutcome{ok: true, term: maxTerm}
				}
				return electionOutcome{err: ErrNoQuorum}
			}

		case <-extraDeadline:
			return electionOutcome{ok: true, term: maxTerm}
		}
	}
}

func containsPeer(set []PeerID, p PeerID) bool {
	for _, s := range set {
		if s == p {
			return true
		}
	}
	return false
}

func maxTermOf(a, b Term) Term {
	if b.Number > a.Number {
		return b
	}
	return a
}
