package leader

import (
	"context"
	"log"
	"math/rand"
)

const maxMemberCheckSample = 5

// memberCheckOutcome is the one-shot result a membership checker
// delivers to the FSM.
type memberCheckOutcome struct {
	removed bool
	err     error
}

// runMemberCheckWorker samples up to 5 random peers other
// than self and ask whether this node is still a cluster member. Any
// ok(false) answer means the node was silently removed.
func runMemberCheckWorker(ctx context.Context, transport PeerTransport, rng *rand.Rand, meta Metadata) memberCheckOutcome {
	self := meta.Self
	all := meta.Config.Quorum.Peers()

	others := make([]PeerID, 0, len(all))
	for _, p := range all {
		if p != self {
			others = append(others, p)
		}
	}
	if len(others) == 0 {
		return memberCheckOutcome{}
	}

	rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	if len(others) > maxMemberCheckSample {
		others = others[:maxMemberCheckSample]
	}

	type checkResult struct {
		peer  PeerID
		reply CheckMemberReply
		err   error
	}

	results := make(chan checkResult, len(others))
	for _, p := range others {
		p := p
		go func() {
			reply, err := transport.RequestCheckMember(ctx, p, meta.HistoryID, self, meta.HighSeqno)
			results <- checkResult{peer: p, reply: reply, err: err}
		}()
	}

	for range others {
		select {
		case <-ctx.Done():
			return memberCheckOutcome{err: ctx.Err()}
		case res := <-results:
			if res.err != nil {
				log.Printf("leader: member check: peer %s unreachable: %v", res.peer, res.err)
				continue
			}
			if !res.reply.IsMember {
				return memberCheckOutcome{removed: true}
			}
		}
	}

	return memberCheckOutcome{}
}
