package leader

import "time"

// Config holds the FSM's timing knobs, with the documented defaults.
type Config struct {
	// Self is this node's peer identifier.
	Self PeerID

	// HeartbeatInterval is H, the base unit all other timings derive
	// from.
	HeartbeatInterval time.Duration

	// ObserverMultiplier bounds the randomized observer wait:
	// rand(1..ObserverMultiplier * backoff * H).
	ObserverMultiplier int

	// CandidateMultiplier sets the candidate state timeout factor.
	CandidateMultiplier int

	// FollowerMultiplier sets the follower/voted-for state timeout
	// factor.
	FollowerMultiplier int

	// MaxBackoff is the ceiling of the exponential observer backoff.
	MaxBackoff int

	// ExtraWaitTime is the bounded post-quorum wait an election worker
	// spends refreshing max_term before returning.
	ExtraWaitTime time.Duration

	// CheckMemberAfter is the idle period before a membership
	// verification is triggered.
	CheckMemberAfter time.Duration

	// CheckMemberTimeout is how long the FSM stays in CheckMember before
	// giving up and returning to Observer regardless of worker outcome.
	CheckMemberTimeout time.Duration
}

// DefaultConfig returns the documented default timing knobs.
func DefaultConfig(self PeerID) Config {
	return Config{
		Self:                self,
		HeartbeatInterval:   100 * time.Millisecond,
		ObserverMultiplier:  5,
		CandidateMultiplier: 50,
		FollowerMultiplier:  20,
		MaxBackoff:          16,
		ExtraWaitTime:       10 * time.Millisecond,
		CheckMemberAfter:    10 * time.Second,
		CheckMemberTimeout:  10 * time.Second,
	}
}

func (c Config) candidateTimeout() time.Duration {
	return time.Duration(c.CandidateMultiplier) * c.HeartbeatInterval
}

func (c Config) followerTimeout() time.Duration {
	return time.Duration(c.FollowerMultiplier) * c.HeartbeatInterval
}
