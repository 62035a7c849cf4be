// Package config loads a node's cluster membership, quorum rule, and
// timing knobs from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"chronicle/internal/leader"
)

// NodeConfig is the on-disk shape of a node's configuration file.
type NodeConfig struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Self       string `yaml:"self"`
	Cluster    struct {
		Peers []string `yaml:"peers"`
		Quorum struct {
			Rule string   `yaml:"rule"` // "majority" or "all"
			Set  []string `yaml:"set,omitempty"`
		} `yaml:"quorum"`
	} `yaml:"cluster"`
	Timing struct {
		HeartbeatMillis     int `yaml:"heartbeatMillis"`
		ObserverMultiplier  int `yaml:"observerMultiplier"`
		CandidateMultiplier int `yaml:"candidateMultiplier"`
		FollowerMultiplier  int `yaml:"followerMultiplier"`
		MaxBackoff          int `yaml:"maxBackoff"`
		ExtraWaitMillis     int `yaml:"extraWaitMillis"`
		CheckMemberAfterSec int `yaml:"checkMemberAfterSeconds"`
		CheckMemberTimeoutSec int `yaml:"checkMemberTimeoutSeconds"`
	} `yaml:"timing"`
}

// ValidationError reports a malformed node configuration file.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// LoadFromFile reads and validates a node configuration file.
func LoadFromFile(filename string) (NodeConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return NodeConfig{}, err
	}

	var cfg NodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("config: parse %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the config names a known quorum rule and includes
// self in the peer set.
func (c *NodeConfig) Validate() error {
	if c.Kind != "" && c.Kind != "ChronicleNode" {
		return ValidationError{"kind", "must be ChronicleNode"}
	}
	if c.Self == "" {
		return ValidationError{"self", "missing"}
	}
	found := false
	for _, p := range c.Cluster.Peers {
		if p == c.Self {
			found = true
			break
		}
	}
	if !found {
		return ValidationError{"self", "must appear in cluster.peers"}
	}
	switch c.Cluster.Quorum.Rule {
	case "", "majority", "all":
	default:
		return ValidationError{"cluster.quorum.rule", "must be majority or all"}
	}
	return nil
}

// ClusterConfig converts the loaded YAML into a leader.ClusterConfig.
func (c NodeConfig) ClusterConfig() leader.ClusterConfig {
	peers := make([]leader.PeerID, len(c.Cluster.Peers))
	for i, p := range c.Cluster.Peers {
		peers[i] = leader.PeerID(p)
	}

	set := peers
	if len(c.Cluster.Quorum.Set) > 0 {
		set = make([]leader.PeerID, len(c.Cluster.Quorum.Set))
		for i, p := range c.Cluster.Quorum.Set {
			set[i] = leader.PeerID(p)
		}
	}

	var q leader.Quorum
	switch c.Cluster.Quorum.Rule {
	case "all":
		q = leader.All{Set: set}
	default:
		q = leader.Majority{Set: set}
	}

	return leader.ClusterConfig{Peers: peers, Quorum: q}
}

// LeaderConfig converts the loaded timing section into a leader.Config,
// filling any zero-valued field with leader.DefaultConfig's default.
func (c NodeConfig) LeaderConfig() leader.Config {
	def := leader.DefaultConfig(leader.PeerID(c.Self))

	out := def
	out.Self = leader.PeerID(c.Self)
	if c.Timing.HeartbeatMillis > 0 {
		out.HeartbeatInterval = time.Duration(c.Timing.HeartbeatMillis) * time.Millisecond
	}
	if c.Timing.ObserverMultiplier > 0 {
		out.ObserverMultiplier = c.Timing.ObserverMultiplier
	}
	if c.Timing.CandidateMultiplier > 0 {
		out.CandidateMultiplier = c.Timing.CandidateMultiplier
	}
	if c.Timing.FollowerMultiplier > 0 {
		out.FollowerMultiplier = c.Timing.FollowerMultiplier
	}
	if c.Timing.MaxBackoff > 0 {
		out.MaxBackoff = c.Timing.MaxBackoff
	}
	if c.Timing.ExtraWaitMillis > 0 {
		out.ExtraWaitTime = time.Duration(c.Timing.ExtraWaitMillis) * time.Millisecond
	}
	if c.Timing.CheckMemberAfterSec > 0 {
		out.CheckMemberAfter = time.Duration(c.Timing.CheckMemberAfterSec) * time.Second
	}
	if c.Timing.CheckMemberTimeoutSec > 0 {
		out.CheckMemberTimeout = time.Duration(c.Timing.CheckMemberTimeoutSec) * time.Second
	}
	return out
}
