package config

import (
	"os"
	"path/filepath"
	"testing"

	"chronicle/internal/leader"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, "node.yaml")

	content := `
apiVersion: chronicle/v1
kind: ChronicleNode
self: node-a
cluster:
  peers: [node-a, node-b, node-c]
  quorum:
    rule: majority
timing:
  heartbeatMillis: 50
`
	if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(cfgFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Self != "node-a" {
		t.Errorf("expected self 'node-a', got %q", cfg.Self)
	}
	if len(cfg.Cluster.Peers) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(cfg.Cluster.Peers))
	}

	lc := cfg.LeaderConfig()
	if lc.HeartbeatInterval.Milliseconds() != 50 {
		t.Errorf("expected 50ms heartbeat interval, got %s", lc.HeartbeatInterval)
	}
	if lc.CandidateMultiplier != 50 {
		t.Errorf("expected default candidate multiplier 50, got %d", lc.CandidateMultiplier)
	}

	cc := cfg.ClusterConfig()
	if len(cc.Peers) != 3 {
		t.Fatalf("expected 3 peers in cluster config, got %d", len(cc.Peers))
	}
	votes := map[leader.PeerID]bool{cc.Peers[0]: true, cc.Peers[1]: true}
	if !cc.Quorum.HasQuorum(votes) {
		t.Errorf("expected 2 of 3 to satisfy majority quorum")
	}
}

func TestValidateRejectsSelfNotInPeers(t *testing.T) {
	cfg := NodeConfig{}
	cfg.Self = "node-x"
	cfg.Cluster.Peers = []string{"node-a", "node-b"}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error when self is not a peer")
	}
}

func TestValidateRejectsUnknownQuorumRule(t *testing.T) {
	cfg := NodeConfig{}
	cfg.Self = "node-a"
	cfg.Cluster.Peers = []string{"node-a"}
	cfg.Cluster.Quorum.Rule = "bogus"

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown quorum rule")
	}
}
