package main

import (
	"context"
	"log"
	"os"

	"chronicle/internal/agent"
	"chronicle/internal/config"
	"chronicle/internal/events"
	"chronicle/internal/kv"
	"chronicle/internal/leader"
	"chronicle/internal/metrics"
	"chronicle/internal/peermonitor"
	"chronicle/internal/transport"
)

// node bundles the running FSM and the collaborators a subcommand needs to
// inspect it, initialized once as a package-level singleton at startup.
type node struct {
	self leader.PeerID
	cfg  config.NodeConfig
	fsm  *leader.FSM
	kv   *kv.Store
}

// currentNode is nil if no config file was found at startup; every
// subcommand checks it before touching the FSM.
var currentNode *node

func init() {
	path := os.Getenv("CHRONICLE_CONFIG")
	if path == "" {
		path = "chronicle.yaml" // Default; should be configurable via a flag once cobra parses argv before init().
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to load node config from %s: %v", path, err)
		}
		return
	}

	self := leader.PeerID(cfg.Self)
	cc := cfg.ClusterConfig()

	bus := events.NewBus()
	ag := agent.NewMemoryAgent(self, "hist-1", cc, bus)
	router := transport.NewRouter(self)
	monitor := peermonitor.NewMonitor(cc.Peers)

	fsm := leader.NewFSM(cfg.LeaderConfig(), ag, router, monitor, bus, metrics.GetCollector())
	router.Register(self, fsm)

	// Note: in a real deployment, this process would also register the
	// transports for every peer so heartbeats and votes actually cross the
	// network; a chroniclectl instance only ever introspects its own node.
	if err := fsm.Run(context.Background()); err != nil {
		log.Printf("Warning: failed to start leader FSM: %v", err)
		return
	}

	currentNode = &node{self: self, cfg: cfg, fsm: fsm, kv: kv.NewStore(self, fsm)}
}

func requireNode() *node {
	if currentNode == nil {
		log.Fatalf("no node running: set CHRONICLE_CONFIG to a valid node config file")
	}
	return currentNode
}
