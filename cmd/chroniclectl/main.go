// Command chroniclectl is a node-local CLI for Chronicle's leader lifecycle
// subsystem: it boots one node's FSM from a YAML config and exposes its
// status, peer list, and leader-wait/watch operations over subcommands.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
