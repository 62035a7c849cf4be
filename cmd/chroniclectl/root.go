package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "chroniclectl",
	Short: "Inspect and drive a Chronicle node's leader lifecycle",
	Long: `chroniclectl boots one Chronicle node from a YAML config file and lets
you inspect its leader election status, peer set, and metrics, or block
until a leader is established.`,
}
