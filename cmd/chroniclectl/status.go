package main

import (
	"fmt"

	"chronicle/internal/leader"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this node's leader lifecycle status",
	Long:  `Display the current leader, term, and election status as seen by this node.`,
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()

		fmt.Println("Chronicle Node Status")
		fmt.Println("======================")
		fmt.Println()
		fmt.Printf("Self: %s\n", n.self)

		info, err := n.fsm.GetLeader()
		switch err {
		case nil:
			fmt.Printf("Leader: %s (term %s, %s)\n", info.Leader, info.Term, info.Status)
		case leader.ErrNoLeader:
			fmt.Println("Leader: (none established)")
		default:
			fmt.Printf("Leader: error: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
