package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"chronicle/internal/leader"

	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until an established leader is visible",
	Long:  `Calls wait_for_leader and prints the result once a leader is established or the timeout elapses.`,
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		info, err := n.fsm.WaitForLeader(ctx, leader.AnyIncarnation, timeout)
		if err != nil {
			fmt.Printf("wait_for_leader: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Leader: %s (term %s)\n", info.Leader, info.Term)
	},
}

func init() {
	waitCmd.Flags().Duration("timeout", 10*time.Second, "how long to wait for a leader before giving up")
	rootCmd.AddCommand(waitCmd)
}
