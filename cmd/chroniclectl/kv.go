package main

import (
	"context"
	"fmt"
	"os"

	"chronicle/internal/kv"

	"github.com/spf13/cobra"
)

var kvCmd = &cobra.Command{
	Use:   "kv",
	Short: "Read and write the replicated store through this node's leadership gate",
}

var kvGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()
		v, ok, err := n.kv.Get(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("(not found)")
			return
		}
		fmt.Println(v)
	},
}

var kvPutCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Write a key, rejected unless this node is the established leader",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()
		if err := n.kv.Put(context.Background(), args[0], args[1]); err != nil {
			if err == kv.ErrNotLeader {
				fmt.Println("Error: this node is not the established leader")
			} else {
				fmt.Printf("Error: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("OK")
	},
}

func init() {
	kvCmd.AddCommand(kvGetCmd)
	kvCmd.AddCommand(kvPutCmd)
	rootCmd.AddCommand(kvCmd)
}
