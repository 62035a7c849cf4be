package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List the configured cluster peers",
	Long:  `Display every peer in this node's cluster configuration and whether it is this node.`,
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()

		peers := n.cfg.Cluster.Peers
		if len(peers) == 0 {
			fmt.Println("No peers configured")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PEER\tSELF")
		fmt.Fprintln(w, "----\t----")
		for _, p := range peers {
			fmt.Fprintf(w, "%s\t%v\n", p, p == n.cfg.Self)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d peer(s)\n", len(peers))
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
}
