package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live-watch this node's leader status",
	Long:  `Prints a line every time this node's leader status changes until interrupted with Ctrl-C.`,
	Run: func(cmd *cobra.Command, args []string) {
		n := requireNode()

		sub, unsub := n.fsm.Subscribe()
		defer unsub()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

		clearScreen := term.IsTerminal(int(os.Stdout.Fd()))

		fmt.Printf("Watching leader status for %s (Ctrl-C to stop)\n", n.self)
		for {
			select {
			case info := <-sub:
				if clearScreen {
					fmt.Print("\033[H\033[2J")
				}
				fmt.Printf("[%s] leader=%s term=%s status=%s\n",
					time.Now().Format("15:04:05"), info.Leader, info.Term, info.Status)
			case <-interrupt:
				fmt.Println("stopped")
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
