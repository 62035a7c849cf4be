package main

import (
	"fmt"

	"chronicle/internal/metrics"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Start the Prometheus metrics server",
	Long:  `Start an HTTP server exposing this node's leader-lifecycle metrics in Prometheus format.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")

		fmt.Printf("Starting chroniclectl metrics server on port %d\n", port)
		fmt.Println("Press Ctrl+C to stop")

		if err := metrics.StartServer(port); err != nil {
			fmt.Printf("Error: failed to start metrics server: %v\n", err)
		}
	},
}

func init() {
	metricsCmd.Flags().IntP("port", "p", 9090, "Port for the metrics server")
	rootCmd.AddCommand(metricsCmd)
}
