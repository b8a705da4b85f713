// Package main is the entry point for the healthmonitor CLI.
//
// Usage:
//
//	healthmonitor serve                      # Start with defaults and environment
//	healthmonitor serve -c healthmonitor.yaml
//	healthmonitor validate -c healthmonitor.yaml
//	healthmonitor version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "healthmonitor",
	Short: "Periodic peer verification with a data ingress endpoint",
	Long: `healthmonitor calls a peer service's /verification endpoint on a fixed
interval, tracks the outcomes, and accepts JSON records pushed to /data.

Configuration comes from an optional YAML file and the environment:
  PEER_URL        base URL of the peer (default http://localhost:5002)
  APP2_URL        used for the peer URL when PEER_URL is unset
  CALL_INTERVAL   seconds between calls (default 45)
  CALL_TIMEOUT    seconds before a call times out (default 10)
  WARMUP_DELAY    seconds before the first call (default 15)
  PORT            HTTP port (default 5001)
  TITLE           service name (default "Health Monitor")

Quick start:
  1. Run: PEER_URL=http://app2:5002 healthmonitor serve
  2. Open http://localhost:5001 in your browser`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this healthmonitor binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("healthmonitor %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
