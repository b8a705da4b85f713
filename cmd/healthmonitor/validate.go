package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd validates configuration without starting the monitor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the healthmonitor configuration without starting the monitor.

This command parses the YAML file (if given), applies environment overrides,
and validates all fields.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  healthmonitor validate -c config.yaml
  PEER_URL=http://app2:5002 healthmonitor validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Title:         %s\n", cfg.Title)
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Peer URL:      %s\n", cfg.PeerURL)
	fmt.Printf("  Call interval: %s\n", cfg.CallInterval.Duration())
	fmt.Printf("  Call timeout:  %s\n", cfg.CallTimeout.Duration())
	fmt.Printf("  Warm-up delay: %s\n", cfg.WarmupDelay.Duration())

	return nil
}
