package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - Cloud server autoscaling convergence engine",
	Long: `Burrow keeps scaling groups of cloud servers converged with their
desired state. Each cycle it observes the servers and load balancer
nodes that exist, plans the minimal set of API calls to close the gap,
and executes them.

Convergence is stateless: every cycle re-derives the plan from what the
cloud APIs report, so crashed cycles and external changes heal on the
next pass.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
}
