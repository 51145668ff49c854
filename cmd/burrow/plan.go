package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cuemby/burrow/pkg/config"
	"github.com/cuemby/burrow/pkg/controller"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/transport"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [GROUP]",
	Short: "Show the steps a convergence cycle would execute",
	Long: `Show the steps one convergence cycle would execute, without executing
anything.

Gathers the servers and load balancer nodes from the cloud APIs, plans
against the desired state in the configuration file, and prints the
optimized step bag. With no argument every configured group is planned.

Examples:
  # Dry-run every group
  burrow plan -c burrow.yaml

  # Dry-run the group "web"
  burrow plan web -c burrow.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringP("config", "c", "burrow.yaml", "Configuration file")
	rootCmd.AddCommand(planCmd)
}

// plannedStep is the printable form of one step.
type plannedStep struct {
	Kind steps.StepKind `json:"kind"`
	Step steps.Step     `json:"step"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	var targets []types.DesiredGroupState
	if len(args) == 1 {
		group, ok := cfg.Group(args[0])
		if !ok {
			return fmt.Errorf("group %q not found in %s", args[0], path)
		}
		targets = append(targets, group.DesiredState())
	} else {
		targets = cfg.DesiredStates()
	}

	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: false})

	requester := transport.NewHTTPRequester(cfg.Endpoints(), cfg.Cloud.AuthToken)
	ctrl := controller.NewController(controller.Options{
		Source:       cfg,
		Requester:    requester,
		BuildTimeout: cfg.BuildTimeout.Std(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CycleTimeout.Std())
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, desired := range targets {
		conv, err := ctrl.PlanGroup(ctx, desired)
		if err != nil {
			return fmt.Errorf("failed to plan group %s: %v", desired.GroupID, err)
		}

		if len(conv) == 0 {
			fmt.Printf("Group %q is converged, nothing to do.\n", desired.GroupID)
			continue
		}

		fmt.Printf("Group %q diverged, %d steps planned:\n", desired.GroupID, len(conv))
		out := make([]plannedStep, 0, len(conv))
		for _, s := range conv {
			out = append(out, plannedStep{Kind: s.Kind(), Step: s})
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}
