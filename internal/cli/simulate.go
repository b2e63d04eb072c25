package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/proofpilot/internal/scenario"
)

var (
	scenarioFile string
	mockRun      bool
	listOnly     bool
	simJSON      string
	simMD        string
	simTimeout   time.Duration
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario-id]",
	Short: "Classify a simulated security request log",
	Long: `Simulate summarizes a request log into a compact digest (request count,
endpoints, auth failures, token reuse, time span, user-agent entropy) and
asks the oracle to classify the session. Live runs consume one oracle call
from the session budget; --mock uses the scenario's canned response.

Without a scenario ID every scenario is run.

Example:
  proofpilot simulate --list
  proofpilot simulate ds3 --mock
  proofpilot simulate --file scenarios.yaml --md sim.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&scenarioFile, "file", "f", "", "load scenarios from a YAML or JSON file instead of the built-in set")
	simulateCmd.Flags().BoolVar(&mockRun, "mock", false, "use canned responses instead of the oracle")
	simulateCmd.Flags().BoolVar(&listOnly, "list", false, "list available scenarios and exit")
	simulateCmd.Flags().StringVar(&simJSON, "json", "", `output JSON path ("-" for stdout, single scenario only)`)
	simulateCmd.Flags().StringVar(&simMD, "md", "", "output Markdown path (single scenario only)")
	simulateCmd.Flags().DurationVar(&simTimeout, "timeout", 2*time.Minute, "overall simulation timeout")
}

func loadScenarios() ([]scenario.SecurityScenario, error) {
	if scenarioFile == "" {
		return scenario.BuiltIn(), nil
	}
	scenarios, err := scenario.Load(scenarioFile)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	return scenarios, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	scenarios, err := loadScenarios()
	if err != nil {
		return err
	}

	if listOnly {
		out := cmd.OutOrStdout()
		for _, sc := range scenarios {
			mock := ""
			if sc.MockResponse != nil {
				mock = " [mock]"
			}
			fmt.Fprintf(out, "%-6s %-32s %d requests%s\n", sc.ID, sc.Name, len(sc.Requests), mock)
		}
		return nil
	}

	if len(args) == 1 {
		sc, err := scenario.Find(scenarios, args[0])
		if err != nil {
			return err
		}
		scenarios = []scenario.SecurityScenario{sc}
	} else if simJSON != "" || simMD != "" {
		return fmt.Errorf("--json and --md require a scenario ID")
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), simTimeout)
	defer cancel()

	cfg, err := commandConfig()
	if err != nil {
		return err
	}

	orc, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}

	failures := 0
	for _, sc := range scenarios {
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Simulating %s (%s)...\n", sc.ID, sc.Name)
		}

		report, err := orc.Simulate(ctx, sc, mockRun)
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", sc.ID, err)
			continue
		}

		if len(scenarios) == 1 {
			return writeReport(cmd, cfg, report, simJSON, simMD)
		}

		res := report.Results[0]
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %-6s %-12s %3d%%  %s\n", sc.ID, res.Verdict, res.Confidence, report.Persona)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d simulations failed", failures, len(scenarios))
	}
	return nil
}
