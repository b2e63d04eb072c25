package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/proofpilot/internal/credibility"
	"github.com/ppiankov/proofpilot/internal/oracle"
	"github.com/ppiankov/proofpilot/internal/rules"
	"github.com/ppiankov/proofpilot/internal/util"
)

// selftestCmd represents the selftest command
var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the rule-engine fixture table and check the oracle",
	Long: `Selftest runs the built-in rule-engine fixtures (hedge downgrades,
scientific strictness, false-verdict boost and pass-through cases) and prints
PASS or FAIL for each, then checks whether the configured oracle is reachable.

No oracle budget is consumed.`,
	Args: cobra.NoArgs,
	RunE: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

// availabilityChecker is implemented by oracles that can probe their backend
type availabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

func runSelftest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	failed := printFixtures(out, rules.RunFixtures(rules.NewEngine()))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	orc, err := oracle.NewOracle(cfg.Oracle, credibility.NewScorer(&cfg.Credibility), util.NewHTTPClient(cfg.HTTP), nil)
	if err != nil {
		fmt.Fprintf(out, "\nOracle: ✗ %v\n", err)
	} else if checker, ok := orc.(availabilityChecker); ok {
		ctx, cancel := context.WithTimeout(commandContext(cmd), 15*time.Second)
		defer cancel()
		status := "✓ reachable"
		if !checker.IsAvailable(ctx) {
			status = "✗ unreachable"
		}
		fmt.Fprintf(out, "\nOracle: %s %s\n", orc.Name(), status)
	}

	if failed > 0 {
		return fmt.Errorf("%d rule fixture(s) failed", failed)
	}
	return nil
}

// printFixtures writes one line per fixture and returns the failure count
func printFixtures(w io.Writer, outcomes []rules.FixtureOutcome) int {
	failed := 0
	fmt.Fprintf(w, "Rule engine fixtures\n\n")
	for _, o := range outcomes {
		status := "PASS"
		if !o.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "  [%s] %s\n         %s\n", status, o.Name, o.Details)
	}
	fmt.Fprintf(w, "\n  %d/%d passed\n", len(outcomes)-failed, len(outcomes))
	return failed
}
