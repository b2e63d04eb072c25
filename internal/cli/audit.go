package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	auditTimeout time.Duration
	noCache      bool
	noFooter     bool
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <file|url|->",
	Short: "Audit the factual claims in a document",
	Long: `Audit extracts the factual claims from a document and verifies each one:
- The oracle returns a raw verdict and confidence per claim
- Deterministic rules correct hedged and over-confident verdicts
- Contradictions between claims are reconciled
- The document is classified into a persona
- A forensic report with an integrity hash per verdict is written

The input may be a file path, an http(s) URL, or "-" for stdin.

Example:
  proofpilot audit article.txt
  proofpilot audit https://example.com/story --md report.md
  cat notes.txt | proofpilot audit - --json -`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&outJSON, "json", "report.json", `output JSON path ("-" for stdout, "" to skip)`)
	auditCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 5*time.Minute, "overall audit timeout")
	auditCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verification cache")
	auditCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	auditCmd.Flags().String("oracle", "", "oracle provider (openai, ollama, offline)")
	auditCmd.Flags().String("model", "", "oracle model name")

	_ = viper.BindPFlag("oracle.provider", auditCmd.Flags().Lookup("oracle"))
	_ = viper.BindPFlag("oracle.model", auditCmd.Flags().Lookup("model"))
}

func runAudit(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(commandContext(cmd), auditTimeout)
	defer cancel()

	cfg, err := commandConfig()
	if err != nil {
		return err
	}

	orc, err := newOrchestrator(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing: %s\n", input)
		fmt.Fprintf(os.Stderr, "Oracle:   %s\n", orc.OracleName())
		fmt.Fprintf(os.Stderr, "Session:  %s\n", orc.SessionID())
		fmt.Fprintf(os.Stderr, "Budget:   %d oracle calls\n", orc.Budget().Ceiling())
		fmt.Fprintln(os.Stderr)
	}

	report, err := orc.AuditInput(ctx, input)
	if err != nil {
		if errors.Is(err, pipeline.ErrReplay) {
			return fmt.Errorf("audit rejected: %w", err)
		}
		return fmt.Errorf("audit failed: %w", err)
	}

	return writeReport(cmd, cfg, report, outJSON, outMD)
}

// commandConfig loads the layered config and applies per-command flags
func commandConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	cfg.Output.Verbose = verbose
	return cfg, nil
}

// writeReport renders the requested outputs and prints the summary to stderr
func writeReport(cmd *cobra.Command, cfg *model.Config, report *model.AuditReport, jsonPath, mdPath string) error {
	renderer := newRenderer(cfg)

	switch jsonPath {
	case "":
	case "-":
		if err := renderer.WriteJSON(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	default:
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	renderer.RenderSummary(cmd.ErrOrStderr(), report)
	return nil
}
