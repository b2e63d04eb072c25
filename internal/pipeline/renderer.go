package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/proofpilot/internal/model"
	"github.com/ppiankov/proofpilot/internal/rules"
)

const disclaimer = "This report is generated via a hybrid oracle and deterministic rule verification engine. " +
	"Accuracy is contingent upon the availability of public consensus data at the time of processing. " +
	"This report is for auditing and verification purposes only."

// Renderer writes audit reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
	engine        string
}

// NewRenderer creates a renderer. engine names the producing build in report headers.
func NewRenderer(includeFooter bool, engine string) *Renderer {
	if engine == "" {
		engine = "ProofPilot"
	}
	return &Renderer{includeFooter: includeFooter, engine: engine}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.AuditReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// WriteJSON encodes the report as indented JSON to w
func (r *Renderer) WriteJSON(w io.Writer, report *model.AuditReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderMarkdown writes the forensic audit report
func (r *Renderer) RenderMarkdown(report *model.AuditReport, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the forensic audit report
func (r *Renderer) Markdown(report *model.AuditReport) string {
	var b strings.Builder

	b.WriteString("# PROOFPILOT OFFICIAL FORENSIC AUDIT\n")
	fmt.Fprintf(&b, "**REPORT ID:** %s\n", report.ID)
	fmt.Fprintf(&b, "**TIMESTAMP:** %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "**SESSION:** %s\n", report.SessionID)
	b.WriteString("**SECURITY CLASSIFICATION:** INTERNAL/FORENSIC\n")
	fmt.Fprintf(&b, "**INTEGRITY STATUS:** %s\n\n", integrityStatus(report.Results))

	b.WriteString("## 1. EXECUTIVE SUMMARY\n")
	fmt.Fprintf(&b, "- **Document Persona:** %s\n", report.Persona)
	fmt.Fprintf(&b, "- **Global Reliability Score:** %d%%\n", report.Stats.AverageConfidence)
	fmt.Fprintf(&b, "- **Total Claims Processed:** %d\n", len(report.Claims))
	if len(report.Unverified) > 0 {
		fmt.Fprintf(&b, "- **Claims Without Oracle Result:** %s\n", strings.Join(report.Unverified, ", "))
	}
	if report.Stats.Contradictions > 0 {
		fmt.Fprintf(&b, "- **Contradictions Reconciled:** %d\n", report.Stats.Contradictions)
	}
	fmt.Fprintf(&b, "- **Analysis Engine:** %s (oracle: %s)\n", r.engine, report.Oracle)
	if report.Input != "" {
		fmt.Fprintf(&b, "- **Input:** %s\n", report.Input)
	}
	b.WriteString("\n")

	if sc := report.Scenario; sc != nil {
		mode := "live"
		if report.Mock {
			mode = "mock"
		}
		fmt.Fprintf(&b, "Security simulation **%s** (%s, %s run). ", sc.Name, sc.ID, mode)
		fmt.Fprintf(&b, "%d requests across %d endpoints over %.0fs, %d auth failures, token reuse: %t, priority score %d.\n\n",
			sc.Summary.RequestCount, sc.Summary.UniqueEndpoints, sc.Summary.TimeSpanSec,
			sc.Summary.AuthFailures, sc.Summary.TokenReuse, sc.PriorityScore)
	} else {
		fmt.Fprintf(&b, "The analyzed document exhibits characteristics of a **%s** profile. ", report.Persona)
		b.WriteString("Every oracle verdict passed through the deterministic rule engine and the cross-claim consistency check before it was recorded.\n\n")
	}

	if risk := report.Risk; risk != nil {
		b.WriteString("### Risk Analysis\n")
		b.WriteString(risk.Summary + "\n")
		writeList(&b, "Identified Risks", risk.IdentifiedRisks)
		writeList(&b, "Suggested Actions", risk.SuggestedActions)
		b.WriteString("\n")
	}

	b.WriteString("## 2. CHAIN OF CUSTODY & LOGIC TRAIL\n")
	for i, claim := range report.Claims {
		res, ok := report.Result(claim.ID)
		if !ok {
			continue
		}
		writeClaim(&b, i+1, claim, res)
	}

	if len(report.References) > 0 {
		b.WriteString("\n## 3. DOCUMENT REFERENCES\n")
		for _, ref := range report.References {
			fmt.Fprintf(&b, "- %s: %s (credibility %.2f, %s)\n", ref.Title, ref.URI, ref.CredibilityScore, ref.CredibilityReason)
		}
	}

	b.WriteString("\n## DISCLAIMER\n")
	b.WriteString(disclaimer + "\n")

	if r.includeFooter {
		b.WriteString("\n*END OF RECORD*\n")
		fmt.Fprintf(&b, "*SIGNED: %s*\n", strings.ToUpper(r.engine))
	}

	return b.String()
}

func writeClaim(b *strings.Builder, n int, claim model.Claim, res model.VerificationResult) {
	fmt.Fprintf(b, "### [TRACE_ID: %s] CLAIM #%d\n", traceID(res.ClaimID), n)
	fmt.Fprintf(b, "**Statement:** %q\n", claim.Text)
	if claim.Category != "" {
		fmt.Fprintf(b, "- **Category:** %s\n", claim.Category)
	}
	fmt.Fprintf(b, "- **Final Verdict:** %s\n", strings.ToUpper(string(res.Verdict)))
	if res.RawVerdict != "" && res.RawVerdict != res.Verdict {
		fmt.Fprintf(b, "- **Oracle Verdict:** %s\n", strings.ToUpper(string(res.RawVerdict)))
	}
	fmt.Fprintf(b, "- **Reliability Weight:** %d%%\n", res.Confidence)
	hash := res.IntegrityHash
	if hash == "" {
		hash = "N/A"
	}
	fmt.Fprintf(b, "- **Integrity Hash:** `%s`\n", hash)
	fmt.Fprintf(b, "- **Signals:** source %.2f, consensus %.2f, logic %.2f\n",
		res.Signals.SourceCredibility, res.Signals.ConsensusStrength, res.Signals.LogicalConsistency)
	fmt.Fprintf(b, "- **Forensic Explanation:** %s\n", res.Explanation)

	if res.ConsistencyFlag {
		fmt.Fprintf(b, "- **Consistency Correction:** %s (was %s)\n", res.CorrectionNote, strings.ToUpper(string(res.OriginalVerdict)))
	}

	if len(res.AuditLog) > 0 {
		b.WriteString("\n**Heuristic Logic Adjustments:**\n")
		for _, adj := range res.AuditLog {
			fmt.Fprintf(b, "  - [PRIORITY:%s] %s: Adjusted from %s to %s. %s\n",
				strings.ToUpper(string(adj.Priority)), adj.RuleName, adj.PreviousVerdict, adj.NewVerdict, adj.Note)
		}
	}

	if len(res.Sources) > 0 {
		b.WriteString("\n**Corroborating Evidence:**\n")
		for _, src := range res.Sources {
			fmt.Fprintf(b, "  - %s: %s (%.2f)\n", src.Title, src.URI, src.CredibilityScore)
		}
	}
	b.WriteString("\n---\n\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s:**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// RenderSummary prints a short overview of the report
func (r *Renderer) RenderSummary(w io.Writer, report *model.AuditReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", report.ID)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	if report.Scenario != nil {
		fmt.Fprintf(w, "  Scenario:    %s (%s)\n", report.Scenario.Name, report.Scenario.ID)
	} else if report.Input != "" {
		fmt.Fprintf(w, "  Input:       %s\n", report.Input)
	}
	fmt.Fprintf(w, "  Persona:     %s\n", report.Persona)
	fmt.Fprintf(w, "  Claims:      %d\n", len(report.Claims))
	fmt.Fprintf(w, "  Reliability: %d%%\n", report.Stats.AverageConfidence)
	fmt.Fprintf(w, "\n")
	for _, v := range model.AllVerdicts {
		fmt.Fprintf(w, "  %-12s %d\n", string(v)+":", report.Stats.Count(v))
	}
	if report.Stats.Contradictions > 0 {
		fmt.Fprintf(w, "\n  ⚠️  %d contradiction(s) reconciled\n", report.Stats.Contradictions)
	}
	if len(report.Unverified) > 0 {
		fmt.Fprintf(w, "  ⚠️  No oracle result for: %s\n", strings.Join(report.Unverified, ", "))
	}
	fmt.Fprintf(w, "\n")
}

// integrityStatus reports whether every result still matches its integrity hash
func integrityStatus(results []model.VerificationResult) string {
	for _, res := range results {
		if !rules.VerifyIntegrity(res) {
			return "MISMATCH"
		}
	}
	return "VERIFIED (CHAIN-HASHED)"
}

func traceID(claimID string) string {
	id := strings.ToUpper(claimID)
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
