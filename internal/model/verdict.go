package model

import "strings"

// Verdict is the truth classification assigned to a claim
type Verdict string

const (
	VerdictTrue       Verdict = "True"
	VerdictLikelyTrue Verdict = "Likely True"
	VerdictUnverified Verdict = "Unverified"
	VerdictFalse      Verdict = "False"
)

// AllVerdicts lists verdicts in display order
var AllVerdicts = []Verdict{VerdictTrue, VerdictLikelyTrue, VerdictUnverified, VerdictFalse}

// ParseVerdict accepts display values ("Likely True") and enum-style names
// ("LIKELY_TRUE"), case-insensitively.
func ParseVerdict(s string) (Verdict, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "true":
		return VerdictTrue, true
	case "likely true":
		return VerdictLikelyTrue, true
	case "unverified":
		return VerdictUnverified, true
	case "false":
		return VerdictFalse, true
	default:
		return "", false
	}
}

// Valid reports whether v is one of the four known verdicts
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictLikelyTrue, VerdictUnverified, VerdictFalse:
		return true
	}
	return false
}

// Affirmative reports whether the verdict endorses the claim (TRUE or LIKELY_TRUE)
func (v Verdict) Affirmative() bool {
	return v == VerdictTrue || v == VerdictLikelyTrue
}

// RulePriority ranks rule adjustments in the audit log
type RulePriority string

const (
	PriorityHigh   RulePriority = "High"
	PriorityMedium RulePriority = "Medium"
	PriorityLow    RulePriority = "Low"
)

// Persona summarizes a whole claim set (or simulated session)
type Persona string

const (
	PersonaFactualCore     Persona = "Fact-Driven Analytical"
	PersonaBalancedInquiry Persona = "Balanced Inquiry"
	PersonaSpeculativeRisk Persona = "Speculative / High-Risk"
	PersonaContradictory   Persona = "Logical Contradiction detected"

	// Security simulation personas are supplied by the classification oracle
	PersonaTrustedSystem Persona = "Trusted System (Honeypot)"
	PersonaScriptKiddie  Persona = "Script Kiddie / Recon"
	PersonaAutomatedBot  Persona = "Automated Bot / Replay"
	PersonaReconScanner  Persona = "Advanced Recon Scanner"
)

var allPersonas = []Persona{
	PersonaFactualCore, PersonaBalancedInquiry, PersonaSpeculativeRisk, PersonaContradictory,
	PersonaTrustedSystem, PersonaScriptKiddie, PersonaAutomatedBot, PersonaReconScanner,
}

// ParsePersona matches a persona by display value or constant-style name
func ParsePersona(s string) (Persona, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, p := range allPersonas {
		if strings.ToLower(string(p)) == norm {
			return p, true
		}
	}
	switch strings.ReplaceAll(norm, " ", "_") {
	case "factual_core":
		return PersonaFactualCore, true
	case "balanced_inquiry":
		return PersonaBalancedInquiry, true
	case "speculative_risk":
		return PersonaSpeculativeRisk, true
	case "contradictory":
		return PersonaContradictory, true
	case "trusted_system":
		return PersonaTrustedSystem, true
	case "script_kiddie":
		return PersonaScriptKiddie, true
	case "automated_bot":
		return PersonaAutomatedBot, true
	case "recon_scanner":
		return PersonaReconScanner, true
	}
	return "", false
}
