package extract

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/ppiankov/proofpilot/internal/model"
)

const (
	minSentenceLen = 20
	maxSentenceLen = 500
)

// Category labels inferred from claim text
const (
	CategoryMedicine = "Medicine"
	CategoryScience  = "Science"
	CategorySecurity = "Security"
	CategoryHistory  = "History"
	CategoryGeneral  = "General"
)

type categoryRule struct {
	name  string
	terms []string
}

// ClaimExtractor finds checkable statements in plain text or HTML
type ClaimExtractor struct {
	keywords   []string
	categories []categoryRule
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"according to", "studies show", "research shows", "scientists",
			"originated", "invented", "discovered", "founded", "established",
			"introduced", "first", "proven", "causes", "cures", "prevents",
			"up to", "as much as", "can reach", "may survive", "could last",
			"estimated", "percent", "%", "million", "billion",
			"always", "never", "every", "is the largest", "is the only",
		},
		// Order matters: the first matching category wins
		categories: []categoryRule{
			{CategoryMedicine, []string{
				"vaccin", "disease", "virus", "medic", "drug", "patient", "health",
				"cancer", "treatment", "clinical", "symptom", "infection", "doctor",
			}},
			{CategoryScience, []string{
				"scien", "physics", "chemistry", "biolog", "species", "temperature",
				"degrees", "climate", "planet", "energy", "molecule", "experiment",
			}},
			{CategorySecurity, []string{
				"attack", "malware", "password", "token", "breach", "vulnerab",
				"exploit", "honeypot", "firewall", "encrypt", "authenticat", "phishing",
			}},
			{CategoryHistory, []string{
				"century", "battle", "empire", "ancient", "dynasty", "monarch",
				"revolution", "historian", "founded", "medieval",
			}},
		},
	}
}

// Extract detects whether content is HTML and dispatches accordingly
func (e *ClaimExtractor) Extract(content string) ([]model.Claim, error) {
	if LooksLikeHTML(content) {
		return e.ExtractHTML(content)
	}
	return e.ExtractText(content), nil
}

// ExtractHTML extracts claims from the visible text of an HTML document
func (e *ClaimExtractor) ExtractHTML(htmlContent string) ([]model.Claim, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return e.ExtractText(extractVisibleText(doc)), nil
}

// ExtractText extracts claims from plain text. IDs are c1..cN in document order.
func (e *ClaimExtractor) ExtractText(text string) []model.Claim {
	var claims []model.Claim
	for _, sentence := range splitSentences(text) {
		heuristic, ok := e.match(sentence)
		if !ok {
			continue
		}
		claims = append(claims, model.Claim{
			Text:      sentence,
			Category:  e.Categorize(sentence),
			Heuristic: heuristic,
		})
	}

	claims = dedupeClaims(claims)
	for i := range claims {
		claims[i].ID = fmt.Sprintf("c%d", i+1)
	}
	return claims
}

// Categorize infers a domain label for a sentence
func (e *ClaimExtractor) Categorize(sentence string) string {
	lower := strings.ToLower(sentence)
	for _, rule := range e.categories {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.name
			}
		}
	}
	return CategoryGeneral
}

// match reports which heuristic marks a sentence as a factual claim
func (e *ClaimExtractor) match(sentence string) (string, bool) {
	lower := strings.ToLower(sentence)
	for _, keyword := range e.keywords {
		if strings.Contains(lower, keyword) {
			return "keyword:" + keyword, true
		}
	}
	if strings.IndexFunc(sentence, unicode.IsDigit) >= 0 {
		return "numeric", true
	}
	return "", false
}

// PlainText returns the visible text of an HTML document, or content
// unchanged when it is not HTML
func PlainText(content string) (string, error) {
	if !LooksLikeHTML(content) {
		return content, nil
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.TrimSpace(extractVisibleText(doc)), nil
}

// LooksLikeHTML is a cheap sniff for markup documents
func LooksLikeHTML(content string) bool {
	head := strings.ToLower(content)
	if len(head) > 1024 {
		head = head[:1024]
	}
	for _, marker := range []string{"<!doctype html", "<html", "<body", "<p>", "<div"} {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "footer":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// splitSentences splits text on terminators followed by whitespace
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.Join(strings.Fields(current.String()), " ")
		if len(sentence) >= minSentenceLen && len(sentence) <= maxSentenceLen {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(text) {
			continue
		}
		nr, _ := utf8.DecodeRuneInString(text[next:])
		if unicode.IsSpace(nr) {
			flush()
		}
	}
	if current.Len() > 0 {
		flush()
	}

	return sentences
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
