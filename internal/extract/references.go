package extract

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/proofpilot/internal/model"
)

// ReferenceExtractor collects the outbound links of an HTML document
type ReferenceExtractor struct{}

// NewReferenceExtractor creates a new reference extractor
func NewReferenceExtractor() *ReferenceExtractor {
	return &ReferenceExtractor{}
}

// Extract returns external http(s) links as unrated sources. Links back to
// the document's own host are skipped.
func (e *ReferenceExtractor) Extract(htmlContent string, sourceURL string) ([]model.Source, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	var sources []model.Source
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := ""
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}

			if resolved := resolveURL(baseURL, href); resolved != nil && resolved.Host != baseURL.Host {
				title := linkText(n)
				if title == "" {
					title = resolved.Host
				}
				sources = append(sources, model.Source{Title: title, URI: resolved.String()})
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return dedupeSources(sources), nil
}

// resolveURL resolves href against base, keeping only http(s) targets
func resolveURL(base *url.URL, href string) *url.URL {
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	return resolved
}

// linkText concatenates the text nodes under an anchor
func linkText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func dedupeSources(sources []model.Source) []model.Source {
	seen := make(map[string]bool)
	var unique []model.Source

	for _, src := range sources {
		if !seen[src.URI] {
			seen[src.URI] = true
			unique = append(unique, src)
		}
	}

	return unique
}
