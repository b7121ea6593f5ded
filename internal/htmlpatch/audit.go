package htmlpatch

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// FindingKind classifies a reference the rewrite left pointing at a missing location.
type FindingKind string

const (
	// KindLeftover is a ./<prefix> reference the quoted rewrite missed (single quotes, unquoted).
	KindLeftover FindingKind = "leftover"
	// KindBare is a <prefix> reference with no leading ./ or ../, which resolves inside the talk dir.
	KindBare FindingKind = "bare"
	// KindLocal is a relative reference to a talk-local file that is not published.
	KindLocal FindingKind = "local"
)

// Finding is one suspicious reference in a page.
type Finding struct {
	Kind    FindingKind
	Tag     string
	Attr    string
	Value   string
	Ordinal int // 1-based position of the element in document order
}

// referenceAttrs are the attributes that carry URLs reveal.js pages use.
var referenceAttrs = map[string]bool{
	"src":                   true,
	"href":                  true,
	"poster":                true,
	"data-src":              true,
	"data-background":       true,
	"data-background-image": true,
	"data-background-video": true,
}

// Audit parses content and reports references that will not resolve once the page is
// published one level below the shared assets. Content that fails to parse yields no findings.
func (p *Patcher) Audit(content []byte) []Finding {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil
	}

	var findings []Finding
	var ordinal int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			ordinal++
			for _, attr := range n.Attr {
				if !referenceAttrs[attr.Key] {
					continue
				}
				if kind, ok := p.classify(attr.Val); ok {
					findings = append(findings, Finding{
						Kind:    kind,
						Tag:     n.Data,
						Attr:    attr.Key,
						Value:   attr.Val,
						Ordinal: ordinal,
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return findings
}

func (p *Patcher) classify(ref string) (FindingKind, bool) {
	ref = strings.TrimSpace(ref)
	if skipReference(ref) {
		return "", false
	}
	if rest, ok := strings.CutPrefix(ref, "./"); ok {
		if _, shared := p.sharedPrefix(rest); shared {
			return KindLeftover, true
		}
		return KindLocal, true
	}
	if _, shared := p.sharedPrefix(ref); shared {
		return KindBare, true
	}
	return "", false
}

func skipReference(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "../") || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return true
	}
	if strings.Contains(ref, "://") {
		return true
	}
	for _, scheme := range []string{"data:", "mailto:", "tel:", "javascript:", "blob:"} {
		if strings.HasPrefix(ref, scheme) {
			return true
		}
	}
	return false
}
