// Package markdown inspects presentation sources for the discover listing.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/slidebuilder/internal/frontmatter"
)

// Outline summarizes a presentation without rendering it.
type Outline struct {
	Title   string // front matter title, if any
	Heading string // text of the first heading
	Slides  int    // horizontal and vertical slides; 0 for an empty body
	Links   []Link
}

// LocalImages lists image destinations that point at files beside the presentation.
func (o Outline) LocalImages() []string {
	var out []string
	for _, l := range o.Links {
		if l.Kind == LinkKindImage && l.IsLocal() {
			out = append(out, l.Destination)
		}
	}
	return out
}

// Inspect splits off the front matter and outlines the body.
func Inspect(content []byte) (Outline, error) {
	fm, body, _, err := frontmatter.Split(content)
	if err != nil {
		return Outline{}, err
	}
	opts, err := frontmatter.Parse(fm)
	if err != nil {
		return Outline{}, fmt.Errorf("parse front matter: %w", err)
	}

	out, err := InspectBody(body, Options{Separator: opts.Separator, VerticalSeparator: opts.VerticalSeparator})
	if err != nil {
		return Outline{}, err
	}
	out.Title = opts.Title
	return out, nil
}

// InspectBody outlines a Markdown body (frontmatter already removed).
func InspectBody(body []byte, opts Options) (Outline, error) {
	root := ParseBody(body)

	var out Outline
	breaks := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == gmast.KindThematicBreak {
			breaks++
		}
	}

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			if out.Heading == "" {
				out.Heading = string(plainText(node, body))
			}
		case *gmast.AutoLink:
			out.Links = append(out.Links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			out.Links = append(out.Links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			out.Links = append(out.Links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	if opts.Separator != "" || opts.VerticalSeparator != "" {
		n, err := countSeparators(body, opts)
		if err != nil {
			return Outline{}, err
		}
		out.Slides = n + 1
		return out, nil
	}
	// reveal-md's default separators (--- and ---- between blank lines) are thematic breaks.
	out.Slides = breaks + 1
	return out, nil
}

// ParseBody parses a Markdown body into a Goldmark AST.
func ParseBody(body []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(body))
}

func countSeparators(body []byte, opts Options) (int, error) {
	total := 0
	for _, pattern := range []string{opts.Separator, opts.VerticalSeparator} {
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?m)" + pattern)
		if err != nil {
			return 0, fmt.Errorf("invalid slide separator %q: %w", pattern, err)
		}
		total += len(re.FindAllIndex(body, -1))
	}
	return total, nil
}

func plainText(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return bytes.TrimSpace(buf.Bytes())
}
