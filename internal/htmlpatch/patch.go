// Package htmlpatch repoints a deck's references to shared assets.
//
// reveal-md emits pages that load their runtime from "./dist/...", "./css/..." and so on.
// The runtime is published once at the output root while each page lives one directory
// below it, so every double-quoted "./<prefix> occurrence becomes "../<prefix>. The rewrite
// is a plain text substitution; Audit reports references it could not have repointed.
package htmlpatch

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// DefaultPrefixes are the shared-asset path prefixes emitted by reveal-md.
var DefaultPrefixes = []string{"dist/", "plugin/", "css/", "_assets/", "favicon.ico", "mermaid/"}

// Patcher rewrites references to the shared prefixes.
type Patcher struct {
	Prefixes []string
}

// Result summarizes one patched page.
type Result struct {
	Replacements int
	Findings     []Finding
}

// NewPatcher returns a Patcher for prefixes, or DefaultPrefixes when none are given.
func NewPatcher(prefixes []string) *Patcher {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Patcher{Prefixes: prefixes}
}

// Rewrite replaces every `"./<prefix>` with `"../<prefix>` and reports how many occurrences
// changed. Other content is left byte-for-byte intact.
func (p *Patcher) Rewrite(content []byte) ([]byte, int) {
	total := 0
	for _, prefix := range p.Prefixes {
		from := []byte(`"./` + prefix)
		n := bytes.Count(content, from)
		if n == 0 {
			continue
		}
		content = bytes.ReplaceAll(content, from, []byte(`"../`+prefix))
		total += n
	}
	return content, total
}

// RewriteString is Rewrite for strings.
func (p *Patcher) RewriteString(content string) string {
	out, _ := p.Rewrite([]byte(content))
	return string(out)
}

// PatchFile reads src, rewrites it and writes the result to dst. Findings from the audit
// of the rewritten page are logged as warnings and returned.
func (p *Patcher) PatchFile(src, dst string) (Result, error) {
	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return Result{}, errors.FileSystemError("read built page").
			WithCause(err).WithContext("path", src).Build()
	}

	patched, n := p.Rewrite(data)
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return Result{}, errors.FileSystemError("create page directory").
			WithCause(err).WithContext("path", dst).Build()
	}
	// #nosec G306 -- published pages are world-readable
	if err := os.WriteFile(dst, patched, 0o644); err != nil {
		return Result{}, errors.FileSystemError("write patched page").
			WithCause(err).WithContext("path", dst).Build()
	}

	findings := p.Audit(patched)
	for _, f := range findings {
		slog.Warn("Unresolved asset reference", logfields.File(dst),
			slog.String("kind", string(f.Kind)), slog.String("ref", f.Value),
			slog.String("tag", f.Tag), slog.String("attr", f.Attr))
	}
	return Result{Replacements: n, Findings: findings}, nil
}

func (p *Patcher) sharedPrefix(ref string) (string, bool) {
	for _, prefix := range p.Prefixes {
		if strings.HasPrefix(ref, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// String renders a finding for humans.
func (f Finding) String() string {
	return fmt.Sprintf("%s: <%s %s=%q> (element %d)", f.Kind, f.Tag, f.Attr, f.Value, f.Ordinal)
}
