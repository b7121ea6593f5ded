// Package slug turns talk titles into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// dottedCapitalI lowercases to "i" plus a combining dot, so "İstanbul" slugifies to
// "i-stanbul". strings.ToLower alone would map it to a plain "i".
var dottedCapitalI = strings.NewReplacer("\u0130", "i\u0307")

// Slugify lowercases s, collapses every run of characters outside [a-z0-9] into a single
// hyphen and trims hyphens from both ends. The empty string maps to itself.
func Slugify(s string) string {
	out := nonAlphanumeric.ReplaceAllString(strings.ToLower(dottedCapitalI.Replace(s)), "-")
	return strings.Trim(out, "-")
}
