// Package talks discovers presentation sources below a content root.
//
// A talk is any directory holding the marker file (presentation.md by default). An optional
// metadata file beside it (meta.json) may override the title, slug and tag derived from the
// directory name.
package talks

// Talk describes one discovered presentation.
type Talk struct {
	SourcePath  string // Path of the marker file
	Dir         string // Directory containing the marker file
	RelPath     string // SourcePath relative to the content root, slash separated
	Title       string // Directory base name unless overridden by metadata
	Slug        string // URL-safe identifier, unique within a build
	Tag         string // Free-text label; empty when unspecified
	Category    string // First path segment below the root, or the fallback category
	HasMetadata bool   // True when a metadata file was found and applied
}

// Metadata is the optional per-talk override document.
type Metadata struct {
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Tag   string `json:"tag,omitempty"`
}
