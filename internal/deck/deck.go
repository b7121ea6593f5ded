// Package deck converts a talk's markdown source into a static reveal.js bundle.
//
// The conversion itself is delegated to an external tool. DeckBuilder abstracts it so the
// build pipeline can be exercised with fakes; RevealMDBuilder is the production
// implementation invoking `reveal-md --static`.
package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// Sentinel errors wrapped by converter failures.
var (
	// ErrConverterNotFound indicates the converter executable is not on PATH.
	ErrConverterNotFound = errors.New("deck converter not found")
	// ErrConverterFailed indicates the converter returned a non-zero exit status.
	ErrConverterFailed = errors.New("deck converter failed")
	// ErrConverterTimeout indicates the per-talk timeout elapsed.
	ErrConverterTimeout = errors.New("deck converter timed out")
)

// DefaultEntryFiles are the HTML entry points reveal-md emits.
var DefaultEntryFiles = []string{"index.html", "presentation.html"}

// BuildOutput describes the bundle emitted for one talk.
type BuildOutput struct {
	Dir        string   // Destination directory passed to the converter
	EntryFiles []string // Entry HTML files present in Dir, in EntryFiles order
}

// DeckBuilder turns one markdown source into a static bundle in destDir.
type DeckBuilder interface {
	Build(ctx context.Context, sourcePath, destDir string) (BuildOutput, error)
}

// CollectOutput lists which of the candidate entry files exist in dir. Either may be absent.
func CollectOutput(dir string, candidates []string) BuildOutput {
	if len(candidates) == 0 {
		candidates = DefaultEntryFiles
	}
	out := BuildOutput{Dir: dir}
	for _, name := range candidates {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && !fi.IsDir() {
			out.EntryFiles = append(out.EntryFiles, name)
		}
	}
	return out
}

// BuilderFunc adapts a function to DeckBuilder.
type BuilderFunc func(ctx context.Context, sourcePath, destDir string) (BuildOutput, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, sourcePath, destDir string) (BuildOutput, error) {
	return f(ctx, sourcePath, destDir)
}
