package pipeline

import (
	"context"
	stderrors "errors"
)

// Stage is a discrete unit of work in a slide build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StageDiscover      StageName = "discover"
	StagePrepareOutput StageName = "prepare_output"
	StageBuildDecks    StageName = "build_decks"
	StageCopyShared    StageName = "copy_shared"
	StagePatchHTML     StageName = "patch_html"
	StageWriteManifest StageName = "write_manifest"
	StagePublish       StageName = "publish"
)

// errSkipStage is returned by a stage that had nothing to do.
var errSkipStage = stderrors.New("stage skipped")

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 8)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
