package pipeline

import (
	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/deck"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/output"
	"git.home.luguber.info/inful/slidebuilder/internal/talks"
	"git.home.luguber.info/inful/slidebuilder/internal/workspace"
)

// TalkBuild is a talk together with the bundle the converter produced for it.
type TalkBuild struct {
	Talk   talks.Talk
	Output deck.BuildOutput
}

// BuildState is the mutable state threaded through the stages of one build.
type BuildState struct {
	Config    *config.Config
	Root      *output.Root
	Workspace *workspace.Manager
	Recorder  metrics.Recorder
	Report    *Report

	Talks  []talks.Talk
	Builds []TalkBuild // discovery order; Builds[0] supplies the shared assets
}
