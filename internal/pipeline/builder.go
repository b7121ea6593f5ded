package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/slidebuilder/internal/assets"
	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/deck"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/htmlpatch"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/manifest"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/output"
	"git.home.luguber.info/inful/slidebuilder/internal/talks"
	"git.home.luguber.info/inful/slidebuilder/internal/workspace"
)

// Builder runs complete slide builds for one configuration.
type Builder struct {
	cfg           *config.Config
	decks         deck.DeckBuilder
	recorder      metrics.Recorder
	discoverer    *talks.Discoverer
	dedup         *assets.Deduplicator
	patcher       *htmlpatch.Patcher
	buildID       string
	keepWorkspace bool
	dryRun        bool
}

// NewBuilder creates a Builder converting decks with decks.
func NewBuilder(cfg *config.Config, decks deck.DeckBuilder) *Builder {
	return &Builder{
		cfg:        cfg,
		decks:      decks,
		recorder:   metrics.NoopRecorder{},
		discoverer: talks.NewDiscoverer(talks.OptionsFrom(cfg.Content)),
		dedup:      assets.NewDeduplicator(cfg.Assets),
		patcher:    htmlpatch.NewPatcher(cfg.Assets.Prefixes),
	}
}

// WithRecorder injects a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithBuildID fixes the id of the next build instead of generating one.
func (b *Builder) WithBuildID(id string) *Builder {
	b.buildID = id
	return b
}

// KeepWorkspace leaves the rendered bundles on disk after the build.
func (b *Builder) KeepWorkspace(keep bool) *Builder {
	b.keepWorkspace = keep
	return b
}

// DryRun builds and audits every deck without publishing; the staged output is discarded.
func (b *Builder) DryRun(dry bool) *Builder {
	b.dryRun = dry
	return b
}

// Stages returns the stage list of a build.
func (b *Builder) Stages() []StageDef {
	return NewPipeline().
		Add(StageDiscover, b.stageDiscover).
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageBuildDecks, b.stageBuildDecks).
		Add(StageCopyShared, b.stageCopyShared).
		Add(StagePatchHTML, b.stagePatchHTML).
		Add(StageWriteManifest, stageWriteManifest).
		AddIf(!b.dryRun, StagePublish, stagePublish).
		Build()
}

// Build runs one full build. The returned report is never nil.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	buildID := b.buildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	report := NewReport(buildID)
	logger := slog.Default().With(logfields.BuildID(buildID))
	logger.Info("Starting build",
		logfields.Path(b.cfg.Content.Root),
		slog.String("output", b.cfg.Output.Directory))

	err := b.run(ctx, buildID, report)

	report.Finish()
	report.DeriveOutcome(err)
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(report.Outcome)
	report.Log(logger)
	return report, err
}

func (b *Builder) run(ctx context.Context, buildID string, report *Report) error {
	root := output.NewRoot(b.cfg.Output.Directory, b.cfg.Output.Manifest, b.cfg.Output.Force)
	root.Retry = b.cfg.Output.Retry.Policy()
	if err := root.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := root.Unlock(); err != nil {
			slog.Warn("Failed to release output lock", logfields.Error(err))
		}
	}()

	ws := workspace.NewManager(b.cfg.Workspace.Directory, buildID).KeepOnCleanup(b.keepWorkspace)
	if err := ws.Create(); err != nil {
		return errors.FileSystemError("create workspace").
			WithCause(err).WithContext("path", b.cfg.Workspace.Directory).Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}()
	// No-op once publish has promoted the staging directory.
	defer root.Abort()

	bs := &BuildState{
		Config:    b.cfg,
		Root:      root,
		Workspace: ws,
		Recorder:  b.recorder,
		Report:    report,
	}
	return RunStages(ctx, bs, b.Stages())
}

func (b *Builder) stageDiscover(_ context.Context, bs *BuildState) error {
	found, err := b.discoverer.Discover(bs.Config.Content.Root)
	if err != nil {
		return err
	}
	if err := talks.CheckUniqueSlugs(found); err != nil {
		return err
	}
	bs.Talks = found
	bs.Report.Talks = len(found)
	bs.Recorder.SetTalks(len(found))
	slog.Info("Discovered talks", logfields.Count(len(found)), logfields.Path(bs.Config.Content.Root))
	return nil
}

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	return bs.Root.BeginStaging()
}

func (b *Builder) stageBuildDecks(ctx context.Context, bs *BuildState) error {
	if len(bs.Talks) == 0 {
		return errSkipStage
	}
	for i, t := range bs.Talks {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest, err := bs.Workspace.TalkDir(t.Slug)
		if err != nil {
			return errors.InternalError("resolve deck destination").WithCause(err).Build()
		}

		slog.Info(fmt.Sprintf("Building deck %d/%d", i+1, len(bs.Talks)), logfields.Talk(t.Title), logfields.Slug(t.Slug))
		t0 := time.Now()
		out, err := b.decks.Build(ctx, t.SourcePath, dest)
		bs.Recorder.ObserveDeckDuration(t.Slug, time.Since(t0), err == nil)
		if err != nil {
			if ce, ok := errors.AsClassified(err); ok {
				return ce.WithContext("talk", t.RelPath)
			}
			return errors.ExternalToolFailure("deck build failed").
				WithCause(err).WithContext("talk", t.RelPath).Build()
		}
		if len(out.EntryFiles) == 0 {
			slog.Warn("Converter produced no entry page", logfields.Slug(t.Slug), logfields.Path(out.Dir))
			bs.Report.AddWarning("%s: converter produced no entry page", t.RelPath)
		}
		bs.Builds = append(bs.Builds, TalkBuild{Talk: t, Output: out})
		bs.Report.DecksBuilt++
	}
	return nil
}

func (b *Builder) stageCopyShared(_ context.Context, bs *BuildState) error {
	if len(bs.Builds) == 0 {
		return errSkipStage
	}
	copied, err := b.dedup.CopyShared(bs.Builds[0].Output.Dir, bs.Root.StageDir())
	if err != nil {
		return err
	}
	bs.Report.SharedAssets = copied
	return nil
}

func (b *Builder) stagePatchHTML(_ context.Context, bs *BuildState) error {
	if len(bs.Builds) == 0 {
		return errSkipStage
	}
	kinds := map[htmlpatch.FindingKind]int{}
	for _, tb := range bs.Builds {
		for _, name := range tb.Output.EntryFiles {
			src := filepath.Join(tb.Output.Dir, name)
			dst := filepath.Join(bs.Root.StageDir(), tb.Talk.Slug, name)
			res, err := b.patcher.PatchFile(src, dst)
			if err != nil {
				return err
			}
			bs.Report.PagesPatched++
			bs.Report.Replacements += res.Replacements
			for _, f := range res.Findings {
				bs.Report.Findings = append(bs.Report.Findings, PageFinding{Slug: tb.Talk.Slug, File: name, Finding: f})
				kinds[f.Kind]++
			}
		}
	}
	for kind, n := range kinds {
		bs.Recorder.AddAuditFindings(string(kind), n)
	}
	slog.Info("Patched pages", logfields.Count(bs.Report.PagesPatched), slog.Int("rewrites", bs.Report.Replacements))
	return nil
}

func stageWriteManifest(_ context.Context, bs *BuildState) error {
	entries := manifest.Entries(bs.Talks, bs.Root.Name())
	path := filepath.Join(bs.Root.StageDir(), bs.Config.Output.Manifest)
	if err := manifest.Write(path, entries); err != nil {
		return err
	}
	slog.Info("Wrote manifest", logfields.File(bs.Config.Output.Manifest), logfields.Count(len(entries)))
	return nil
}

func stagePublish(_ context.Context, bs *BuildState) error {
	if err := bs.Root.Promote(); err != nil {
		return err
	}
	bs.Report.ManifestPath = filepath.Join(bs.Root.Dir, bs.Config.Output.Manifest)
	return nil
}
