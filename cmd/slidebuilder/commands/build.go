package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/deck"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/metrics"
	"git.home.luguber.info/inful/slidebuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Content       string `help:"Directory holding the talks (overrides content.root)" placeholder:"DIR"`
	Output        string `short:"o" help:"Output directory for the decks (overrides output.directory)" placeholder:"DIR"`
	Force         bool   `help:"Replace the output directory even if it was not produced by slidebuilder"`
	MetricsFile   string `name:"metrics-file" help:"Write Prometheus metrics to this textfile after the build" placeholder:"PATH"`
	KeepWorkspace bool   `name:"keep-workspace" help:"Leave the converter output in the workspace for inspection"`
	DryRun        bool   `name:"dry-run" help:"Build and audit every deck without replacing the output directory"`
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Content != "" {
		cfg.Content.Root = b.Content
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Force {
		cfg.Output.Force = true
	}
	if b.MetricsFile != "" {
		cfg.Metrics.Textfile = b.MetricsFile
	}
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	b.apply(cfg)
	if err := revalidate(cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	report, err := pipeline.NewBuilder(cfg, deck.NewRevealMDBuilder(cfg)).
		WithRecorder(recorder).
		KeepWorkspace(b.KeepWorkspace).
		DryRun(b.DryRun).
		Build(ctx)

	if prom != nil {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile, prom.Registry()); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	if b.DryRun {
		_, _ = fmt.Fprintf(g.out(), "Built %d talk(s); dry run, %s left unchanged\n", report.Talks, cfg.Output.Directory)
	} else {
		_, _ = fmt.Fprintf(g.out(), "Built %d talk(s) into %s\n", report.Talks, cfg.Output.Directory)
	}
	for _, f := range report.Findings {
		_, _ = fmt.Fprintf(g.out(), "  warning: %s/%s: %s\n", f.Slug, f.File, f.Finding)
	}
	for _, w := range report.Warnings {
		_, _ = fmt.Fprintf(g.out(), "  warning: %s\n", w)
	}
	return nil
}
