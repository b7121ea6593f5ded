package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/deck"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/output"
	"git.home.luguber.info/inful/slidebuilder/internal/pipeline"
	"git.home.luguber.info/inful/slidebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Content string `help:"Directory holding the talks (overrides content.root)" placeholder:"DIR"`
	Output  string `short:"o" help:"Output directory for the decks (overrides output.directory)" placeholder:"DIR"`
	Force   bool   `help:"Replace the output directory even if it was not produced by slidebuilder"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := w.loadConfig(root)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	rebuild := w.rebuilder(g, root, cfg.Content.Root)

	// A broken talk must not stop the watcher; the first build only reports.
	if err := rebuild(ctx); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	out := output.NewRoot(cfg.Output.Directory, cfg.Output.Manifest, cfg.Output.Force)
	watcher := watch.New(cfg.Content.Root, rebuild)
	watcher.Exclude = []string{out.Dir, out.StagingPath(), out.Dir + ".prev", cfg.Workspace.Directory}
	if _, err := os.Stat(root.Config); err == nil {
		watcher.Extra = []string{root.Config}
	}

	if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// loadConfig reads the configuration and applies the command's overrides.
func (w *WatchCmd) loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, err
	}
	bc := BuildCmd{Content: w.Content, Output: w.Output, Force: w.Force}
	bc.apply(cfg)
	if err := revalidate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rebuilder returns a build function that re-reads the configuration on every call, so
// edits to the config file apply to the next rebuild. The watched tree stays watchedRoot.
func (w *WatchCmd) rebuilder(g *Global, root *CLI, watchedRoot string) watch.RebuildFunc {
	return func(ctx context.Context) error {
		cfg, err := w.loadConfig(root)
		if err != nil {
			return err
		}
		if cfg.Content.Root != watchedRoot {
			slog.Warn("content.root changed; restart watch to follow the new tree",
				logfields.Path(cfg.Content.Root), slog.String("watching", watchedRoot))
		}
		report, err := pipeline.NewBuilder(cfg, deck.NewRevealMDBuilder(cfg)).Build(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(g.out(), "Rebuilt %d talk(s) [%s] into %s in %s\n",
			report.Talks, report.Outcome, cfg.Output.Directory, report.Duration().Round(time.Millisecond))
		return nil
	}
}
