package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/output"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Output string `short:"o" help:"Output directory to remove (overrides output.directory)" placeholder:"DIR"`
	Force  bool   `help:"Remove the output directory even if it was not produced by slidebuilder"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	bc := BuildCmd{Output: c.Output, Force: c.Force}
	bc.apply(cfg)
	if err := revalidate(cfg); err != nil {
		return err
	}

	out := output.NewRoot(cfg.Output.Directory, cfg.Output.Manifest, cfg.Output.Force)
	out.Retry = cfg.Output.Retry.Policy()
	if err := out.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := out.Unlock(); err != nil {
			slog.Warn("Failed to release output lock", logfields.Error(err))
		}
	}()

	removed, err := out.Clean()
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		_, _ = fmt.Fprintf(g.out(), "Nothing to clean at %s\n", cfg.Output.Directory)
		return nil
	}
	for _, path := range removed {
		_, _ = fmt.Fprintf(g.out(), "Removed %s\n", path)
	}
	return nil
}
