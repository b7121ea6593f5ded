package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
	"git.home.luguber.info/inful/slidebuilder/internal/manifest"
	"git.home.luguber.info/inful/slidebuilder/internal/markdown"
	"git.home.luguber.info/inful/slidebuilder/internal/output"
	"git.home.luguber.info/inful/slidebuilder/internal/talks"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Content string `help:"Directory holding the talks (overrides content.root)" placeholder:"DIR"`
	JSON    bool   `name:"json" help:"Print the manifest the build would write instead of a table"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if d.Content != "" {
		cfg.Content.Root = d.Content
	}
	if err := revalidate(cfg); err != nil {
		return err
	}

	found, err := talks.NewDiscoverer(talks.OptionsFrom(cfg.Content)).Discover(cfg.Content.Root)
	if err != nil {
		return err
	}
	if err := talks.CheckUniqueSlugs(found); err != nil {
		return err
	}

	if d.JSON {
		rootName := output.NewRoot(cfg.Output.Directory, cfg.Output.Manifest, false).Name()
		data, err := manifest.Marshal(manifest.Entries(found, rootName))
		if err != nil {
			return err
		}
		_, err = g.out().Write(data)
		return err
	}

	rows := make([]table.Row, 0, len(found))
	for _, t := range found {
		meta := ""
		if t.HasMetadata {
			meta = "yes"
		}
		rows = append(rows, table.Row{t.Title, t.Slug, t.Tag, t.Category, slideCount(t), meta, t.RelPath})
	}
	_, _ = fmt.Fprintln(g.out(), renderTalkTable(rows))
	_, _ = fmt.Fprintf(g.out(), "%d talk(s) under %s\n", len(found), cfg.Content.Root)
	return nil
}

func slideCount(t talks.Talk) string {
	data, err := os.ReadFile(t.SourcePath)
	if err != nil {
		slog.Warn("Cannot read talk", logfields.Path(t.SourcePath), logfields.Error(err))
		return "?"
	}
	outline, err := markdown.Inspect(data)
	if err != nil {
		slog.Warn("Cannot inspect talk", logfields.Path(t.SourcePath), logfields.Error(err))
		return "?"
	}
	for _, img := range outline.LocalImages() {
		slog.Debug("Talk references local image", logfields.Slug(t.Slug), logfields.File(img))
	}
	return strconv.Itoa(outline.Slides)
}

func renderTalkTable(rows []table.Row) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Title", "Slug", "Tag", "Category", "Slides", "Meta", "Source"})
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
