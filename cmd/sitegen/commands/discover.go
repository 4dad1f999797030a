package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/config"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Source string `arg:"" optional:"" help:"Site source directory (default: source from config, else .)"`
}

func (d *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(d.Source, "")
	if err != nil {
		return err
	}
	return RunDiscover(cfg, g.out())
}

// RunDiscover prints every document with its layout and output path,
// followed by the layouts and assets. Documents that fail to load are
// listed with the error instead of a layout.
func RunDiscover(cfg *config.Config, out io.Writer) error {
	site, err := build.LoadSite(cfg, nil)
	if err != nil {
		return err
	}
	inv := site.Inventory

	fmt.Fprintf(out, "Source: %s\nOutput: %s\n\n", cfg.Source, cfg.OutputDir())

	fmt.Fprintf(out, "Documents (%d):\n", len(inv.Documents))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, src := range inv.Documents {
		doc, err := site.LoadDocument(src)
		if err != nil {
			fmt.Fprintf(tw, "  %s\t!\t%v\n", src.ID, err)
			continue
		}
		note := ""
		if doc.Draft() {
			note = "\t(draft)"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s%s\n", doc.ID, doc.Layout, doc.OutputPath, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nLayouts (%d):\n", len(site.Layouts.Names()))
	for _, name := range site.Layouts.Names() {
		fmt.Fprintf(out, "  %s\n", name)
	}

	fmt.Fprintf(out, "\nAssets (%d):\n", len(inv.Assets))
	for _, a := range inv.Assets {
		fmt.Fprintf(out, "  %s\n", a.ID)
	}
	return nil
}
