package commands

import (
	"io"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/lint"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Source string `arg:"" optional:"" help:"Site source directory (default: source from config, else .)"`
	Strict bool   `help:"Treat warnings such as broken links as errors"`
	Quiet  bool   `short:"q" help:"Quiet mode: only show errors, suppress warnings"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(c.Source, "")
	if err != nil {
		return err
	}
	return RunCheck(cfg, lint.Config{Strict: c.Strict, Quiet: c.Quiet, Format: c.Format}, g.out())
}

// RunCheck lints the site and writes the report to out. It returns a
// validation error when any error-level issue was found.
func RunCheck(cfg *config.Config, lc lint.Config, out io.Writer) error {
	site, err := build.LoadSite(cfg, nil)
	if err != nil {
		return err
	}
	result := lint.NewLinter(lc).Lint(site)
	if err := lint.NewFormatter(lc.Format).Format(out, result, cfg.Source); err != nil {
		return err
	}
	return result.Err()
}
