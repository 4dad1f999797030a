package commands

import (
	"fmt"
	"io"

	"github.com/rajesh1993/sitegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Dir   string `arg:"" optional:"" default:"." help:"Directory to scaffold the site into"`
	Force bool   `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	return RunInit(i.Dir, i.Force, g.out())
}

func RunInit(dir string, force bool, out io.Writer) error {
	fmt.Fprintf(out, "Initializing sitegen project in %s\n", dir)
	written, err := config.Scaffold(dir, force)
	for _, p := range written {
		fmt.Fprintf(out, "  wrote %s\n", p)
	}
	if err != nil {
		fmt.Fprintln(out, "Initialization failed")
		return err
	}
	fmt.Fprintln(out, "Initialized successfully; run 'sitegen build' to render the site")
	return nil
}
