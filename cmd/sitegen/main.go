package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/rajesh1993/sitegen/cmd/sitegen/commands"
	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
	"github.com/rajesh1993/sitegen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitegen"),
		kong.Description("Render a tree of markdown documents into a static HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := &commands.Global{Out: os.Stdout}
	if err := parser.Run(global); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(berrors.Classify(err))
	}
}
