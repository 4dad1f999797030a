// Package commands implements the sitegen command line.
package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/rajesh1993/sitegen/internal/config"
)

// Global is passed to every command's Run method.
type Global struct {
	// Out receives user-facing output; logs go to stderr.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: sitegen.yaml in the source directory)" placeholder:"sitegen.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Render every document of a site into the output directory"`
	Serve    ServeCmd    `cmd:"" help:"Build a site, serve it with live reload and rebuild on change"`
	Check    CheckCmd    `cmd:"" help:"Validate documents, layouts and links without writing output"`
	Discover DiscoverCmd `cmd:"" help:"List documents, layouts and output paths without building"`
	Init     InitCmd     `cmd:"" help:"Scaffold a new site"`

	// logOut is where the configured logger writes; stderr when nil.
	logOut io.Writer
}

// AfterApply runs after flag parsing and installs a logger before any
// config is read. loadConfig replaces it once logging settings are known.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		level = config.NormalizeLogLevel(v).SlogLevel()
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(c.logWriter(), level, config.LogFormatText))
	return nil
}

func (c *CLI) logWriter() io.Writer {
	if c.logOut != nil {
		return c.logOut
	}
	return os.Stderr
}

func newLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// configPath picks the config file: the -c flag, else sitegen.yaml in the
// source directory given on the command line, else sitegen.yaml in the
// working directory. Only an explicit -c must exist.
func (c *CLI) configPath(source string) (string, bool) {
	switch {
	case c.Config != "":
		return c.Config, true
	case source != "":
		return filepath.Join(source, config.DefaultFile), false
	default:
		return config.DefaultFile, false
	}
}

// loadConfig reads the configuration, applies command-line overrides with
// the highest precedence, validates the result and reconfigures logging.
func (c *CLI) loadConfig(source, output string, overrides ...func(*config.Config)) (*config.Config, error) {
	path, explicit := c.configPath(source)

	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return nil, err
	}

	cfg.SetSource(source)
	cfg.SetOutput(output)
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(c.logWriter(), level, cfg.Logging.Format))
	if cfg.File() != "" {
		slog.Debug("Loaded configuration", "file", cfg.File(), "config", cfg.String())
	}
	return cfg, nil
}
