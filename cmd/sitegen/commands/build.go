package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/buildcache"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/gitinfo"
	"github.com/rajesh1993/sitegen/internal/logfields"
	"github.com/rajesh1993/sitegen/internal/metrics"
	"github.com/rajesh1993/sitegen/internal/notify"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source      string `arg:"" optional:"" help:"Site source directory (default: source from config, else .)"`
	Output      string `arg:"" optional:"" help:"Output directory (default: <source>/_site)"`
	Clean       bool   `help:"Remove the output directory before building"`
	Incremental bool   `short:"i" help:"Skip documents whose inputs are unchanged since the last build"`
	Workers     int    `short:"w" help:"Number of render workers (default from config; 0 in config means one per CPU)"`
	GitInfo     bool   `name:"git-info" help:"Expose page.last_modified from git history"`
	Drafts      bool   `help:"Render documents marked draft: true"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(b.Source, b.Output, b.apply)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunBuild(ctx, cfg, g.out())
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Clean {
		cfg.Build.Clean = true
	}
	if b.Incremental {
		cfg.Build.Incremental = true
	}
	if b.Workers != 0 {
		cfg.Build.Workers = b.Workers
	}
	if b.GitInfo {
		cfg.Build.GitInfo = true
	}
	if b.Drafts {
		cfg.Build.Drafts = true
	}
}

// RunBuild builds the site once and prints a summary to out. It returns
// the build error, a *build.BuildFailure when documents failed.
func RunBuild(ctx context.Context, cfg *config.Config, out io.Writer) error {
	builder, closeDeps, err := newBuilder(cfg, nil)
	if err != nil {
		return err
	}
	defer closeDeps()

	report, err := builder.Build(ctx)
	if report != nil {
		printReport(out, report)
	}
	return err
}

// newBuilder wires the optional build dependencies described by cfg. The
// returned func releases them. A nil recorder means no metrics.
func newBuilder(cfg *config.Config, recorder metrics.Recorder) (*build.Builder, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("Failed to release build dependency", logfields.Error(err))
			}
		}
	}

	builder := build.New(cfg).WithRecorder(recorder)

	if cfg.Build.Incremental {
		store, err := buildcache.NewSQLiteStore(cfg.CachePath())
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		builder.WithCache(store)
		slog.Debug("Incremental build cache opened", logfields.Path(cfg.CachePath()))
	}

	if cfg.Build.GitInfo {
		resolver, err := gitinfo.Open(cfg.Source)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if !resolver.Enabled() {
			slog.Warn("Source is not inside a git repository; last_modified is unavailable", logfields.Source(cfg.Source))
		}
		builder.WithGitInfo(resolver)
	}

	if cfg.Notify.NATSURL != "" {
		notifier, err := notify.NewNATSNotifier(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			// Notifications are best effort; the build itself can proceed.
			slog.Warn("Build notifications disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			closers = append(closers, notifier.Close)
			builder.WithNotifier(notifier)
		}
	}

	return builder, closeAll, nil
}

func printReport(w io.Writer, r *build.Report) {
	fmt.Fprintf(w, "Build %s: %s\n", r.BuildID, r.Status)
	line := func(label string, v any) { fmt.Fprintf(w, "  %-10s %v\n", label+":", v) }
	line("output", r.Output)
	line("rendered", r.Rendered)
	if r.Skipped > 0 {
		line("unchanged", r.Skipped)
	}
	if r.Drafts > 0 {
		line("drafts", r.Drafts)
	}
	line("assets", r.Assets)
	if len(r.Failures) > 0 {
		line("failed", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "    ✗ %s: %v\n", f.Path, f.Err)
		}
	}
	line("took", r.Duration.Round(time.Millisecond))
}
