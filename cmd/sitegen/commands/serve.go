package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/metrics"
	"github.com/rajesh1993/sitegen/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Source   string        `arg:"" optional:"" help:"Site source directory (default: source from config, else .)"`
	Host     string        `help:"Interface to listen on (default from config: 127.0.0.1)"`
	Port     int           `short:"p" help:"Port to listen on (default from config: 4000)"`
	Poll     time.Duration `help:"Poll the source tree at this interval instead of using filesystem events"`
	NoReload bool          `name:"no-reload" help:"Do not inject the live-reload script"`
	Drafts   bool          `help:"Render documents marked draft: true"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig(s.Source, "", s.apply)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunServe(ctx, cfg)
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Host != "" {
		cfg.Serve.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Serve.Port = s.Port
	}
	if s.Poll != 0 {
		cfg.Serve.PollInterval = s.Poll
	}
	if s.NoReload {
		cfg.Serve.LiveReload = false
	}
	if s.Drafts {
		cfg.Build.Drafts = true
	}
}

// RunServe runs the preview server until ctx is canceled.
func RunServe(ctx context.Context, cfg *config.Config) error {
	server, closeDeps, err := newPreviewServer(cfg)
	if err != nil {
		return err
	}
	defer closeDeps()
	return server.Run(ctx)
}

// newPreviewServer wires a builder and, when enabled, a Prometheus
// registry exposed on /metrics.
func newPreviewServer(cfg *config.Config) (*preview.Server, func(), error) {
	var (
		recorder       metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.Serve.Metrics {
		reg := prometheus.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		metricsHandler = metrics.HTTPHandler(reg)
	}

	builder, closeDeps, err := newBuilder(cfg, recorder)
	if err != nil {
		return nil, nil, err
	}
	return preview.New(cfg, builder, metricsHandler), closeDeps, nil
}
