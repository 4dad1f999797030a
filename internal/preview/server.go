// Package preview serves the built site locally and rebuilds it when the
// sources change, reloading connected browsers.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rajesh1993/sitegen/internal/build"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/content"
	"github.com/rajesh1993/sitegen/internal/logfields"
)

// DefaultDebounce is the quiet window between the last change and a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Status describes the most recent rebuild.
type Status struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Server serves the output directory and coordinates rebuilds. Rebuilds
// run one at a time; changes during a rebuild queue exactly one more.
type Server struct {
	cfg      *config.Config
	runner   build.Runner
	hub      *Hub
	metrics  http.Handler
	debounce time.Duration

	rebuilds chan struct{}
	buildMu  sync.Mutex

	timerMu sync.Mutex
	timer   *time.Timer

	statusMu sync.RWMutex
	status   Status
}

// New creates a server. metrics may be nil to disable /metrics.
func New(cfg *config.Config, runner build.Runner, metrics http.Handler) *Server {
	return &Server{
		cfg:      cfg,
		runner:   runner,
		hub:      NewHub(),
		metrics:  metrics,
		debounce: DefaultDebounce,
		rebuilds: make(chan struct{}, 1),
	}
}

// Hub returns the live-reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Status returns the outcome of the latest rebuild.
func (s *Server) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Handler returns the HTTP handler serving the site and preview endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var site http.Handler = http.FileServer(http.Dir(s.cfg.OutputDir()))
	if s.cfg.Serve.LiveReload {
		site = injectLiveReload(site)
		mux.Handle("/__livereload", s.hub)
		mux.HandleFunc("/__livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			if _, err := w.Write([]byte(Script)); err != nil {
				slog.Error("failed to write livereload script", logfields.Error(err))
			}
		})
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.HandleFunc("/__status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			slog.Error("failed to write status", logfields.Error(err))
		}
	})
	mux.Handle("/", site)
	return mux
}

// Trigger requests a rebuild after the debounce window. Calls within the
// window are coalesced.
func (s *Server) Trigger() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		select {
		case s.rebuilds <- struct{}{}:
		default:
		}
	})
}

// Rebuild runs one build and reports it to connected browsers. A failed
// build leaves the server running on the existing output.
func (s *Server) Rebuild(ctx context.Context) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report, err := s.runner.Build(ctx)
	st := Status{FinishedAt: time.Now().UTC(), Outcome: string(build.StatusFailed)}
	if report != nil {
		st.BuildID = report.BuildID
		st.Outcome = string(report.Status)
	}
	if err != nil {
		st.Error = err.Error()
		slog.Warn("Rebuild failed", logfields.BuildID(st.BuildID), logfields.Error(err))
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	s.hub.Broadcast(Event{Build: st.BuildID, Error: st.Error})
	return err
}

func (s *Server) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rebuilds:
			slog.Info("Change detected; rebuilding site")
			_ = s.Rebuild(ctx)
		}
	}
}

// Run builds the site, listens on the configured address and rebuilds on
// source changes until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Serve.Host, strconv.Itoa(s.cfg.Serve.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Rebuild(ctx); err != nil {
		slog.Error("Initial build failed", logfields.Error(err))
	}

	stopWatch, err := s.watch(ctx)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer stopWatch()

	go s.rebuildLoop(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	slog.Info("Preview server listening", logfields.URL("http://"+ln.Addr().String()), logfields.Output(s.cfg.OutputDir()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("preview server: %w", err)
		}
	}

	slog.Info("Shutting down preview server...")
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

// watch starts the fsnotify watcher, or the poller when a poll interval is
// configured, and returns a function that stops it.
func (s *Server) watch(ctx context.Context) (func(), error) {
	if interval := s.cfg.Serve.PollInterval; interval > 0 {
		p, err := NewPoller(interval, s.sourceHash, s.Trigger)
		if err != nil {
			return nil, err
		}
		p.Start()
		return func() { _ = p.Stop() }, nil
	}

	w, err := NewWatcher(s.cfg.Source, []string{s.cfg.OutputDir()}, s.Trigger)
	if err != nil {
		return nil, err
	}
	go w.Run(ctx)
	slog.Info("Watching for source changes", logfields.Source(s.cfg.Source))
	return func() { _ = w.Close() }, nil
}

func (s *Server) sourceHash() (string, error) {
	inv, err := content.Discover(s.cfg.Source, content.DiscoverOptions{
		LayoutsDir: s.cfg.LayoutsPath(),
		OutputDir:  s.cfg.OutputDir(),
		Exclude:    s.cfg.Exclude,
	})
	if err != nil {
		return "", err
	}
	return content.SourceHash(inv)
}
