package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/buildcache"
	"github.com/rajesh1993/sitegen/internal/config"
	"github.com/rajesh1993/sitegen/internal/content"
	"github.com/rajesh1993/sitegen/internal/gitinfo"
	"github.com/rajesh1993/sitegen/internal/logfields"
	"github.com/rajesh1993/sitegen/internal/metrics"
	"github.com/rajesh1993/sitegen/internal/notify"
)

// Runner executes a complete site build.
type Runner interface {
	Build(ctx context.Context) (*Report, error)
}

// Builder is the standard Runner.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
	cache    buildcache.Store
	notifier notify.Notifier
	git      *gitinfo.Resolver
	now      func() time.Time
	newID    func() string
}

// New creates a Builder for cfg with no-op metrics, cache and notifier.
func New(cfg *config.Config) *Builder {
	return &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		cache:    buildcache.NoopStore{},
		notifier: notify.NoopNotifier{},
		git:      gitinfo.Disabled(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithCache sets the incremental build cache.
func (b *Builder) WithCache(s buildcache.Store) *Builder {
	if s != nil {
		b.cache = s
	}
	return b
}

// WithNotifier sets where build events are published.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	if n != nil {
		b.notifier = n
	}
	return b
}

// WithGitInfo enables page.last_modified from the given resolver.
func (b *Builder) WithGitInfo(r *gitinfo.Resolver) *Builder {
	if r != nil {
		b.git = r
	}
	return b
}

// WithClock overrides time.Now (for testing).
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build runs one build. The report is always returned, even on error. When
// any document fails the error is a *berrors.BuildFailure; load and
// discovery problems are returned as they are.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{
		BuildID: b.newID(),
		Status:  StatusRunning,
		Source:  b.cfg.Source,
		Output:  b.cfg.OutputDir(),
		Started: b.now(),
	}
	log := slog.With(logfields.BuildID(report.BuildID))
	log.Info("Build started", logfields.Source(report.Source), logfields.Output(report.Output))

	err := b.run(ctx, report, log)
	b.finish(ctx, report, err, log)
	return report, err
}

func (b *Builder) run(ctx context.Context, report *Report, log *slog.Logger) error {
	if b.cfg.Build.Clean {
		if err := CleanOutput(report.Output, report.Source); err != nil {
			return err
		}
		log.Debug("Cleaned output directory", logfields.Output(report.Output))
	}

	site, err := LoadSite(b.cfg, b.git)
	if err != nil {
		return err
	}
	log.Info("Discovered sources",
		slog.Int("documents", len(site.Inventory.Documents)),
		slog.Int("assets", len(site.Inventory.Assets)),
		slog.Int("layouts", len(site.Layouts.Names())))

	if err := os.MkdirAll(report.Output, dirPerm); err != nil {
		return fmt.Errorf("%w: create output %s: %w", berrors.ErrIOFailure, report.Output, err)
	}

	var failures []*berrors.DocumentError
	report.Pages = b.renderAll(ctx, site, log)
	for _, p := range report.Pages {
		switch p.Status {
		case PageRendered:
			report.Rendered++
		case PageUnchanged:
			report.Skipped++
		case PageDraft:
			report.Drafts++
		case PageFailed:
			failures = append(failures, p.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, asset := range site.Inventory.Assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		dest := site.OutputFile(asset.ID)
		if err := site.OutputConflict(asset.ID); err != nil {
			if rmErr := removeStale(dest); rmErr != nil {
				log.Warn("Could not remove stale output", logfields.Output(asset.ID), logfields.Error(rmErr))
			}
			log.Error("Asset failed", logfields.Path(asset.ID), logfields.Error(err))
			failures = append(failures, &berrors.DocumentError{Path: asset.ID, Err: err})
			continue
		}
		if err := CopyFile(asset.Path, dest); err != nil {
			log.Error("Asset copy failed", logfields.Path(asset.ID), logfields.Error(err))
			failures = append(failures, &berrors.DocumentError{Path: asset.ID, Err: err})
			continue
		}
		report.Assets++
	}
	b.recorder.IncAssetsCopied(report.Assets)

	if len(failures) > 0 {
		failure := berrors.NewBuildFailure(failures)
		report.Failures = failure.Failures
		return failure
	}
	return nil
}

// renderAll renders the documents of site through a bounded worker pool.
// Cancellation stops dispatch; documents already dispatched finish.
func (b *Builder) renderAll(ctx context.Context, site *Site, log *slog.Logger) []PageResult {
	docs := site.Inventory.Documents
	results := make([]PageResult, len(docs))
	dispatched := make([]bool, len(docs))

	workers := b.cfg.Build.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(docs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wlog := log.With(logfields.Worker(w))
			for i := range jobs {
				results[i] = b.renderPage(ctx, site, docs[i], wlog)
			}
		}()
	}

dispatch:
	for i := range docs {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			dispatched[i] = true
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]PageResult, 0, len(docs))
	for i, ok := range dispatched {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

func (b *Builder) renderPage(ctx context.Context, site *Site, src content.Source, log *slog.Logger) PageResult {
	start := b.now()
	res := PageResult{ID: src.ID, Output: content.OutputPath(src.ID)}
	dest := site.OutputFile(res.Output)

	fail := func(err error) PageResult {
		res.Status = PageFailed
		res.Err = &berrors.DocumentError{Path: src.ID, Err: err}
		if rmErr := removeStale(dest); rmErr != nil {
			log.Warn("Could not remove stale output", logfields.Output(res.Output), logfields.Error(rmErr))
		}
		if delErr := b.cache.Delete(ctx, src.ID); delErr != nil {
			log.Warn("Could not forget cached page", logfields.Document(src.ID), logfields.Error(delErr))
		}
		b.recorder.IncDocumentResult(metrics.DocumentFailed)
		log.Error("Document failed", logfields.Document(src.ID), logfields.Layout(res.Layout), logfields.Error(err))
		return res
	}

	if err := site.OutputConflict(src.ID); err != nil {
		return fail(err)
	}
	doc, err := site.LoadDocument(src)
	if err != nil {
		return fail(err)
	}
	res.Layout = doc.Layout

	if doc.Draft() && !b.cfg.Build.Drafts {
		if err := removeStale(dest); err != nil {
			return fail(err)
		}
		res.Status = PageDraft
		b.recorder.IncDocumentResult(metrics.DocumentSkipped)
		log.Debug("Skipped draft", logfields.Document(src.ID))
		return res
	}

	var key string
	if b.cfg.Build.Incremental {
		if key, err = site.CacheKey(doc); err != nil {
			return fail(err)
		}
		if b.unchanged(ctx, src.ID, key, dest, log) {
			res.Status = PageUnchanged
			b.recorder.IncDocumentResult(metrics.DocumentSkipped)
			log.Debug("Document unchanged", logfields.Document(src.ID))
			return res
		}
	}

	page, err := site.Render(doc)
	if err != nil {
		return fail(err)
	}
	if err := WriteFileAtomic(dest, page); err != nil {
		return fail(err)
	}

	if key != "" {
		cached := buildcache.Page{Source: src.ID, Key: key, Output: res.Output, UpdatedAt: b.now()}
		if err := b.cache.Put(ctx, cached); err != nil {
			log.Warn("Could not cache page", logfields.Document(src.ID), logfields.Error(err))
		}
	}

	elapsed := b.now().Sub(start)
	b.recorder.ObserveRenderDuration(elapsed)
	b.recorder.IncDocumentResult(metrics.DocumentRendered)
	res.Status = PageRendered
	log.Debug("Rendered document",
		logfields.Document(src.ID),
		logfields.Layout(doc.Layout),
		logfields.Output(res.Output),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return res
}

// unchanged reports whether the cached page matches key and its output
// still exists.
func (b *Builder) unchanged(ctx context.Context, id, key, dest string, log *slog.Logger) bool {
	cached, ok, err := b.cache.Lookup(ctx, id)
	if err != nil {
		log.Warn("Cache lookup failed", logfields.Document(id), logfields.Error(err))
		return false
	}
	if !ok || cached.Key != key {
		return false
	}
	_, err = os.Stat(dest)
	return err == nil
}

func (b *Builder) finish(ctx context.Context, report *Report, err error, log *slog.Logger) {
	finished := b.now()
	report.Duration = finished.Sub(report.Started)
	switch {
	case err == nil:
		report.Status = StatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		report.Status = StatusCanceled
	default:
		report.Status = StatusFailed
	}

	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(report.Status.outcome())

	// Bookkeeping runs even when the build itself was canceled.
	pctx := context.WithoutCancel(ctx)
	rec := buildcache.BuildRecord{
		ID:         report.BuildID,
		StartedAt:  report.Started,
		FinishedAt: finished,
		Rendered:   report.Rendered,
		Skipped:    report.Skipped + report.Drafts,
		Failed:     len(report.Failures),
		Outcome:    string(report.Status),
	}
	if recErr := b.cache.RecordBuild(pctx, rec); recErr != nil {
		log.Warn("Could not record build", logfields.Error(recErr))
	}
	if pubErr := b.notifier.PublishBuild(pctx, report.Event()); pubErr != nil {
		log.Warn("Could not publish build event", logfields.Error(pubErr))
	}

	attrs := []any{
		logfields.Outcome(string(report.Status)),
		slog.Int("rendered", report.Rendered),
		slog.Int("skipped", report.Skipped),
		slog.Int("drafts", report.Drafts),
		slog.Int("assets", report.Assets),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
	}
	if err != nil {
		log.Error("Build failed", append(attrs, slog.Int("failed", len(report.Failures)), logfields.Error(err))...)
		return
	}
	log.Info("Build completed", attrs...)
}
