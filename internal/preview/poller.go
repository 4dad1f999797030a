package preview

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/rajesh1993/sitegen/internal/logfields"
)

// Poller triggers a rebuild when the source hash changes. It is used where
// filesystem notifications are unreliable, such as network mounts.
type Poller struct {
	scheduler gocron.Scheduler
	hash      func() (string, error)
	trigger   func()

	mu   sync.Mutex
	last string
}

// NewPoller schedules a hash comparison every interval.
func NewPoller(interval time.Duration, hash func() (string, error), trigger func()) (*Poller, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	p := &Poller{scheduler: s, hash: hash, trigger: trigger}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.check),
		gocron.WithName("source-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}
	return p, nil
}

// Start records the current hash and begins polling.
func (p *Poller) Start() {
	if h, err := p.hash(); err == nil {
		p.mu.Lock()
		p.last = h
		p.mu.Unlock()
	}
	slog.Info("Polling for source changes")
	p.scheduler.Start()
}

// Stop shuts the scheduler down.
func (p *Poller) Stop() error {
	return p.scheduler.Shutdown()
}

func (p *Poller) check() {
	h, err := p.hash()
	if err != nil {
		slog.Warn("Source hash failed", logfields.Error(err))
		return
	}

	p.mu.Lock()
	changed := h != p.last
	p.last = h
	p.mu.Unlock()

	if changed {
		slog.Debug("Source hash changed", slog.String("hash", h))
		p.trigger()
	}
}
