// Package sweeper runs the periodic global cache reset: once a day the
// subscriber cache and the first-message flags are dropped wholesale,
// independent of per-entry TTLs. Each cycle stands alone; a failing run
// never stops the schedule.
package sweeper

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is how often the sweep runs.
const DefaultInterval = 24 * time.Hour

// Target is anything the sweep clears.
type Target interface {
	// Name identifies the target in logs.
	Name() string

	// Sweep drops the target's cached state.
	Sweep()
}

// Sweeper schedules the periodic sweep over its targets.
type Sweeper struct {
	cron     *cron.Cron
	targets  []Target
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Sweeper over the given targets.
func New(interval time.Duration, targets []Target, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		cron:     cron.New(),
		targets:  targets,
		interval: interval,
		logger:   logger.With("component", "sweeper"),
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("sweeper: scheduling %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("sweep scheduled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler, waiting for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runOnce sweeps every target. A panic in one target is contained so the
// next cycle still runs.
func (s *Sweeper) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep cycle panicked", "panic", r)
		}
	}()

	for _, t := range s.targets {
		t.Sweep()
		s.logger.Info("cache swept", "target", t.Name())
	}
}

// Func adapts a plain function into a Target.
type Func struct {
	TargetName string
	Fn         func()
}

func (f Func) Name() string { return f.TargetName }
func (f Func) Sweep()       { f.Fn() }
