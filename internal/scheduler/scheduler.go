// Package scheduler checks the feed against stored subscriptions, once or
// periodically.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Check runs a single feed check.
type Check interface {
	Check(ctx context.Context) (CheckResult, error)
}

// Scheduler runs a Check periodically.
type Scheduler struct {
	check Check
	log   *slog.Logger
	tick  time.Duration
}

// New creates a Scheduler running check every interval.
func New(check Check, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Scheduler{
		check: check,
		log:   log,
		tick:  interval,
	}
}

// SetTickInterval overrides the check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run checks immediately and then on every tick, blocking until ctx is
// cancelled. A failed check is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.check.Check(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("check feed", "error", err)
		}
		return
	}
	s.log.Debug("feed checked", "items", res.Items, "matched", res.Matched, "reported", res.Reported)
}
