// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package maintenance runs periodic housekeeping: abandoned drafts are
// deleted and idle per-session reference caches are dropped.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DraftCleaner deletes drafts not edited within retention.
type DraftCleaner interface {
	CleanupDrafts(ctx context.Context, retention time.Duration) (int, error)
}

// ReferenceSweeper drops reference caches idle for longer than idle.
type ReferenceSweeper interface {
	SweepReferences(idle time.Duration) int
}

// jobTimeout bounds a single run of a job.
const jobTimeout = 5 * time.Minute

// Config controls the scheduler.
type Config struct {
	Schedule       string        // cron spec, e.g. "@hourly"
	DraftRetention time.Duration // drafts older than this are deleted
	ReferenceIdle  time.Duration // reference caches idle longer than this are dropped
}

// Scheduler owns the cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	drafts DraftCleaner
	refs   ReferenceSweeper
}

// New creates a scheduler. Either collaborator may be nil to skip its job.
func New(cfg Config, drafts DraftCleaner, refs ReferenceSweeper) *Scheduler {
	logger := slog.Default().With("system", "cron")
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{logger}),
		cron.SkipIfStillRunning(cronLogger{logger}),
	))
	return &Scheduler{cron: c, cfg: cfg, drafts: drafts, refs: refs}
}

// Register adds the jobs to the schedule.
func (s *Scheduler) Register() error {
	if s.drafts != nil && s.cfg.DraftRetention > 0 {
		if _, err := s.cron.AddFunc(s.cfg.Schedule, s.CleanupDrafts); err != nil {
			return fmt.Errorf("maintenance: schedule draft cleanup %q: %w", s.cfg.Schedule, err)
		}
		slog.Info("job registered", "job", "draft_cleanup", "schedule", s.cfg.Schedule, "retention", s.cfg.DraftRetention)
	}
	if s.refs != nil && s.cfg.ReferenceIdle > 0 {
		if _, err := s.cron.AddFunc("@every 10m", s.SweepReferences); err != nil {
			return fmt.Errorf("maintenance: schedule reference sweep: %w", err)
		}
	}
	return nil
}

// CleanupDrafts runs the draft cleanup once.
func (s *Scheduler) CleanupDrafts() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.drafts.CleanupDrafts(ctx, s.cfg.DraftRetention)
	if err != nil {
		slog.Error("draft cleanup failed", "error", err)
		return
	}
	slog.Info("draft cleanup finished", "removed", n, "duration", time.Since(start))
}

// SweepReferences runs the reference cache sweep once.
func (s *Scheduler) SweepReferences() {
	if n := s.refs.SweepReferences(s.cfg.ReferenceIdle); n > 0 {
		slog.Debug("reference caches swept", "removed", n)
	}
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("maintenance jobs still running at shutdown")
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
