//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package schedule runs the replication job on a daily timer, keeps a
// persisted execution history, and optionally notifies by email after
// each run.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/altiplano-data/salesmirror/internal/logging"
)

// Job executes one replication and returns the path of the run report.
type Job func(ctx context.Context) (reportPath string, err error)

// Options controls when and how the scheduler fires.
type Options struct {
	// At is the daily wall-clock trigger time, "15:04" form.
	At string

	// Every switches to interval mode when positive, overriding At.
	// Meant for exercising the loop without waiting for tomorrow.
	Every time.Duration

	// Timeout bounds each run. Zero means no limit.
	Timeout time.Duration
}

// Scheduler fires the job at the configured times until its context is
// cancelled.
type Scheduler struct {
	job      Job
	history  *History
	notifier *Notifier
	opts     Options
}

// New builds a scheduler. notifier may be nil to disable email.
func New(job Job, history *History, notifier *Notifier, opts Options) *Scheduler {
	return &Scheduler{job: job, history: history, notifier: notifier, opts: opts}
}

// NextRun returns the first scheduled instant strictly after now.
// Interval mode adds the interval; daily mode picks today's trigger time
// if it is still ahead, otherwise tomorrow's.
func NextRun(now time.Time, at string, every time.Duration) (time.Time, error) {
	if every > 0 {
		return now.Add(every), nil
	}
	t, err := time.Parse("15:04", at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// Run loops until ctx is done. It returns nil on cancellation; a clean
// shutdown is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next, err := NextRun(time.Now(), s.opts.At, s.opts.Every)
		if err != nil {
			return err
		}
		logging.Info().Time("next", next).Msg("Scheduler waiting")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logging.Info().Msg("Scheduler stopped")
			return nil
		case <-timer.C:
		}

		s.runOnce(ctx)
	}
}

// runOnce executes the job, records the outcome, and notifies. Failures
// to persist history or send mail are logged but never abort the loop.
func (s *Scheduler) runOnce(ctx context.Context) Execution {
	start := time.Now()
	logging.Info().Msg("Starting scheduled replication")

	runCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	reportPath, err := s.job(runCtx)
	exec := Execution{
		Timestamp:       start.UTC(),
		DurationSeconds: time.Since(start).Seconds(),
		Success:         err == nil,
		ReportPath:      reportPath,
	}
	if err != nil {
		exec.Error = err.Error()
		logging.Error().Err(err).Float64("seconds", exec.DurationSeconds).Msg("Scheduled replication failed")
	} else {
		logging.Info().Float64("seconds", exec.DurationSeconds).Msg("Scheduled replication succeeded")
	}

	s.history.Append(exec)
	if serr := s.history.Save(); serr != nil {
		logging.Error().Err(serr).Msg("Failed to save execution history")
	}

	if s.notifier != nil {
		if nerr := s.notifier.Send(exec); nerr != nil {
			logging.Error().Err(nerr).Msg("Failed to send notification")
		}
	}
	return exec
}
