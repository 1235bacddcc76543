// Package scheduler runs the daily attendance reconciliation.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/config"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/logger"
)

// DueReconciler reconciles, for every company, the day that is lookbackDays before the
// company's local date at instant at.
type DueReconciler interface {
	ReconcileDue(ctx context.Context, at time.Time, lookbackDays int, fallback *time.Location) (*service.RunSummary, error)
}

// SkipObserver is told about ticks dropped by the overlap guard.
type SkipObserver interface {
	RunSkipped(trigger string)
}

// Scheduler fires the daily reconciliation once per local day of the configured timezone,
// after the configured time. Which date each company reconciles follows its own timezone.
type Scheduler struct {
	reconciler DueReconciler
	publisher  service.EventPublisher
	observer   SkipObserver
	logger     *logger.Logger

	loc      *time.Location
	hour     int
	minute   int
	lookback int
	interval time.Duration
	now      func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup

	mu        sync.Mutex
	lastFired string
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithPublisher reports skipped ticks as events.
func WithPublisher(p service.EventPublisher) Option {
	return func(s *Scheduler) { s.publisher = p }
}

// WithObserver reports skipped ticks as metrics.
func WithObserver(o SkipObserver) Option {
	return func(s *Scheduler) { s.observer = o }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler from the attendance settings.
func New(reconciler DueReconciler, cfg config.AttendanceConfig, log *logger.Logger, opts ...Option) (*Scheduler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	hour, minute, err := cfg.RunAt()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		reconciler: reconciler,
		logger:     log.WithComponent("scheduler"),
		loc:        loc,
		hour:       hour,
		minute:     minute,
		lookback:   cfg.DailyLookbackDays,
		interval:   cfg.CheckInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start checks the schedule every interval until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().
		Str("timezone", s.loc.String()).
		Int("hour", s.hour).
		Int("minute", s.minute).
		Int("lookback_days", s.lookback).
		Dur("interval", s.interval).
		Msg("daily attendance job scheduled")

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Tick(ctx)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("daily attendance job stopped")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Wait blocks until an in-flight run returns.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Tick starts the daily run if it is due and reports whether it did.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now().In(s.loc)
	today := domain.Day(now)
	runAt := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
	if now.Before(runAt) || s.firedOn(today) {
		return false
	}

	target := today.AddDate(0, 0, -s.lookback)

	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Str("date", domain.DateKey(target)).Msg("previous daily attendance run still executing, skipping tick")
		if s.observer != nil {
			s.observer.RunSkipped(string(service.TriggerScheduled))
		}
		if s.publisher != nil {
			s.publisher.PublishReconciliationSkipped(ctx, service.TriggerScheduled, target, "previous scheduled run still executing")
		}
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.run(ctx, today, now)
	}()
	return true
}

func (s *Scheduler) run(ctx context.Context, today, at time.Time) {
	ctx = actor.WithActor(ctx, actor.SystemActor())

	summary, err := s.reconciler.ReconcileDue(ctx, at, s.lookback, s.loc)
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		// Retried on the next tick.
		return
	case err != nil:
		s.logger.Error().Err(err).Str("day", domain.DateKey(today)).Msg("daily attendance run failed")
		return
	}

	s.markFired(today)
	s.logger.Info().
		Str("run_id", summary.RunID).
		Str("date_from", summary.DateFrom).
		Str("date_to", summary.DateTo).
		Int("processed", summary.Processed).
		Int("failed", len(summary.Failures)).
		Msg("daily attendance run finished")
}

func (s *Scheduler) firedOn(day time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFired == domain.DateKey(day)
}

func (s *Scheduler) markFired(day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFired = domain.DateKey(day)
}
