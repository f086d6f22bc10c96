// Package scheduler runs the periodic sweeps: time-boxed event reminders and
// age-based notification retention. The scheduler keeps no state between
// ticks; every "have we sent this" question is answered by the store's
// reminder dedup constraint, so overlapping or restarted sweeps are safe.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/factory"
	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/service"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/robfig/cron/v3"
)

// EventSource is the read view of upcoming events and their attendees
type EventSource interface {
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]*domain.Event, error)
	ListAttendees(ctx context.Context, eventID string) ([]string, error)
}

// OffsetSource exposes the reminder offsets present across all users
type OffsetSource interface {
	DistinctReminderOffsets(ctx context.Context) ([]int, error)
}

// RetentionStore removes notifications past the retention window
type RetentionStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderScheduler sweeps upcoming events on a fixed interval and feeds due
// reminders into the dispatcher, at most once per (event, attendee, offset).
type ReminderScheduler struct {
	cron          *cron.Cron
	dispatcher    *service.Dispatcher
	resolver      *service.Resolver
	events        EventSource
	offsets       OffsetSource
	retention     RetentionStore
	interval      time.Duration
	retentionDays int
	log           *logger.Logger
	now           func() time.Time
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(dispatcher *service.Dispatcher, resolver *service.Resolver, events EventSource, offsets OffsetSource, retention RetentionStore, interval time.Duration, retentionDays int, log *logger.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &ReminderScheduler{
		cron:          cron.New(),
		dispatcher:    dispatcher,
		resolver:      resolver,
		events:        events,
		offsets:       offsets,
		retention:     retention,
		interval:      interval,
		retentionDays: retentionDays,
		log:           log,
		now:           time.Now,
	}
}

// Start registers the sweeps and starts the cron runner
func (s *ReminderScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@daily", func() {
		s.pruneExpired(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("reminder scheduler started", "interval", s.interval, "retention_days", s.retentionDays)
	return nil
}

// Stop stops the cron runner
func (s *ReminderScheduler) Stop() {
	s.cron.Stop()
	s.log.Info("reminder scheduler stopped")
}

// Sweep runs one reminder pass: for every offset in use, find events whose
// start falls inside the offset window and dispatch reminders to attendees
// whose preferences include that offset. Duplicate sends are suppressed by
// the store, so a sweep overlapping a retried or skewed sweep creates
// nothing twice.
func (s *ReminderScheduler) Sweep(ctx context.Context) {
	start := s.now()
	defer func() {
		metrics.ReminderSweepDuration.Observe(time.Since(start).Seconds())
	}()

	for _, offset := range s.sweepOffsets(ctx) {
		from, to := s.window(start, offset)

		events, err := s.events.FindStartingBetween(ctx, from, to)
		if err != nil {
			s.log.Error("reminder sweep query failed", "error", err, "offset_hours", offset)
			continue
		}

		for _, event := range events {
			s.remindAttendees(ctx, event, offset)
		}
	}
}

// window computes the sweep window for an offset: the event-start range
// [now+offset-tolerance, now+offset+tolerance], with tolerance half the
// sweep interval so consecutive ticks neither miss nor double-count an
// event.
func (s *ReminderScheduler) window(now time.Time, offsetHours int) (time.Time, time.Time) {
	center := now.Add(time.Duration(offsetHours) * time.Hour)
	tolerance := s.interval / 2
	return center.Add(-tolerance), center.Add(tolerance)
}

// sweepOffsets returns the union of stored user offsets and the defaults,
// largest first.
func (s *ReminderScheduler) sweepOffsets(ctx context.Context) []int {
	stored, err := s.offsets.DistinctReminderOffsets(ctx)
	if err != nil {
		s.log.Warn("failed to load stored reminder offsets, using defaults", "error", err)
		stored = nil
	}

	seen := make(map[int]struct{})
	var offsets []int
	for _, h := range append(stored, domain.DefaultReminderOffsets...) {
		if h <= 0 {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		offsets = append(offsets, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))
	return offsets
}

// remindAttendees dispatches the offset reminder to every attendee that
// opted into it.
func (s *ReminderScheduler) remindAttendees(ctx context.Context, event *domain.Event, offsetHours int) {
	attendees, err := s.events.ListAttendees(ctx, event.ID)
	if err != nil {
		s.log.Error("failed to list attendees for reminder", "error", err, "event_id", event.ID)
		return
	}

	payload := factory.BuildReminder(*event, offsetHours)

	for _, userID := range attendees {
		prefs := s.resolver.Resolve(ctx, userID)
		if !prefs.RemindersEnabled || !prefs.HasOffset(offsetHours) {
			continue
		}

		if _, err := s.dispatcher.Notify(ctx, userID, domain.NotificationTypeReminder, payload); err != nil {
			s.log.Error("reminder dispatch failed", "error", err, "event_id", event.ID, "user_id", userID)
		}
	}
}

// pruneExpired removes notifications older than the retention window
// regardless of read status.
func (s *ReminderScheduler) pruneExpired(ctx context.Context) {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.retention.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", "error", err)
		return
	}

	metrics.RetentionDeleted.Add(float64(deleted))
	if deleted > 0 {
		s.log.Info("retention sweep removed notifications", "count", deleted, "cutoff", cutoff)
	}
}
