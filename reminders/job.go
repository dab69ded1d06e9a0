package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"itlend/lending"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the scan every morning at 08:00.
const DefaultSchedule = "0 8 * * *"

const markTTL = 24 * time.Hour

type OverdueLister interface {
	ListOverdue(ctx context.Context, now time.Time) ([]lending.BookingView, error)
}

// Job emails the responsible teacher about every open booking past its
// planned return. Bookings without a teacher are only logged.
type Job struct {
	bookings OverdueLister
	notifier lending.Notifier
	marker   Marker
	log      *slog.Logger
	now      func() time.Time
	timeout  time.Duration
}

func NewJob(bookings OverdueLister, notifier lending.Notifier, marker Marker, log *slog.Logger) *Job {
	if log == nil {
		log = slog.Default()
	}
	return &Job{
		bookings: bookings,
		notifier: notifier,
		marker:   marker,
		log:      log,
		now:      time.Now,
		timeout:  time.Minute,
	}
}

// Run performs one scan and returns how many reminders were sent.
func (j *Job) Run(ctx context.Context) (int, error) {
	now := j.now()
	overdue, err := j.bookings.ListOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue bookings: %w", err)
	}

	sent := 0
	for _, b := range overdue {
		if b.TeacherEmail == nil {
			j.log.Info("overdue booking has no teacher", "booking_id", b.ID, "student", b.StudentUsername)
			continue
		}
		key := reminderKey(b.ID, now)
		ok, err := j.marker.Mark(ctx, key, markTTL)
		if err != nil {
			j.log.Warn("reminder marker unavailable, skipping", "booking_id", b.ID, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := j.notifier.Send(ctx, *b.TeacherEmail, "Rückgabe des Notebooks", reminderBody(b, now)); err != nil {
			j.log.Warn("overdue reminder failed", "booking_id", b.ID, "to", *b.TeacherEmail, "err", err)
			// 下次再试
			_ = j.marker.Unmark(ctx, key)
			continue
		}
		sent++
	}
	j.log.Info("overdue scan finished", "overdue", len(overdue), "sent", sent)
	return sent, nil
}

// Schedule registers the job on c under spec, a standard five-field cron
// expression.
func (j *Job) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Run(ctx); err != nil {
			j.log.Error("overdue scan failed", "err", err)
		}
	})
}

func reminderBody(b lending.BookingView, now time.Time) string {
	days := int(now.Sub(b.PlannedReturn).Hours() / 24)
	return fmt.Sprintf(
		"Laptop %s (%s) borrowed by %s was due back on %s (%d day(s) overdue).\nPlease remind the student to return it.",
		b.Laptop.IdentificationNumber, b.Laptop.Model, b.StudentUsername,
		b.PlannedReturn.Format(time.DateOnly), days)
}
