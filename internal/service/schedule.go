package service

import (
	"context"
	"fmt"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Advancer moves a message to its next run or to a terminal status.
type Advancer struct {
	messages repo.MessageRepository
	loc      *time.Location
}

func NewAdvancer(messages repo.MessageRepository, loc *time.Location) *Advancer {
	if loc == nil {
		loc = time.UTC
	}
	return &Advancer{messages: messages, loc: loc}
}

// NextRun returns the next schedule time for m. ok is false when the
// message has no further runs.
func (a *Advancer) NextRun(m model.Message) (next time.Time, ok bool) {
	cur := m.ScheduleTime.In(a.loc)

	switch m.Frequency {
	case model.Daily:
		next = cur.AddDate(0, 0, 1)
	case model.Weekly:
		next = cur.AddDate(0, 0, 7)
	case model.Monthly:
		next = addMonths(cur, 1)
	case model.Yearly:
		next = addMonths(cur, 12)
	default:
		return time.Time{}, false
	}

	if m.EndDate != nil && !next.Before(a.endOfDay(*m.EndDate)) {
		return time.Time{}, false
	}
	return next.UTC(), true
}

// Advance applies NextRun and returns the status the message ends in.
func (a *Advancer) Advance(ctx context.Context, m model.Message) (model.MessageStatus, error) {
	next, ok := a.NextRun(m)
	if !ok {
		return a.finish(ctx, m.ID)
	}

	if err := a.messages.Reschedule(ctx, m.ID, next); err != nil {
		return "", fmt.Errorf("reschedule to %s: %w", next.Format(time.RFC3339), err)
	}
	return model.MessageScheduled, nil
}

func (a *Advancer) finish(ctx context.Context, id uuid.UUID) (model.MessageStatus, error) {
	err := a.messages.UpdateStatus(ctx, id, model.MessageCompleted, nil)
	if err == nil {
		return model.MessageCompleted, nil
	}

	fallbackErr := a.messages.UpdateStatus(ctx, id, model.MessageInactive, nil)
	if fallbackErr == nil {
		return model.MessageInactive, nil
	}

	var result *multierror.Error
	result = multierror.Append(result,
		fmt.Errorf("mark completed: %w", err),
		fmt.Errorf("mark inactive: %w", fallbackErr),
	)
	return "", result
}

// endOfDay is the first instant after the calendar day of an end date.
func (a *Advancer) endOfDay(end time.Time) time.Time {
	y, mo, d := end.Date()
	return time.Date(y, mo, d+1, 0, 0, 0, 0, a.loc)
}

// addMonths adds n calendar months, clamping to the last day of the
// target month.
func addMonths(t time.Time, n int) time.Time {
	y, mo, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, mo+time.Month(n), 1, hh, mm, ss, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}
