package service

import (
	"testing"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestAdvancer_NextRun(t *testing.T) {
	t.Parallel()

	a := NewAdvancer(nil, time.UTC)

	cases := []struct {
		name string
		freq model.Frequency
		at   time.Time
		end  *time.Time
		want time.Time
		ok   bool
	}{
		{"one-time", model.OneTime, date(2024, 1, 1, 10, 0), nil, time.Time{}, false},
		{"unknown frequency", model.Frequency("hourly"), date(2024, 1, 1, 10, 0), nil, time.Time{}, false},
		{"daily", model.Daily, date(2024, 2, 28, 10, 0), nil, date(2024, 2, 29, 10, 0), true},
		{"weekly", model.Weekly, date(2024, 1, 1, 10, 0), nil, date(2024, 1, 8, 10, 0), true},
		{"monthly", model.Monthly, date(2024, 3, 15, 18, 30), nil, date(2024, 4, 15, 18, 30), true},
		{"monthly clamps", model.Monthly, date(2024, 1, 31, 10, 0), nil, date(2024, 2, 29, 10, 0), true},
		{"monthly across year", model.Monthly, date(2024, 12, 31, 10, 0), nil, date(2025, 1, 31, 10, 0), true},
		{"yearly", model.Yearly, date(2024, 6, 1, 10, 0), nil, date(2025, 6, 1, 10, 0), true},
		{"yearly leap day clamps", model.Yearly, date(2024, 2, 29, 10, 0), nil, date(2025, 2, 28, 10, 0), true},
		{"end date in future", model.Weekly, date(2024, 1, 1, 10, 0), ptr(date(2024, 2, 1, 0, 0)), date(2024, 1, 8, 10, 0), true},
		{"end date same day is inclusive", model.Weekly, date(2024, 1, 1, 10, 0), ptr(date(2024, 1, 8, 0, 0)), date(2024, 1, 8, 10, 0), true},
		{"end date passed", model.Weekly, date(2024, 1, 1, 10, 0), ptr(date(2024, 1, 7, 0, 0)), time.Time{}, false},
		{"monthly past end date", model.Monthly, date(2024, 1, 31, 10, 0), ptr(date(2024, 2, 15, 0, 0)), time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := a.NextRun(model.Message{Frequency: tc.freq, ScheduleTime: tc.at, EndDate: tc.end})
			if ok != tc.ok {
				t.Fatalf("NextRun() ok = %v, want %v", ok, tc.ok)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("NextRun() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAdvancer_NextRun_KeepsWallClockInLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	a := NewAdvancer(nil, loc)

	// 9:00 EST the day before DST starts.
	at := time.Date(2024, 3, 9, 9, 0, 0, 0, loc)
	got, ok := a.NextRun(model.Message{Frequency: model.Daily, ScheduleTime: at.UTC()})
	if !ok {
		t.Fatalf("expected a next run")
	}
	if h := got.In(loc).Hour(); h != 9 {
		t.Fatalf("expected 09:00 local, got %v", got.In(loc))
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected next run in UTC, got %v", got.Location())
	}
}

func ptr[T any](v T) *T { return &v }
