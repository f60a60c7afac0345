package scheduling

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandWeekdaysInclusiveBounds(t *testing.T) {
	// 2026-03-02 é segunda; 2026-03-09 também.
	start := date(2026, 3, 2)
	end := date(2026, 3, 9)
	got := ExpandWeekdays([]int{1}, start, end)
	if len(got) != 2 {
		t.Fatalf("expected 2 mondays, got %d: %v", len(got), got)
	}
	if !got[0].Equal(start) || !got[1].Equal(end) {
		t.Fatalf("bounds must be inclusive, got %v", got)
	}
}

func TestExpandWeekdaysProperty(t *testing.T) {
	start := date(2026, 1, 1)
	end := date(2026, 1, 31)
	days := []int{1, 3, 5}
	want := map[time.Weekday]bool{time.Monday: true, time.Wednesday: true, time.Friday: true}
	prev := time.Time{}
	for _, d := range ExpandWeekdays(days, start, end) {
		if d.Before(start) || d.After(end) {
			t.Fatalf("date %v outside horizon", d)
		}
		if !want[d.Weekday()] {
			t.Fatalf("date %v has unexpected weekday %v", d, d.Weekday())
		}
		if !d.After(prev) {
			t.Fatalf("dates not strictly ordered: %v after %v", d, prev)
		}
		prev = d
	}
}

func TestExpandWeekdaysEmptyAndInvalid(t *testing.T) {
	if got := ExpandWeekdays(nil, date(2026, 1, 1), date(2026, 1, 31)); got != nil {
		t.Fatalf("expected nil for empty weekday set, got %v", got)
	}
	if got := ExpandWeekdays([]int{7, -1}, date(2026, 1, 1), date(2026, 1, 31)); got != nil {
		t.Fatalf("expected nil for invalid weekday values, got %v", got)
	}
}

func TestExpandWindowOneOff(t *testing.T) {
	d := date(2026, 4, 10)
	w := AvailabilityWindow{Recurrence: RecurrenceOneOff, Status: WindowActive, Date: &d}
	got := ExpandWindow(w, date(2026, 4, 1), date(2026, 4, 30))
	if len(got) != 1 || !got[0].Equal(d) {
		t.Fatalf("expected single date %v, got %v", d, got)
	}
	if got := ExpandWindow(w, date(2026, 5, 1), date(2026, 5, 31)); len(got) != 0 {
		t.Fatalf("expected empty sequence outside range, got %v", got)
	}
}

func TestExpandWindowTemporaryNarrowsHorizon(t *testing.T) {
	from := date(2026, 3, 9)
	to := date(2026, 3, 20)
	w := AvailabilityWindow{
		DayOfWeek:  3, // quarta
		Recurrence: RecurrenceWeekly,
		Status:     WindowTemporary,
		ValidFrom:  &from,
		ValidTo:    &to,
	}
	got := ExpandWindow(w, date(2026, 3, 1), date(2026, 3, 31))
	// Quartas entre 09 e 20/03: 11 e 18.
	if len(got) != 2 || !got[0].Equal(date(2026, 3, 11)) || !got[1].Equal(date(2026, 3, 18)) {
		t.Fatalf("expected [11/03 18/03], got %v", got)
	}
}

func TestExpandIntentPeriodEnd(t *testing.T) {
	end := date(2026, 3, 15)
	in := SchedulingIntent{IsRecurring: true, DaysOfWeek: []int{1}, PeriodEnd: &end}
	for _, d := range ExpandIntent(in, date(2026, 3, 1), date(2026, 3, 31)) {
		if d.After(end) {
			t.Fatalf("date %v beyond period end %v", d, end)
		}
	}
}

func TestExpandIntentNonRecurring(t *testing.T) {
	d := date(2026, 3, 10)
	in := SchedulingIntent{SpecificDate: &d}
	got := ExpandIntent(in, date(2026, 3, 1), date(2026, 3, 31))
	if len(got) != 1 || !got[0].Equal(d) {
		t.Fatalf("expected [%v], got %v", d, got)
	}
	if got := ExpandIntent(in, date(2026, 4, 1), date(2026, 4, 30)); len(got) != 0 {
		t.Fatalf("expected empty for date outside horizon, got %v", got)
	}
}
