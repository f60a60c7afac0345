package scheduling

import "time"

// DefaultHorizonDays is the default expansion horizon when the caller does not
// configure one.
const DefaultHorizonDays = 31

// maxHorizonDays caps any horizon so expansion can never run unbounded.
const maxHorizonDays = 366

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ExpandWeekdays enumerates, in order, every date in [horizonStart, horizonEnd]
// (both inclusive) whose weekday is in daysOfWeek (0=domingo .. 6=sábado).
// Pure and deterministic; out-of-range weekday values are ignored.
func ExpandWeekdays(daysOfWeek []int, horizonStart, horizonEnd time.Time) []time.Time {
	var want [7]bool
	any := false
	for _, d := range daysOfWeek {
		if d >= 0 && d <= 6 {
			want[d] = true
			any = true
		}
	}
	if !any {
		return nil
	}
	start := DateOnly(horizonStart)
	end := DateOnly(horizonEnd)
	if limit := start.AddDate(0, 0, maxHorizonDays); end.After(limit) {
		end = limit
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if want[int(d.Weekday())] {
			dates = append(dates, d)
		}
	}
	return dates
}

// ExpandWindow returns the concrete dates an availability window denotes inside
// [horizonStart, horizonEnd]. Weekly windows enumerate their weekday; AVULSA
// windows emit their single date when it falls in range. TEMPORARIA windows are
// additionally narrowed to [ValidFrom, ValidTo].
func ExpandWindow(w AvailabilityWindow, horizonStart, horizonEnd time.Time) []time.Time {
	start := DateOnly(horizonStart)
	end := DateOnly(horizonEnd)
	if w.Status == WindowTemporary {
		if w.ValidFrom != nil && DateOnly(*w.ValidFrom).After(start) {
			start = DateOnly(*w.ValidFrom)
		}
		if w.ValidTo != nil && DateOnly(*w.ValidTo).Before(end) {
			end = DateOnly(*w.ValidTo)
		}
	}
	if end.Before(start) {
		return nil
	}
	if w.Recurrence == RecurrenceOneOff {
		if w.Date == nil {
			return nil
		}
		d := DateOnly(*w.Date)
		if d.Before(start) || d.After(end) {
			return nil
		}
		return []time.Time{d}
	}
	return ExpandWeekdays([]int{w.DayOfWeek}, start, end)
}

// ExpandIntent returns the concrete dates a parsed command denotes inside
// [horizonStart, horizonEnd]. Recurring intents are also bounded by PeriodEnd.
func ExpandIntent(in SchedulingIntent, horizonStart, horizonEnd time.Time) []time.Time {
	start := DateOnly(horizonStart)
	end := DateOnly(horizonEnd)
	if !in.IsRecurring {
		if in.SpecificDate == nil {
			return nil
		}
		d := DateOnly(*in.SpecificDate)
		if d.Before(start) || d.After(end) {
			return nil
		}
		return []time.Time{d}
	}
	if in.PeriodEnd != nil && DateOnly(*in.PeriodEnd).Before(end) {
		end = DateOnly(*in.PeriodEnd)
	}
	return ExpandWeekdays(in.DaysOfWeek, start, end)
}
