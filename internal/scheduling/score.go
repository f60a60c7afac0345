package scheduling

import (
	"fmt"
	"sort"
	"time"
)

// DefaultMaxSuggestions is the truncation limit applied by Rank when the
// caller does not supply one.
const DefaultMaxSuggestions = 5

const (
	baseScore          = 50
	prefHighBonus      = 30
	prefMediumBonus    = 15
	gapBonus           = 10
	patternBonus       = 10
	nationalPenalty    = 20
	municipalPenalty   = 10
	shortNoticePenalty = 5
)

// Score computes the 0-100 compatibility score of an availability-sourced
// candidate, with one human-readable reason per rule that fired. Additive
// policy over a base of 50, clamped to [0, 100]:
//   - preference ALTA +30, MEDIA +15, BAIXA +0 (tier always recorded)
//   - no appointment for the client within ±3 days: +10
//   - weekday repeats the majority of the last 3 completed sessions: +10
//   - national holiday -20, municipal holiday -10
//   - slot within 48h of now: -5
func Score(c SchedulingCandidate, history, existing []Appointment, holiday *Holiday, now time.Time) (int, []string) {
	score := baseScore
	var reasons []string

	switch c.Preference {
	case PreferenceHigh:
		score += prefHighBonus
		reasons = append(reasons, "preferência alta do cliente")
	case PreferenceMedium:
		score += prefMediumBonus
		reasons = append(reasons, "preferência média do cliente")
	case PreferenceLow:
		reasons = append(reasons, "preferência baixa do cliente")
	}

	if fillsGap(c.Date, existing) {
		score += gapBonus
		reasons = append(reasons, "preenche um intervalo na agenda")
	}

	if matchesPattern(c.Date, history) {
		score += patternBonus
		reasons = append(reasons, "repete o padrão das últimas sessões")
	}

	if holiday != nil {
		switch holiday.Category {
		case HolidayNational:
			score -= nationalPenalty
			reasons = append(reasons, fmt.Sprintf("cai em feriado nacional (%s)", holiday.Name))
		case HolidayMunicipal:
			score -= municipalPenalty
			reasons = append(reasons, fmt.Sprintf("cai em feriado municipal (%s)", holiday.Name))
		}
	}

	slot := slotInstant(c.Date, c.StartTime)
	if slot.After(now) && slot.Before(now.Add(48*time.Hour)) {
		score -= shortNoticePenalty
		reasons = append(reasons, "prazo muito curto")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, reasons
}

// fillsGap reports whether the client has no existing appointment within
// ±3 days of date.
func fillsGap(date time.Time, existing []Appointment) bool {
	day := DateOnly(date)
	for _, a := range existing {
		diff := DateOnly(a.Date).Sub(day)
		if diff < 0 {
			diff = -diff
		}
		if diff <= 3*24*time.Hour {
			return false
		}
	}
	return true
}

// matchesPattern reports whether the candidate's weekday matches the weekday
// of at least 2 of the client's 3 most recent completed sessions.
func matchesPattern(date time.Time, history []Appointment) bool {
	if len(history) > 3 {
		history = history[:3]
	}
	matches := 0
	for _, a := range history {
		if a.Date.Weekday() == date.Weekday() {
			matches++
		}
	}
	return matches >= 2
}

// slotInstant combines a date and an "HH:MM" time-of-day into one instant.
func slotInstant(date time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return DateOnly(date)
	}
	d := DateOnly(date)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}

// Rank sorts candidates descending by score, breaking ties by earliest date
// then earliest time, and truncates to max entries (DefaultMaxSuggestions when
// max <= 0). The input slice is not modified; sorting is stable.
func Rank(cands []SchedulingCandidate, max int) []SchedulingCandidate {
	if max <= 0 {
		max = DefaultMaxSuggestions
	}
	out := make([]SchedulingCandidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := 0, 0
		if out[i].Score != nil {
			si = *out[i].Score
		}
		if out[j].Score != nil {
			sj = *out[j].Score
		}
		if si != sj {
			return si > sj
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
