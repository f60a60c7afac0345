package scheduling

import (
	"strings"
	"testing"
	"time"
)

// scoreNow is far from the candidate dates so the short-notice penalty stays out
// of the way unless a test wants it.
var scoreNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func wednesdayCandidate(pref string) SchedulingCandidate {
	return SchedulingCandidate{
		Date:       date(2026, 3, 11), // quarta
		StartTime:  "09:00",
		Preference: pref,
	}
}

func TestScoreHighPreferenceNoConflicts(t *testing.T) {
	score, reasons := Score(wednesdayCandidate(PreferenceHigh), nil, nil, nil, scoreNow)
	if score != 90 {
		t.Fatalf("score = %d, want 90 (50 base + 30 alta + 10 intervalo)", score)
	}
	joined := strings.Join(reasons, "; ")
	if !strings.Contains(joined, "preferência alta") || !strings.Contains(joined, "intervalo") {
		t.Fatalf("reasons missing expected entries: %q", joined)
	}
}

func TestScoreNationalHoliday(t *testing.T) {
	h := &Holiday{Name: "Tiradentes", Category: HolidayNational}
	score, reasons := Score(wednesdayCandidate(PreferenceHigh), nil, nil, h, scoreNow)
	if score != 70 {
		t.Fatalf("score = %d, want 70 (90 - 20 feriado nacional)", score)
	}
	if !strings.Contains(strings.Join(reasons, "; "), "feriado") {
		t.Fatalf("reasons must mention the holiday: %v", reasons)
	}
}

func TestScoreMunicipalHoliday(t *testing.T) {
	h := &Holiday{Name: "Aniversário da cidade", Category: HolidayMunicipal}
	score, _ := Score(wednesdayCandidate(PreferenceHigh), nil, nil, h, scoreNow)
	if score != 80 {
		t.Fatalf("score = %d, want 80 (90 - 10 feriado municipal)", score)
	}
}

func TestScorePreferenceMonotonic(t *testing.T) {
	prev := -1
	for _, pref := range []string{PreferenceLow, PreferenceMedium, PreferenceHigh} {
		score, _ := Score(wednesdayCandidate(pref), nil, nil, nil, scoreNow)
		if score < prev {
			t.Fatalf("raising preference must not lower the score: %s -> %d (prev %d)", pref, score, prev)
		}
		prev = score
	}
}

func TestScoreGapRule(t *testing.T) {
	existing := []Appointment{{Date: date(2026, 3, 9)}} // 2 dias antes da quarta 11/03
	score, _ := Score(wednesdayCandidate(PreferenceLow), nil, existing, nil, scoreNow)
	if score != 50 {
		t.Fatalf("score = %d, want 50 (appointment within ±3 days suppresses gap bonus)", score)
	}
	farAway := []Appointment{{Date: date(2026, 3, 20)}}
	score, _ = Score(wednesdayCandidate(PreferenceLow), nil, farAway, nil, scoreNow)
	if score != 60 {
		t.Fatalf("score = %d, want 60 (gap bonus applies)", score)
	}
}

func TestScoreHistoricalPattern(t *testing.T) {
	history := []Appointment{
		{Date: date(2026, 2, 25)}, // quarta
		{Date: date(2026, 2, 18)}, // quarta
		{Date: date(2026, 2, 10)}, // terça
	}
	score, reasons := Score(wednesdayCandidate(PreferenceLow), history, nil, nil, scoreNow)
	if score != 70 {
		t.Fatalf("score = %d, want 70 (50 + 10 intervalo + 10 padrão)", score)
	}
	if !strings.Contains(strings.Join(reasons, "; "), "padrão") {
		t.Fatalf("reasons must mention the pattern: %v", reasons)
	}
	// Apenas 1 das 3 últimas na mesma quarta: sem bônus.
	history[1] = Appointment{Date: date(2026, 2, 17)} // terça
	score, _ = Score(wednesdayCandidate(PreferenceLow), history, nil, nil, scoreNow)
	if score != 60 {
		t.Fatalf("score = %d, want 60 without majority match", score)
	}
}

func TestScoreShortNotice(t *testing.T) {
	c := SchedulingCandidate{Date: date(2026, 3, 3), StartTime: "10:00", Preference: PreferenceLow}
	score, reasons := Score(c, nil, nil, nil, scoreNow) // amanhã às 10h: dentro de 48h
	if score != 55 {
		t.Fatalf("score = %d, want 55 (50 + 10 intervalo - 5 prazo curto)", score)
	}
	if !strings.Contains(strings.Join(reasons, "; "), "prazo") {
		t.Fatalf("reasons must mention short notice: %v", reasons)
	}
}

func TestScoreClamped(t *testing.T) {
	h := &Holiday{Name: "Natal", Category: HolidayNational}
	existing := []Appointment{{Date: date(2026, 3, 10)}}
	c := SchedulingCandidate{Date: date(2026, 3, 3), StartTime: "10:00"}
	score, _ := Score(c, nil, existing, h, scoreNow)
	if score < 0 || score > 100 {
		t.Fatalf("score %d outside [0,100]", score)
	}
}

func intPtr(n int) *int { return &n }

func TestRankOrderingAndTruncation(t *testing.T) {
	cands := []SchedulingCandidate{
		{Date: date(2026, 3, 12), StartTime: "10:00", Score: intPtr(70)},
		{Date: date(2026, 3, 10), StartTime: "14:00", Score: intPtr(90)},
		{Date: date(2026, 3, 10), StartTime: "09:00", Score: intPtr(90)},
		{Date: date(2026, 3, 11), StartTime: "10:00", Score: intPtr(80)},
		{Date: date(2026, 3, 9), StartTime: "10:00", Score: intPtr(60)},
		{Date: date(2026, 3, 8), StartTime: "10:00", Score: intPtr(50)},
	}
	got := Rank(cands, 0)
	if len(got) != DefaultMaxSuggestions {
		t.Fatalf("expected truncation to %d, got %d", DefaultMaxSuggestions, len(got))
	}
	// Empate em 90: data igual, desempata pelo horário mais cedo.
	if *got[0].Score != 90 || got[0].StartTime != "09:00" {
		t.Fatalf("tie must break by earliest time, got %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if *got[i].Score > *got[i-1].Score {
			t.Fatalf("not sorted by descending score: %v", got)
		}
	}
}

func TestRankStableUnderReordering(t *testing.T) {
	a := []SchedulingCandidate{
		{Date: date(2026, 3, 10), StartTime: "09:00", Score: intPtr(80)},
		{Date: date(2026, 3, 11), StartTime: "10:00", Score: intPtr(70)},
		{Date: date(2026, 3, 12), StartTime: "11:00", Score: intPtr(60)},
	}
	b := []SchedulingCandidate{a[2], a[0], a[1]}
	ra := Rank(a, 10)
	rb := Rank(b, 10)
	for i := range ra {
		if !ra[i].Date.Equal(rb[i].Date) || ra[i].StartTime != rb[i].StartTime {
			t.Fatalf("ranking not stable under input reordering:\n%v\n%v", ra, rb)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	cands := []SchedulingCandidate{
		{Date: date(2026, 3, 12), Score: intPtr(10)},
		{Date: date(2026, 3, 10), Score: intPtr(90)},
	}
	_ = Rank(cands, 5)
	if !cands[0].Date.Equal(date(2026, 3, 12)) {
		t.Fatal("Rank must not reorder the caller's slice")
	}
}
