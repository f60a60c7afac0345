package scheduling

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decompõe acentos (NFD) e remove as marcas combinantes.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics ("Sessão" -> "sessao"). All command
// matching runs over folded text.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// weekdayTokens maps folded weekday names and abbreviations to time.Weekday values.
var weekdayTokens = map[string]int{
	"domingo": 0, "dom": 0,
	"segunda": 1, "segunda-feira": 1, "seg": 1,
	"terca": 2, "terca-feira": 2, "ter": 2,
	"quarta": 3, "quarta-feira": 3, "qua": 3,
	"quinta": 4, "quinta-feira": 4, "qui": 4,
	"sexta": 5, "sexta-feira": 5, "sex": 5,
	"sabado": 6, "sab": 6,
}

var monthTokens = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "marco": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

// typeTokens maps folded vocabulary (including plurals) to the canonical type.
var typeTokens = map[string]string{
	"sessao": "sessão", "sessoes": "sessão",
	"avaliacao": "avaliação", "avaliacoes": "avaliação",
	"consulta": "consulta", "consultas": "consulta",
	"reuniao": "reunião", "reunioes": "reunião",
	"pagamento": "pagamento", "pagamentos": "pagamento",
	"acompanhamento": "acompanhamento",
	"terapia":        "terapia", "terapias": "terapia",
	"workshop": "workshop", "workshops": "workshop",
}

var (
	tomorrowRe    = regexp.MustCompile(`\bamanha\b`)
	todayRe       = regexp.MustCompile(`\bhoje\b`)
	nextWeekdayRe = regexp.MustCompile(`\bprox\w*[\s-]+(domingo|segunda|terca|quarta|quinta|sexta|sabado)`)
	dayOfMonthRe  = regexp.MustCompile(`\bdia\s+(\d{1,2})\b`)
	thisWeekRe    = regexp.MustCompile(`\b(?:essa|esta|nessa|nesta)\s+semana\b`)
	timeColonRe   = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	timeHourRe    = regexp.MustCompile(`\b(\d{1,2})h(\d{2})?\b`)
	timeAtRe      = regexp.MustCompile(`\bas\s+(\d{1,2})\b`)
	untilRe       = regexp.MustCompile(`\bate\s+(?:o\s+)?(?:fim\s+de\s+|final\s+de\s+)?([a-z]+)`)
)

// clientPreps are the prepositions that can introduce a trailing client reference.
var clientPreps = map[string]bool{
	"para": true, "pra": true, "pro": true, "com": true,
	"de": true, "da": true, "do": true,
}

// reservedTokens never belong to a client name.
var reservedTokens = map[string]bool{
	"amanha": true, "hoje": true, "manha": true, "tarde": true, "noite": true,
	"dia": true, "semana": true, "essa": true, "esta": true, "nessa": true,
	"nesta": true, "as": true, "a": true, "o": true, "e": true, "ate": true,
	"fim": true, "final": true, "proxima": true, "proximo": true, "h": true,
	"horas": true, "hora": true,
}

// Interpret parses a free-text scheduling command (constrained Portuguese
// grammar) into a SchedulingIntent, resolving the client reference against dir.
// Matching is case-insensitive and diacritic-tolerant. Fails with ErrParse when
// no type, time, date or weekday signal is present, or when a recurring command
// names zero valid weekdays. Idempotent for the same text and now.
func Interpret(ctx context.Context, text string, dir ClientDirectory, now time.Time) (*SchedulingIntent, error) {
	folded := Fold(text)

	specific, err := matchRelativeDate(folded, now)
	if err != nil {
		return nil, err
	}
	typ := matchType(folded)
	timeOfDay, hasTime := matchTime(folded)
	var days []int
	if specific == nil {
		// Explicit date wins: weekday mentions are only scanned when no
		// relative/explicit date matched.
		days = matchWeekdays(folded)
	}

	if typ == "" && !hasTime && specific == nil && len(days) == 0 {
		return nil, fmt.Errorf("%w: nenhum tipo, data ou horário reconhecido, seja mais específico", ErrParse)
	}
	if specific == nil && len(days) == 0 {
		return nil, fmt.Errorf("%w: comando recorrente sem dias da semana válidos", ErrParse)
	}

	if typ == "" {
		typ = DefaultAppointmentType
	}
	if !hasTime {
		timeOfDay = DefaultTimeOfDay
	}

	intent := &SchedulingIntent{
		AppointmentType: typ,
		TimeOfDay:       timeOfDay,
		ClientName:      UnspecifiedClientName,
	}
	if specific != nil {
		intent.SpecificDate = specific
	} else {
		intent.IsRecurring = true
		intent.DaysOfWeek = days
		end := matchPeriodEnd(folded, now)
		intent.PeriodEnd = &end
	}

	if fragment := matchClientFragment(text); fragment != "" {
		var c *Client
		if dir != nil {
			c, err = dir.FindByIDOrName(ctx, fragment)
			if err != nil {
				return nil, err
			}
		}
		if c != nil {
			id := c.ID
			intent.ClientID = &id
			intent.ClientName = c.FullName
		} else {
			intent.ClientName = fragment
		}
	}
	return intent, nil
}

// matchRelativeDate resolves, in priority order: amanhã/hoje, próxima <dia>,
// dia <N>, essa semana <dia>. Returns nil when no date signal matches.
func matchRelativeDate(folded string, now time.Time) (*time.Time, error) {
	today := DateOnly(now)
	if tomorrowRe.MatchString(folded) {
		d := today.AddDate(0, 0, 1)
		return &d, nil
	}
	if todayRe.MatchString(folded) {
		return &today, nil
	}
	if m := nextWeekdayRe.FindStringSubmatch(folded); m != nil {
		target := weekdayTokens[m[1]]
		delta := (target - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			// "próxima segunda" em uma segunda é a da semana seguinte, nunca hoje.
			delta = 7
		}
		d := today.AddDate(0, 0, delta)
		return &d, nil
	}
	if m := dayOfMonthRe.FindStringSubmatch(folded); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 {
			return nil, fmt.Errorf("%w: dia do mês inválido: %d", ErrParse, n)
		}
		year, month := today.Year(), today.Month()
		if n < today.Day() {
			// Já passou neste mês: rola para o próximo.
			month++
			if month > time.December {
				month = time.January
				year++
			}
		}
		if n > daysInMonth(year, month) {
			return nil, fmt.Errorf("%w: dia %d não existe em %s", ErrParse, n, strings.ToLower(month.String()))
		}
		d := time.Date(year, month, n, 0, 0, 0, 0, now.Location())
		return &d, nil
	}
	if thisWeekRe.MatchString(folded) {
		for _, tok := range tokenize(folded) {
			if wd, ok := weekdayTokens[tok]; ok {
				d := today.AddDate(0, 0, wd-int(today.Weekday()))
				return &d, nil
			}
		}
	}
	return nil, nil
}

// matchType returns the canonical type of the first vocabulary word in the
// text, or "" when none appears.
func matchType(folded string) string {
	for _, tok := range tokenize(folded) {
		if canonical, ok := typeTokens[tok]; ok {
			return canonical
		}
	}
	return ""
}

// matchTime extracts the time-of-day token ("10:00", "18h", "às 9") and applies
// the manhã/tarde/noite qualifier to shift 1–12h values into the 24h bucket.
func matchTime(folded string) (string, bool) {
	var hour, minute int
	found := false
	if m := timeColonRe.FindStringSubmatch(folded); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		found = true
	} else if m := timeHourRe.FindStringSubmatch(folded); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		found = true
	} else if m := timeAtRe.FindStringSubmatch(folded); m != nil {
		hour, _ = strconv.Atoi(m[1])
		found = true
	}
	if !found || hour > 23 || minute > 59 {
		return "", false
	}
	// Qualificador por token inteiro: "amanha" contém "manha" como substring e
	// não pode disparar o período da manhã.
	switch {
	case hasToken(folded, "manha"):
		if hour < 6 {
			hour += 6
		}
	case hasToken(folded, "tarde"):
		if hour < 12 {
			hour += 12
		}
	case hasToken(folded, "noite"):
		if hour < 12 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func hasToken(folded, want string) bool {
	for _, tok := range tokenize(folded) {
		if tok == want {
			return true
		}
	}
	return false
}

func matchWeekdays(folded string) []int {
	seen := map[int]bool{}
	var days []int
	for _, tok := range tokenize(folded) {
		if wd, ok := weekdayTokens[tok]; ok && !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	return days
}

// matchPeriodEnd resolves "até <mês>" to the last day of that month in the
// current year; defaults to the end of the current month.
func matchPeriodEnd(folded string, now time.Time) time.Time {
	if m := untilRe.FindStringSubmatch(folded); m != nil {
		if month, ok := monthTokens[m[1]]; ok {
			return endOfMonth(now.Year(), month, now.Location())
		}
	}
	return endOfMonth(now.Year(), now.Month(), now.Location())
}

// matchClientFragment extracts a trailing "para/com/de <nome>" fragment from
// the original (unfolded) text, so the display name keeps its casing. Returns
// "" when no plausible fragment exists.
func matchClientFragment(text string) string {
	words := strings.Fields(text)
	for i := len(words) - 1; i >= 0; i-- {
		if !clientPreps[Fold(words[i])] {
			continue
		}
		name := words[i+1:]
		if len(name) == 0 {
			continue
		}
		ok := true
		for _, w := range name {
			f := strings.Trim(Fold(w), ".,;!?")
			if f == "" || reservedTokens[f] || clientPreps[f] || isNumericToken(f) {
				ok = false
				break
			}
			if _, isDay := weekdayTokens[f]; isDay {
				ok = false
				break
			}
			if _, isMonth := monthTokens[f]; isMonth {
				ok = false
				break
			}
			if _, isType := typeTokens[f]; isType {
				ok = false
				break
			}
		}
		if ok {
			return strings.Trim(strings.Join(name, " "), ".,;!? ")
		}
	}
	return ""
}

func tokenize(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

var numericTokenRe = regexp.MustCompile(`^\d+([:h]\d*)?$`)

// isNumericToken matches bare numbers and time-like tokens ("15", "10:00",
// "18h"), which never belong to a client name. Alphanumeric manual ids
// ("NB-0042") are allowed through.
func isNumericToken(s string) bool {
	return numericTokenRe.MatchString(s)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfMonth(year int, month time.Month, loc *time.Location) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
}
