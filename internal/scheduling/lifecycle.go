package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiryHours is how long a suggestion stays pending before it expires.
const DefaultExpiryHours = 72

// DefaultSessionMinutes is the appointment duration used when a suggestion is
// accepted or a command is confirmed.
const DefaultSessionMinutes = 50

// Engine ties the pure pieces (expansion, interpretation, generation, scoring)
// to the external stores, and owns the suggestion lifecycle. All tunables fall
// back to package defaults when zero, so a bare Engine with stores is usable.
type Engine struct {
	Availability AvailabilityStore
	Appointments AppointmentStore
	Holidays     HolidayProvider
	Clients      ClientDirectory
	Suggestions  SuggestionStore

	Now            func() time.Time
	HorizonDays    int
	MaxSuggestions int
	ExpiryHours    int
	SessionMinutes int
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) horizonDays() int {
	if e.HorizonDays > 0 {
		return e.HorizonDays
	}
	return DefaultHorizonDays
}

func (e *Engine) expiry() time.Duration {
	h := e.ExpiryHours
	if h <= 0 {
		h = DefaultExpiryHours
	}
	return time.Duration(h) * time.Hour
}

func (e *Engine) sessionMinutes() int {
	if e.SessionMinutes > 0 {
		return e.SessionMinutes
	}
	return DefaultSessionMinutes
}

// SuggestForClient runs the full availability pipeline for one client: expands
// the client's active windows over the horizon, generates candidates, scores
// and ranks them, and persists the top ones as pending suggestions. Output
// ordering is deterministic for identical inputs.
func (e *Engine) SuggestForClient(ctx context.Context, clientID uuid.UUID) ([]SuggestedAppointment, error) {
	now := e.now()
	horizonStart := DateOnly(now).AddDate(0, 0, 1)
	horizonEnd := DateOnly(now).AddDate(0, 0, e.horizonDays())

	client, err := e.Clients.ByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: cliente %s", ErrNotFound, clientID)
	}
	windows, err := e.Availability.ListActiveWindows(ctx, clientID)
	if err != nil {
		return nil, err
	}
	// ±3 dias de folga para a regra de intervalo na agenda.
	existing, err := e.Appointments.ListAppointments(ctx, &clientID, horizonStart.AddDate(0, 0, -3), horizonEnd.AddDate(0, 0, 3))
	if err != nil {
		return nil, err
	}
	history, err := e.Appointments.ListRecentCompletedSessions(ctx, clientID, 3)
	if err != nil {
		return nil, err
	}

	var cands []SchedulingCandidate
	for _, w := range windows {
		dates := ExpandWindow(w, horizonStart, horizonEnd)
		for _, c := range GenerateFromWindow(w, client, dates) {
			holiday, err := e.Holidays.Lookup(ctx, c.Date)
			if err != nil {
				return nil, err
			}
			score, reasons := Score(c, history, existing, holiday, now)
			c.Score = &score
			c.Reasons = reasons
			cands = append(cands, c)
		}
	}

	ranked := Rank(cands, e.MaxSuggestions)
	out := make([]SuggestedAppointment, 0, len(ranked))
	for _, c := range ranked {
		s, err := e.CreateSuggestion(ctx, c, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, nil
}

// PreviewCommand interprets a free-text command and expands it into unscored
// candidates for the operator to review. Nothing is persisted and no conflict
// check happens here: confirmation is the caller's call.
func (e *Engine) PreviewCommand(ctx context.Context, text string) (*SchedulingIntent, []SchedulingCandidate, error) {
	now := e.now()
	intent, err := Interpret(ctx, text, e.Clients, now)
	if err != nil {
		return nil, nil, err
	}
	horizonStart := DateOnly(now)
	horizonEnd := horizonStart.AddDate(0, 0, e.horizonDays())
	if intent.SpecificDate != nil && intent.SpecificDate.After(horizonEnd) {
		horizonEnd = DateOnly(*intent.SpecificDate)
	}
	if intent.PeriodEnd != nil && intent.PeriodEnd.After(horizonEnd) {
		horizonEnd = DateOnly(*intent.PeriodEnd)
	}
	dates := ExpandIntent(*intent, horizonStart, horizonEnd)
	return intent, GenerateFromIntent(*intent, dates), nil
}

// ConfirmCandidates books one appointment per candidate. Used when the
// operator confirms a command preview (possibly after editing it).
func (e *Engine) ConfirmCandidates(ctx context.Context, cands []SchedulingCandidate) ([]Appointment, error) {
	out := make([]Appointment, 0, len(cands))
	for _, c := range cands {
		if c.ClientID == nil {
			return out, fmt.Errorf("%w: candidato sem cliente resolvido", ErrValidation)
		}
		a, err := e.Appointments.CreateAppointment(ctx, Appointment{
			ClientID:  *c.ClientID,
			Date:      c.Date,
			StartTime: c.StartTime,
			EndTime:   addMinutes(c.StartTime, e.sessionMinutes()),
			Type:      c.AppointmentType,
			Status:    AppointmentScheduled,
		})
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CreateSuggestion persists a candidate as a pending suggestion.
// Availability-sourced candidates must carry a score.
func (e *Engine) CreateSuggestion(ctx context.Context, c SchedulingCandidate, fromAvailability bool) (*SuggestedAppointment, error) {
	if fromAvailability && c.Score == nil {
		return nil, fmt.Errorf("%w: candidato de disponibilidade sem pontuação", ErrValidation)
	}
	now := e.now()
	name := c.ClientName
	if name == "" {
		name = UnspecifiedClientName
	}
	s := &SuggestedAppointment{
		ID:              uuid.New(),
		ClientID:        c.ClientID,
		ClientName:      name,
		Date:            c.Date,
		StartTime:       c.StartTime,
		AppointmentType: c.AppointmentType,
		Score:           c.Score,
		Reasons:         c.Reasons,
		Status:          SuggestionPending,
		ExpiresAt:       now.Add(e.expiry()),
		CreatedAt:       now,
	}
	if err := e.Suggestions.Insert(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Accept transitions a pending suggestion to accepted, materializing a real
// appointment first. A failed appointment creation leaves the suggestion
// pending; the status only flips after the booking exists.
func (e *Engine) Accept(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	s, err := e.pendingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.ClientID == nil {
		return nil, fmt.Errorf("%w: sugestão sem cliente resolvido", ErrValidation)
	}
	a, err := e.Appointments.CreateAppointment(ctx, Appointment{
		ClientID:  *s.ClientID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   addMinutes(s.StartTime, e.sessionMinutes()),
		Type:      s.AppointmentType,
		Status:    AppointmentScheduled,
	})
	if err != nil {
		return nil, err
	}
	ok, err := e.Suggestions.UpdateStatusFromPending(ctx, id, SuggestionAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: sugestão %s", ErrInvalidState, id)
	}
	return &a, nil
}

// Reject transitions a pending suggestion to rejected.
func (e *Engine) Reject(ctx context.Context, id uuid.UUID) error {
	if _, err := e.pendingByID(ctx, id); err != nil {
		return err
	}
	ok, err := e.Suggestions.UpdateStatusFromPending(ctx, id, SuggestionRejected)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: sugestão %s", ErrInvalidState, id)
	}
	return nil
}

// ListPending returns the client's pending, unexpired suggestions. Expiry is
// evaluated lazily here; stored rows are never mutated on read.
func (e *Engine) ListPending(ctx context.Context, clientID uuid.UUID) ([]SuggestedAppointment, error) {
	list, err := e.Suggestions.ListByClient(ctx, clientID, false)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]SuggestedAppointment, 0, len(list))
	for _, s := range list {
		if s.Status != SuggestionPending || !s.ExpiresAt.After(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) pendingByID(ctx context.Context, id uuid.UUID) (*SuggestedAppointment, error) {
	s, err := e.Suggestions.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.Status != SuggestionPending {
		return nil, fmt.Errorf("%w: status atual %s", ErrInvalidState, s.Status)
	}
	if !s.ExpiresAt.After(e.now()) {
		return nil, fmt.Errorf("%w: sugestão expirada em %s", ErrInvalidState, s.ExpiresAt.Format("02/01/2006 15:04"))
	}
	return s, nil
}

// addMinutes returns "HH:MM" shifted forward by n minutes.
func addMinutes(hhmm string, n int) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return t.Add(time.Duration(n) * time.Minute).Format("15:04")
}
