package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memAvailability struct {
	windows []AvailabilityWindow
}

func (m *memAvailability) ListActiveWindows(_ context.Context, clientID uuid.UUID) ([]AvailabilityWindow, error) {
	var out []AvailabilityWindow
	for _, w := range m.windows {
		if w.ClientID == clientID && w.Status != WindowInactive {
			out = append(out, w)
		}
	}
	return out, nil
}

type memAppointments struct {
	appointments []Appointment
	completed    []Appointment
	createErr    error
}

func (m *memAppointments) ListAppointments(_ context.Context, clientID *uuid.UUID, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appointments {
		if clientID != nil && a.ClientID != *clientID {
			continue
		}
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAppointments) ListRecentCompletedSessions(_ context.Context, _ uuid.UUID, limit int) ([]Appointment, error) {
	if len(m.completed) > limit {
		return m.completed[:limit], nil
	}
	return m.completed, nil
}

func (m *memAppointments) CreateAppointment(_ context.Context, a Appointment) (Appointment, error) {
	if m.createErr != nil {
		return Appointment{}, m.createErr
	}
	a.ID = uuid.New()
	m.appointments = append(m.appointments, a)
	return a, nil
}

type memHolidays struct {
	table map[string]Holiday
}

func (m *memHolidays) Lookup(_ context.Context, d time.Time) (*Holiday, error) {
	if h, ok := m.table[d.Format("2006-01-02")]; ok {
		return &h, nil
	}
	return nil, nil
}

type memSuggestions struct {
	rows map[uuid.UUID]*SuggestedAppointment
}

func newMemSuggestions() *memSuggestions {
	return &memSuggestions{rows: make(map[uuid.UUID]*SuggestedAppointment)}
}

func (m *memSuggestions) Insert(_ context.Context, s *SuggestedAppointment) error {
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSuggestions) ByID(_ context.Context, id uuid.UUID) (*SuggestedAppointment, error) {
	if s, ok := m.rows[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *memSuggestions) UpdateStatusFromPending(_ context.Context, id uuid.UUID, status string) (bool, error) {
	s, ok := m.rows[id]
	if !ok || s.Status != SuggestionPending {
		return false, nil
	}
	s.Status = status
	return true, nil
}

func (m *memSuggestions) ListByClient(_ context.Context, clientID uuid.UUID, includeExpired bool) ([]SuggestedAppointment, error) {
	var out []SuggestedAppointment
	for _, s := range m.rows {
		if s.ClientID == nil || *s.ClientID != clientID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func newTestEngine(t *testing.T) (*Engine, *memAppointments, *memSuggestions, Client) {
	t.Helper()
	ana := Client{ID: uuid.New(), ManualID: "NB-0001", FullName: "Ana Beatriz Costa"}
	appts := &memAppointments{}
	suggs := newMemSuggestions()
	e := &Engine{
		Availability: &memAvailability{windows: []AvailabilityWindow{{
			ID:         uuid.New(),
			ClientID:   ana.ID,
			DayOfWeek:  3, // quarta
			StartTime:  "09:00",
			EndTime:    "10:00",
			Preference: PreferenceHigh,
			Recurrence: RecurrenceWeekly,
			Status:     WindowActive,
		}}},
		Appointments: appts,
		Holidays:     &memHolidays{},
		Clients:      &fakeDirectory{clients: []Client{ana}},
		Suggestions:  suggs,
		Now:          func() time.Time { return scoreNow },
	}
	return e, appts, suggs, ana
}

func TestSuggestForClientPipeline(t *testing.T) {
	e, _, suggs, ana := newTestEngine(t)
	out, err := e.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected at least one suggestion")
	}
	if len(out) > DefaultMaxSuggestions {
		t.Fatalf("expected at most %d suggestions, got %d", DefaultMaxSuggestions, len(out))
	}
	for _, s := range out {
		if s.Status != SuggestionPending {
			t.Fatalf("new suggestion must be pending, got %s", s.Status)
		}
		if s.Score == nil {
			t.Fatal("availability-sourced suggestion must carry a score")
		}
		if s.Date.Weekday() != time.Wednesday {
			t.Fatalf("window is quarta, got %v", s.Date.Weekday())
		}
		if _, ok := suggs.rows[s.ID]; !ok {
			t.Fatal("suggestion not persisted")
		}
	}
	// Sem conflitos nem feriados: 50 + 30 (alta) + 10 (intervalo) = 90.
	if *out[0].Score != 90 {
		t.Fatalf("top score = %d, want 90", *out[0].Score)
	}
}

func TestSuggestForClientDeterministic(t *testing.T) {
	e1, _, _, ana := newTestEngine(t)
	a, err := e1.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	e2 := *e1
	e2.Suggestions = newMemSuggestions()
	b, err := e2.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("pipeline not deterministic: %d vs %d suggestions", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].StartTime != b[i].StartTime || *a[i].Score != *b[i].Score {
			t.Fatalf("pipeline not deterministic at %d:\n%+v\n%+v", i, a[i], b[i])
		}
	}
}

func TestCreateSuggestionRequiresScore(t *testing.T) {
	e, _, _, ana := newTestEngine(t)
	id := ana.ID
	c := SchedulingCandidate{Date: date(2026, 3, 11), StartTime: "09:00", ClientID: &id}
	if _, err := e.CreateSuggestion(context.Background(), c, true); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for availability candidate without score, got %v", err)
	}
	// Candidato vindo de comando não exige pontuação.
	if _, err := e.CreateSuggestion(context.Background(), c, false); err != nil {
		t.Fatalf("command candidate without score must be accepted: %v", err)
	}
}

func TestAcceptCreatesAppointmentOnce(t *testing.T) {
	e, appts, _, ana := newTestEngine(t)
	out, err := e.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	id := out[0].ID

	a, err := e.Accept(context.Background(), id)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if a.ClientID != ana.ID || a.Status != AppointmentScheduled {
		t.Fatalf("unexpected appointment: %+v", a)
	}
	if a.EndTime != "09:50" {
		t.Fatalf("endTime = %q, want start + 50min", a.EndTime)
	}
	if len(appts.appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts.appointments))
	}

	// Segunda chamada: estado não é mais pendente.
	if _, err := e.Accept(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second accept must fail with ErrInvalidState, got %v", err)
	}
	if len(appts.appointments) != 1 {
		t.Fatalf("second accept must not create another appointment, got %d", len(appts.appointments))
	}
}

func TestAcceptOnRejectedFailsAndLeavesRecordUnchanged(t *testing.T) {
	e, appts, suggs, ana := newTestEngine(t)
	out, err := e.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	id := out[0].ID
	if err := e.Reject(context.Background(), id); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := e.Accept(context.Background(), id); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept on rejected must fail with ErrInvalidState, got %v", err)
	}
	if suggs.rows[id].Status != SuggestionRejected {
		t.Fatalf("record must stay rejected, got %s", suggs.rows[id].Status)
	}
	if len(appts.appointments) != 0 {
		t.Fatal("no appointment may be created for a rejected suggestion")
	}
}

func TestAcceptFailureLeavesSuggestionPending(t *testing.T) {
	e, appts, suggs, ana := newTestEngine(t)
	out, err := e.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	id := out[0].ID
	appts.createErr = fmt.Errorf("store indisponível")
	if _, err := e.Accept(context.Background(), id); err == nil {
		t.Fatal("expected error from appointment store")
	}
	if suggs.rows[id].Status != SuggestionPending {
		t.Fatalf("failed accept must leave suggestion pending, got %s", suggs.rows[id].Status)
	}
	// A falha é transitória: repetir depois do conserto funciona.
	appts.createErr = nil
	if _, err := e.Accept(context.Background(), id); err != nil {
		t.Fatalf("retry after store recovery: %v", err)
	}
}

func TestAcceptUnknownID(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	if _, err := e.Accept(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPendingFiltersExpiredLazily(t *testing.T) {
	e, _, suggs, ana := newTestEngine(t)
	out, err := e.SuggestForClient(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("SuggestForClient: %v", err)
	}
	pending, err := e.ListPending(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != len(out) {
		t.Fatalf("expected %d pending, got %d", len(out), len(pending))
	}

	// Avança o relógio além da expiração: a listagem exclui sem mutar o storage.
	e.Now = func() time.Time { return scoreNow.Add(time.Duration(DefaultExpiryHours+1) * time.Hour) }
	pending, err = e.ListPending(context.Background(), ana.ID)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expired suggestions must be filtered, got %d", len(pending))
	}
	for _, s := range suggs.rows {
		if s.Status != SuggestionPending {
			t.Fatalf("lazy filtering must not rewrite stored status, got %s", s.Status)
		}
	}

	// Aceitar uma sugestão expirada também falha.
	if _, err := e.Accept(context.Background(), out[0].ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept on expired must fail with ErrInvalidState, got %v", err)
	}
}

func TestPreviewCommandSpecificDate(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	intent, cands, err := e.PreviewCommand(context.Background(), "Reunião amanhã às 10:00 da manhã")
	if err != nil {
		t.Fatalf("PreviewCommand: %v", err)
	}
	if intent.IsRecurring {
		t.Fatal("expected non-recurring intent")
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Score != nil {
		t.Fatal("command-sourced candidates carry no score")
	}
	if cands[0].ClientName != UnspecifiedClientName {
		t.Fatalf("clientName = %q, want %q", cands[0].ClientName, UnspecifiedClientName)
	}
}

func TestPreviewCommandRecurringAndConfirm(t *testing.T) {
	e, appts, _, ana := newTestEngine(t)
	intent, cands, err := e.PreviewCommand(context.Background(), "Sessão toda quarta às 18h até março para Ana Beatriz")
	if err != nil {
		t.Fatalf("PreviewCommand: %v", err)
	}
	if !intent.IsRecurring || intent.ClientID == nil {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if len(cands) == 0 {
		t.Fatal("expected candidates up to period end")
	}
	created, err := e.ConfirmCandidates(context.Background(), cands)
	if err != nil {
		t.Fatalf("ConfirmCandidates: %v", err)
	}
	if len(created) != len(cands) {
		t.Fatalf("expected %d appointments, got %d", len(cands), len(created))
	}
	if appts.appointments[0].ClientID != ana.ID {
		t.Fatalf("appointment for wrong client: %+v", appts.appointments[0])
	}
}
