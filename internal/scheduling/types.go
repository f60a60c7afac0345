package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Preferência do cliente pelo horário (força da janela de disponibilidade).
const (
	PreferenceHigh   = "ALTA"
	PreferenceMedium = "MEDIA"
	PreferenceLow    = "BAIXA"
)

// Recorrência de uma janela de disponibilidade.
const (
	RecurrenceWeekly = "SEMANAL"
	RecurrenceOneOff = "AVULSA"
)

// Status de uma janela de disponibilidade.
const (
	WindowActive    = "ATIVA"
	WindowInactive  = "INATIVA"
	WindowTemporary = "TEMPORARIA"
)

// Status de uma sugestão de agendamento.
const (
	SuggestionPending  = "PENDING"
	SuggestionAccepted = "ACCEPTED"
	SuggestionRejected = "REJECTED"
	SuggestionExpired  = "EXPIRED"
)

// Categoria de feriado.
const (
	HolidayNational  = "NACIONAL"
	HolidayMunicipal = "MUNICIPAL"
)

// Status de compromisso na agenda.
const (
	AppointmentScheduled = "AGENDADO"
	AppointmentConfirmed = "CONFIRMADO"
	AppointmentCompleted = "REALIZADO"
	AppointmentCancelled = "CANCELADO"
)

// DefaultAppointmentType is used when a command names no recognizable type.
const DefaultAppointmentType = "sessão"

// DefaultTimeOfDay is used when a command carries no time token.
const DefaultTimeOfDay = "18:00"

// UnspecifiedClientName is the display name of candidates whose client could not be resolved.
const UnspecifiedClientName = "cliente não especificado"

// AppointmentTypes is the fixed vocabulary the interpreter recognizes.
var AppointmentTypes = []string{
	"sessão", "avaliação", "consulta", "reunião",
	"pagamento", "acompanhamento", "terapia", "workshop",
}

// AvailabilityWindow is a time range in which a client declared availability.
// Weekly windows repeat on DayOfWeek; AVULSA windows happen once on Date.
// ValidFrom/ValidTo bound TEMPORARIA windows; the engine never mutates windows.
type AvailabilityWindow struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	DayOfWeek  int    // 0=domingo .. 6=sábado; ignored when Recurrence=AVULSA
	StartTime  string // "HH:MM"
	EndTime    string // "HH:MM"; invariant StartTime < EndTime
	Preference string
	Recurrence string
	Status     string
	Date       *time.Time // concrete date of an AVULSA window
	ValidFrom  *time.Time
	ValidTo    *time.Time
	Notes      string
}

// SchedulingIntent is the structured result of interpreting a free-text command.
// Non-recurring intents carry SpecificDate; recurring intents carry DaysOfWeek
// (never empty) and PeriodEnd.
type SchedulingIntent struct {
	ClientID        *uuid.UUID
	ClientName      string // resolved display name, or raw unmatched text
	AppointmentType string
	TimeOfDay       string // "HH:MM"
	IsRecurring     bool
	SpecificDate    *time.Time
	DaysOfWeek      []int
	PeriodEnd       *time.Time
}

// SchedulingCandidate is an unconfirmed potential slot. Candidates are value
// objects: preview edits produce new values, never in-place mutation.
// Score is nil for command-sourced candidates (they carry no compatibility score).
type SchedulingCandidate struct {
	Date            time.Time
	StartTime       string
	AppointmentType string
	ClientID        *uuid.UUID
	ClientName      string
	Preference      string // from the source window; empty on command-sourced candidates
	Score           *int
	Reasons         []string
}

// SuggestedAppointment is a persisted candidate awaiting accept/reject.
type SuggestedAppointment struct {
	ID              uuid.UUID
	ClientID        *uuid.UUID
	ClientName      string
	Date            time.Time
	StartTime       string
	AppointmentType string
	Score           *int
	Reasons         []string
	Status          string
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

// Appointment is the engine's view of a booked appointment.
type Appointment struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Date      time.Time
	StartTime string
	EndTime   string
	Type      string
	Status    string
}

// Client is the engine's view of a client record.
type Client struct {
	ID       uuid.UUID
	ManualID string // short human id, e.g. "NB-0042"
	FullName string
	Email    string
}

// Holiday is a public holiday on a given date.
type Holiday struct {
	Name     string
	Category string // NACIONAL | MUNICIPAL
}

// AvailabilityStore reads a client's declared availability windows.
type AvailabilityStore interface {
	ListActiveWindows(ctx context.Context, clientID uuid.UUID) ([]AvailabilityWindow, error)
}

// AppointmentStore reads booked appointments and creates new ones when a
// suggestion is accepted or a parsed command is confirmed.
type AppointmentStore interface {
	// ListAppointments returns non-cancelled appointments in [from, to].
	// clientID nil means all clients.
	ListAppointments(ctx context.Context, clientID *uuid.UUID, from, to time.Time) ([]Appointment, error)
	// ListRecentCompletedSessions returns the client's most recent completed
	// appointments, newest first, at most limit rows.
	ListRecentCompletedSessions(ctx context.Context, clientID uuid.UUID, limit int) ([]Appointment, error)
	CreateAppointment(ctx context.Context, a Appointment) (Appointment, error)
}

// HolidayProvider looks up whether a date is a public holiday.
type HolidayProvider interface {
	Lookup(ctx context.Context, date time.Time) (*Holiday, error)
}

// ClientDirectory resolves a free-text reference to a client: exact manual-id
// match first, then case/diacritic-insensitive substring match in either
// direction. Returns nil when nothing matches.
type ClientDirectory interface {
	FindByIDOrName(ctx context.Context, query string) (*Client, error)
	ByID(ctx context.Context, id uuid.UUID) (*Client, error)
}

// SuggestionStore persists suggested appointments.
type SuggestionStore interface {
	Insert(ctx context.Context, s *SuggestedAppointment) error
	ByID(ctx context.Context, id uuid.UUID) (*SuggestedAppointment, error)
	// UpdateStatusFromPending flips status only when the stored row is still
	// PENDING, and reports whether a row was changed.
	UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status string) (bool, error)
	// ListByClient returns the client's suggestions; when includeExpired is
	// false, rows whose ExpiresAt has passed are excluded (not mutated).
	ListByClient(ctx context.Context, clientID uuid.UUID, includeExpired bool) ([]SuggestedAppointment, error)
}
