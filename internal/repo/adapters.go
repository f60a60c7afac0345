package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

// Stores is the gorm-backed implementation of the scheduling engine's read
// interfaces. Suggestions live on their own type: SuggestionStore.ByID and
// ClientDirectory.ByID would collide on one receiver.
type Stores struct {
	DB *gorm.DB
}

// SuggestionRepo is the gorm-backed scheduling.SuggestionStore.
type SuggestionRepo struct {
	DB *gorm.DB
}

var (
	_ scheduling.AvailabilityStore = (*Stores)(nil)
	_ scheduling.AppointmentStore  = (*Stores)(nil)
	_ scheduling.HolidayProvider   = (*Stores)(nil)
	_ scheduling.ClientDirectory   = (*Stores)(nil)
	_ scheduling.SuggestionStore   = (*SuggestionRepo)(nil)
)

func (s *Stores) ListActiveWindows(ctx context.Context, clientID uuid.UUID) ([]scheduling.AvailabilityWindow, error) {
	rows, err := ListActiveWindowsByClient(ctx, s.DB, clientID)
	if err != nil {
		return nil, err
	}
	out := make([]scheduling.AvailabilityWindow, 0, len(rows))
	for _, r := range rows {
		w := scheduling.AvailabilityWindow{
			ID:         r.ID,
			ClientID:   r.ClientID,
			DayOfWeek:  r.DayOfWeek,
			StartTime:  TimeStringToHHMM(r.StartTime),
			EndTime:    TimeStringToHHMM(r.EndTime),
			Preference: r.Preference,
			Recurrence: r.Recurrence,
			Status:     r.Status,
			Date:       r.WindowDate,
			ValidFrom:  r.ValidFrom,
			ValidTo:    r.ValidTo,
		}
		if r.Notes != nil {
			w.Notes = *r.Notes
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *Stores) ListAppointments(ctx context.Context, clientID *uuid.UUID, from, to time.Time) ([]scheduling.Appointment, error) {
	rows, err := ListAppointmentsByDateRange(ctx, s.DB, clientID, from, to)
	if err != nil {
		return nil, err
	}
	return appointmentsToEngine(rows), nil
}

func (s *Stores) ListRecentCompletedSessions(ctx context.Context, clientID uuid.UUID, limit int) ([]scheduling.Appointment, error) {
	rows, err := ListRecentCompletedSessions(ctx, s.DB, clientID, limit)
	if err != nil {
		return nil, err
	}
	return appointmentsToEngine(rows), nil
}

func (s *Stores) CreateAppointment(ctx context.Context, a scheduling.Appointment) (scheduling.Appointment, error) {
	id, err := CreateAppointment(ctx, s.DB, a.ClientID, a.Date, a.StartTime, a.EndTime, a.Type, a.Status, "")
	if err != nil {
		return scheduling.Appointment{}, err
	}
	a.ID = id
	return a, nil
}

func (s *Stores) Lookup(ctx context.Context, date time.Time) (*scheduling.Holiday, error) {
	h, err := HolidayOnDate(ctx, s.DB, date)
	if err != nil || h == nil {
		return nil, err
	}
	return &scheduling.Holiday{Name: h.Name, Category: h.Category}, nil
}

func (s *Stores) FindByIDOrName(ctx context.Context, query string) (*scheduling.Client, error) {
	c, err := FindClientByIDOrName(ctx, s.DB, query)
	if err != nil || c == nil {
		return nil, err
	}
	return clientToEngine(c), nil
}

func (s *Stores) ByID(ctx context.Context, id uuid.UUID) (*scheduling.Client, error) {
	c, err := ClientByID(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return clientToEngine(c), nil
}

func (s *SuggestionRepo) Insert(ctx context.Context, sug *scheduling.SuggestedAppointment) error {
	reasons, err := json.Marshal(sug.Reasons)
	if err != nil {
		return err
	}
	return InsertSuggestion(ctx, s.DB, &Suggestion{
		ID:              sug.ID,
		ClientID:        sug.ClientID,
		ClientName:      sug.ClientName,
		SuggestionDate:  sug.Date,
		StartTime:       sug.StartTime,
		AppointmentType: sug.AppointmentType,
		Score:           sug.Score,
		Reasons:         reasons,
		Status:          sug.Status,
		ExpiresAt:       sug.ExpiresAt,
		CreatedAt:       sug.CreatedAt,
	})
}

func (s *SuggestionRepo) ByID(ctx context.Context, id uuid.UUID) (*scheduling.SuggestedAppointment, error) {
	row, err := SuggestionByID(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return suggestionToEngine(row), nil
}

func (s *SuggestionRepo) UpdateStatusFromPending(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	return UpdateSuggestionStatusFromPending(ctx, s.DB, id, status)
}

func (s *SuggestionRepo) ListByClient(ctx context.Context, clientID uuid.UUID, includeExpired bool) ([]scheduling.SuggestedAppointment, error) {
	rows, err := ListSuggestionsByClient(ctx, s.DB, clientID, includeExpired)
	if err != nil {
		return nil, err
	}
	out := make([]scheduling.SuggestedAppointment, 0, len(rows))
	for i := range rows {
		out = append(out, *suggestionToEngine(&rows[i]))
	}
	return out, nil
}

func appointmentsToEngine(rows []Appointment) []scheduling.Appointment {
	out := make([]scheduling.Appointment, 0, len(rows))
	for _, r := range rows {
		out = append(out, scheduling.Appointment{
			ID:        r.ID,
			ClientID:  r.ClientID,
			Date:      r.AppointmentDate,
			StartTime: TimeStringToHHMM(r.StartTime),
			EndTime:   TimeStringToHHMM(r.EndTime),
			Type:      r.Type,
			Status:    r.Status,
		})
	}
	return out
}

func clientToEngine(c *Client) *scheduling.Client {
	out := &scheduling.Client{ID: c.ID, ManualID: c.ManualID, FullName: c.FullName}
	if c.Email != nil {
		out.Email = *c.Email
	}
	return out
}

func suggestionToEngine(r *Suggestion) *scheduling.SuggestedAppointment {
	var reasons []string
	if len(r.Reasons) > 0 {
		_ = json.Unmarshal(r.Reasons, &reasons)
	}
	return &scheduling.SuggestedAppointment{
		ID:              r.ID,
		ClientID:        r.ClientID,
		ClientName:      r.ClientName,
		Date:            r.SuggestionDate,
		StartTime:       TimeStringToHHMM(r.StartTime),
		AppointmentType: r.AppointmentType,
		Score:           r.Score,
		Reasons:         reasons,
		Status:          r.Status,
		ExpiresAt:       r.ExpiresAt,
		CreatedAt:       r.CreatedAt,
	}
}
