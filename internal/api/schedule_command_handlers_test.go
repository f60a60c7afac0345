package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

type stubDirectory struct {
	clients []scheduling.Client
}

func (d *stubDirectory) FindByIDOrName(_ context.Context, query string) (*scheduling.Client, error) {
	q := scheduling.Fold(query)
	for i := range d.clients {
		if scheduling.Fold(d.clients[i].ManualID) == q {
			return &d.clients[i], nil
		}
	}
	for i := range d.clients {
		name := scheduling.Fold(d.clients[i].FullName)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return &d.clients[i], nil
		}
	}
	return nil, nil
}

func (d *stubDirectory) ByID(_ context.Context, id uuid.UUID) (*scheduling.Client, error) {
	for i := range d.clients {
		if d.clients[i].ID == id {
			return &d.clients[i], nil
		}
	}
	return nil, nil
}

type stubAppointments struct {
	created []scheduling.Appointment
}

func (s *stubAppointments) ListAppointments(_ context.Context, _ *uuid.UUID, _, _ time.Time) ([]scheduling.Appointment, error) {
	return nil, nil
}

func (s *stubAppointments) ListRecentCompletedSessions(_ context.Context, _ uuid.UUID, _ int) ([]scheduling.Appointment, error) {
	return nil, nil
}

func (s *stubAppointments) CreateAppointment(_ context.Context, a scheduling.Appointment) (scheduling.Appointment, error) {
	a.ID = uuid.New()
	s.created = append(s.created, a)
	return a, nil
}

var ana = scheduling.Client{ID: uuid.New(), ManualID: "NB-0001", FullName: "Ana Beatriz Costa"}

func newCommandHandler() (*Handler, *stubAppointments) {
	appts := &stubAppointments{}
	return &Handler{
		Engine: &scheduling.Engine{
			Clients:      &stubDirectory{clients: []scheduling.Client{ana}},
			Appointments: appts,
			Now: func() time.Time {
				return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // segunda-feira
			},
		},
	}, appts
}

func adminRequest(method, target string, body []byte) *http.Request {
	r := httptest.NewRequest(method, target, bytes.NewReader(body))
	claims := &auth.Claims{UserID: uuid.NewString(), Role: auth.RoleAdmin}
	return r.WithContext(auth.WithClaims(r.Context(), claims))
}

func TestPostScheduleCommandRecurring(t *testing.T) {
	h, _ := newCommandHandler()
	body, _ := json.Marshal(map[string]string{"text": "Sessão toda quarta às 18h até março para Ana Beatriz"})
	w := httptest.NewRecorder()
	h.PostScheduleCommand(w, adminRequest(http.MethodPost, "/api/schedule/command", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Intent struct {
			ClientID        string `json:"client_id"`
			ClientName      string `json:"client_name"`
			AppointmentType string `json:"appointment_type"`
			TimeOfDay       string `json:"time_of_day"`
			IsRecurring     bool   `json:"is_recurring"`
		} `json:"intent"`
		Candidates []candidateJSON `json:"candidates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Intent.IsRecurring {
		t.Error("intent should be recurring")
	}
	if resp.Intent.ClientID != ana.ID.String() {
		t.Errorf("client_id = %q, want %q", resp.Intent.ClientID, ana.ID)
	}
	if resp.Intent.TimeOfDay != "18:00" {
		t.Errorf("time_of_day = %q, want 18:00", resp.Intent.TimeOfDay)
	}
	if len(resp.Candidates) == 0 {
		t.Fatal("no candidates")
	}
	for _, c := range resp.Candidates {
		d, err := time.Parse("2006-01-02", c.Date)
		if err != nil {
			t.Fatalf("candidate date %q: %v", c.Date, err)
		}
		if d.Weekday() != time.Wednesday {
			t.Errorf("candidate %s is %s, want quarta", c.Date, d.Weekday())
		}
		if c.StartTime != "18:00" {
			t.Errorf("candidate start_time = %q, want 18:00", c.StartTime)
		}
		if c.Score != nil {
			t.Error("command candidates must not carry a score")
		}
	}
}

func TestPostScheduleCommandUnparseable(t *testing.T) {
	h, _ := newCommandHandler()
	body, _ := json.Marshal(map[string]string{"text": "bom dia, tudo bem com vocês?"})
	w := httptest.NewRecorder()
	h.PostScheduleCommand(w, adminRequest(http.MethodPost, "/api/schedule/command", body))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (body %s)", w.Code, w.Body.String())
	}
}

func TestPostScheduleCommandForbiddenForClient(t *testing.T) {
	h, _ := newCommandHandler()
	body, _ := json.Marshal(map[string]string{"text": "Sessão amanhã às 10h"})
	r := httptest.NewRequest(http.MethodPost, "/api/schedule/command", bytes.NewReader(body))
	claims := &auth.Claims{UserID: uuid.NewString(), Role: auth.RoleClient}
	r = r.WithContext(auth.WithClaims(r.Context(), claims))
	w := httptest.NewRecorder()
	h.PostScheduleCommand(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestPostScheduleConfirm(t *testing.T) {
	h, appts := newCommandHandler()
	id := ana.ID.String()
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []candidateJSON{
			{Date: "2026-03-04", StartTime: "18:00", AppointmentType: "sessão", ClientID: &id, ClientName: ana.FullName},
			{Date: "2026-03-11", StartTime: "18:00", AppointmentType: "sessão", ClientID: &id, ClientName: ana.FullName},
		},
	})
	w := httptest.NewRecorder()
	h.PostScheduleConfirm(w, adminRequest(http.MethodPost, "/api/schedule/confirm", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(appts.created) != 2 {
		t.Fatalf("created %d appointments, want 2", len(appts.created))
	}
	for _, a := range appts.created {
		if a.Status != scheduling.AppointmentScheduled {
			t.Errorf("status = %q, want AGENDADO", a.Status)
		}
		if a.EndTime != "18:50" {
			t.Errorf("end_time = %q, want 18:50", a.EndTime)
		}
	}
}

func TestPostScheduleConfirmUnresolvedClient(t *testing.T) {
	h, appts := newCommandHandler()
	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []candidateJSON{
			{Date: "2026-03-04", StartTime: "18:00", AppointmentType: "sessão", ClientName: "cliente não especificado"},
		},
	})
	w := httptest.NewRecorder()
	h.PostScheduleConfirm(w, adminRequest(http.MethodPost, "/api/schedule/confirm", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
	}
	if len(appts.created) != 0 {
		t.Fatalf("created %d appointments, want 0", len(appts.created))
	}
}
