package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

// ListAppointments lista compromissos num período [from, to] com nome do cliente.
// Apenas ADMIN.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		http.Error(w, `{"error":"from and to required (YYYY-MM-DD)"}`, http.StatusBadRequest)
		return
	}
	from, err1 := time.Parse("2006-01-02", fromStr)
	to, err2 := time.Parse("2006-01-02", toStr)
	if err1 != nil || err2 != nil {
		http.Error(w, `{"error":"invalid date format"}`, http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, `{"error":"to must be >= from"}`, http.StatusBadRequest)
		return
	}
	list, err := repo.ListAppointmentsByDateRangeWithClientName(r.Context(), h.DB, from, to)
	if err != nil {
		log.Printf("[appointments] ListAppointmentsByDateRangeWithClientName: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]map[string]interface{}, len(list))
	for i, a := range list {
		notes := ""
		if a.Notes != nil {
			notes = *a.Notes
		}
		out[i] = map[string]interface{}{
			"id":               a.ID.String(),
			"client_id":        a.ClientID.String(),
			"client_name":      a.ClientName,
			"appointment_date": a.AppointmentDate.Format("2006-01-02"),
			"start_time":       repo.TimeStringToHHMM(a.StartTime),
			"end_time":         repo.TimeStringToHHMM(a.EndTime),
			"type":             a.Type,
			"status":           a.Status,
			"notes":            notes,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"appointments": out})
}

// CreateAppointment cria um compromisso avulso (fora do fluxo de sugestões). Apenas ADMIN.
func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		ClientID        string `json:"client_id"`
		AppointmentDate string `json:"appointment_date"`
		StartTime       string `json:"start_time"`
		EndTime         string `json:"end_time"`
		Type            string `json:"type"`
		Notes           string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		http.Error(w, `{"error":"invalid client_id"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.AppointmentDate)
	if err != nil {
		http.Error(w, `{"error":"appointment_date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	if err := ValidateHHMM(req.StartTime); err != nil {
		http.Error(w, `{"error":"start_time must be HH:MM"}`, http.StatusBadRequest)
		return
	}
	if req.EndTime == "" {
		req.EndTime = addSessionMinutes(req.StartTime, h.Cfg.SessionMinutes)
	}
	if err := ValidateHHMM(req.EndTime); err != nil || req.EndTime <= req.StartTime {
		http.Error(w, `{"error":"end_time must be HH:MM after start_time"}`, http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = scheduling.DefaultAppointmentType
	}
	id, err := repo.CreateAppointment(r.Context(), h.DB, clientID, date, req.StartTime, req.EndTime, req.Type, scheduling.AppointmentScheduled, req.Notes)
	if err != nil {
		log.Printf("[appointments] CreateAppointment: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	h.audit(r, "APPOINTMENT_CREATED", &clientID, nil, map[string]interface{}{
		"appointment_id": id.String(), "date": req.AppointmentDate, "start_time": req.StartTime,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id.String(), "message": "Agendamento criado."})
}

// PatchAppointment altera data, horário, tipo, status ou notas de um compromisso.
// Apenas ADMIN.
func (h *Handler) PatchAppointment(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	var req struct {
		AppointmentDate *string `json:"appointment_date"`
		StartTime       *string `json:"start_time"`
		EndTime         *string `json:"end_time"`
		Type            *string `json:"type"`
		Status          *string `json:"status"`
		Notes           *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	var date *time.Time
	if req.AppointmentDate != nil && *req.AppointmentDate != "" {
		t, err := time.Parse("2006-01-02", *req.AppointmentDate)
		if err != nil {
			http.Error(w, `{"error":"appointment_date must be YYYY-MM-DD"}`, http.StatusBadRequest)
			return
		}
		date = &t
	}
	if req.StartTime != nil && ValidateHHMM(*req.StartTime) != nil {
		http.Error(w, `{"error":"start_time must be HH:MM"}`, http.StatusBadRequest)
		return
	}
	if req.EndTime != nil && ValidateHHMM(*req.EndTime) != nil {
		http.Error(w, `{"error":"end_time must be HH:MM"}`, http.StatusBadRequest)
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case "AGENDADO", "CONFIRMADO", "REALIZADO", "CANCELADO":
		default:
			http.Error(w, `{"error":"invalid status"}`, http.StatusBadRequest)
			return
		}
	}
	if err := repo.UpdateAppointment(r.Context(), h.DB, id, date, req.StartTime, req.EndTime, req.Type, req.Status, req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	changed := make([]string, 0, 6)
	if req.AppointmentDate != nil {
		changed = append(changed, "appointment_date")
	}
	if req.StartTime != nil {
		changed = append(changed, "start_time")
	}
	if req.EndTime != nil {
		changed = append(changed, "end_time")
	}
	if req.Type != nil {
		changed = append(changed, "type")
	}
	if req.Status != nil {
		changed = append(changed, "status")
	}
	if req.Notes != nil {
		changed = append(changed, "notes")
	}
	h.audit(r, "APPOINTMENT_UPDATED", nil, nil, map[string]interface{}{
		"appointment_id": id.String(), "changed_fields": changed,
	})
	out := map[string]interface{}{"message": "Compromisso atualizado."}
	if a, err := repo.AppointmentByID(r.Context(), h.DB, id); err == nil {
		out["appointment"] = map[string]interface{}{
			"id":               a.ID,
			"client_id":        a.ClientID,
			"appointment_date": a.AppointmentDate.Format("2006-01-02"),
			"start_time":       repo.TimeStringToHHMM(a.StartTime),
			"end_time":         repo.TimeStringToHHMM(a.EndTime),
			"type":             a.Type,
			"status":           a.Status,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// ConfirmAppointmentByToken confirma presença via link do lembrete de WhatsApp.
// Endpoint público: o token de uso único faz as vezes de autenticação.
func (h *Handler) ConfirmAppointmentByToken(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if token == "" {
		http.Error(w, `{"error":"token required"}`, http.StatusBadRequest)
		return
	}
	info, err := repo.GetAppointmentByReminderToken(r.Context(), h.DB, token)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if info == nil {
		http.Error(w, `{"error":"token inválido ou expirado"}`, http.StatusNotFound)
		return
	}
	ok, err := repo.ConfirmAppointmentByToken(r.Context(), h.DB, token)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		// Já confirmada (ou cancelada depois do envio): responde o estado atual.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Sessão já confirmada.", "status": info.Status})
		return
	}
	h.audit(r, "APPOINTMENT_CONFIRMED_BY_TOKEN", &info.ClientID, nil, map[string]interface{}{
		"appointment_id": info.AppointmentID.String(),
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": "Presença confirmada. Obrigado, " + info.ClientName + "!",
		"status":  "CONFIRMADO",
	})
}

// addSessionMinutes soma n minutos a um "HH:MM", saturando em 23:59.
func addSessionMinutes(hhmm string, n int) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	end := t.Add(time.Duration(n) * time.Minute)
	if end.Day() != t.Day() {
		return "23:59"
	}
	return end.Format("15:04")
}
