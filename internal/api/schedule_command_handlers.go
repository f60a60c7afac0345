package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

// candidateJSON é a representação de ida-e-volta de um candidato: o preview
// devolve candidatos neste formato e a confirmação os recebe de volta
// (possivelmente editados na UI).
type candidateJSON struct {
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	AppointmentType string   `json:"appointment_type"`
	ClientID        *string  `json:"client_id,omitempty"`
	ClientName      string   `json:"client_name"`
	Preference      string   `json:"preference,omitempty"`
	Score           *int     `json:"score,omitempty"`
	Reasons         []string `json:"reasons,omitempty"`
}

func candidateToJSON(c scheduling.SchedulingCandidate) candidateJSON {
	out := candidateJSON{
		Date:            c.Date.Format("2006-01-02"),
		StartTime:       c.StartTime,
		AppointmentType: c.AppointmentType,
		ClientName:      c.ClientName,
		Preference:      c.Preference,
		Score:           c.Score,
		Reasons:         c.Reasons,
	}
	if c.ClientID != nil {
		s := c.ClientID.String()
		out.ClientID = &s
	}
	return out
}

func candidateFromJSON(in candidateJSON) (scheduling.SchedulingCandidate, error) {
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return scheduling.SchedulingCandidate{}, errors.New("date must be YYYY-MM-DD")
	}
	if err := ValidateHHMM(in.StartTime); err != nil {
		return scheduling.SchedulingCandidate{}, errors.New("start_time must be HH:MM")
	}
	c := scheduling.SchedulingCandidate{
		Date:            date,
		StartTime:       in.StartTime,
		AppointmentType: in.AppointmentType,
		ClientName:      in.ClientName,
		Preference:      in.Preference,
		Score:           in.Score,
		Reasons:         in.Reasons,
	}
	if in.ClientID != nil && *in.ClientID != "" {
		id, err := uuid.Parse(*in.ClientID)
		if err != nil {
			return scheduling.SchedulingCandidate{}, errors.New("invalid client_id")
		}
		c.ClientID = &id
	}
	return c, nil
}

func intentJSON(it *scheduling.SchedulingIntent) map[string]interface{} {
	out := map[string]interface{}{
		"client_name":      it.ClientName,
		"appointment_type": it.AppointmentType,
		"time_of_day":      it.TimeOfDay,
		"is_recurring":     it.IsRecurring,
	}
	if it.ClientID != nil {
		out["client_id"] = it.ClientID.String()
	}
	if it.SpecificDate != nil {
		out["specific_date"] = it.SpecificDate.Format("2006-01-02")
	}
	if len(it.DaysOfWeek) > 0 {
		out["days_of_week"] = it.DaysOfWeek
	}
	if it.PeriodEnd != nil {
		out["period_end"] = it.PeriodEnd.Format("2006-01-02")
	}
	return out
}

// PostScheduleCommand interpreta um comando de agendamento em português e
// devolve a intenção estruturada mais os candidatos de preview. Nada é
// persistido aqui. Apenas ADMIN.
func (h *Handler) PostScheduleCommand(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		http.Error(w, `{"error":"text required"}`, http.StatusBadRequest)
		return
	}
	intent, cands, err := h.Engine.PreviewCommand(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, scheduling.ErrParse) {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnprocessableEntity)
			return
		}
		log.Printf("[schedule-command] PreviewCommand: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]candidateJSON, len(cands))
	for i, c := range cands {
		out[i] = candidateToJSON(c)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"intent":     intentJSON(intent),
		"candidates": out,
	})
}

// PostScheduleConfirm materializa candidatos confirmados como agendamentos.
// Candidatos sem client_id resolvido são rejeitados. Apenas ADMIN.
func (h *Handler) PostScheduleConfirm(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		Candidates []candidateJSON `json:"candidates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	if len(req.Candidates) == 0 {
		http.Error(w, `{"error":"candidates required (at least one)"}`, http.StatusBadRequest)
		return
	}
	cands := make([]scheduling.SchedulingCandidate, len(req.Candidates))
	for i, in := range req.Candidates {
		c, err := candidateFromJSON(in)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		cands[i] = c
	}
	created, err := h.Engine.ConfirmCandidates(r.Context(), cands)
	if err != nil {
		if errors.Is(err, scheduling.ErrValidation) {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
		log.Printf("[schedule-command] ConfirmCandidates: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	ids := make([]string, len(created))
	out := make([]map[string]interface{}, len(created))
	for i, a := range created {
		ids[i] = a.ID.String()
		out[i] = map[string]interface{}{
			"id":               a.ID.String(),
			"client_id":        a.ClientID.String(),
			"appointment_date": a.Date.Format("2006-01-02"),
			"start_time":       a.StartTime,
			"end_time":         a.EndTime,
			"type":             a.Type,
			"status":           a.Status,
		}
	}
	h.audit(r, "SCHEDULE_COMMAND_CONFIRMED", nil, nil, map[string]interface{}{
		"created": len(created), "appointment_ids": ids,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message":      "Agendamentos criados.",
		"appointments": out,
	})
}
