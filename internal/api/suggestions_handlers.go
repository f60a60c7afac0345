package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

func suggestionJSON(s *scheduling.SuggestedAppointment) map[string]interface{} {
	out := map[string]interface{}{
		"id":               s.ID.String(),
		"client_name":      s.ClientName,
		"suggestion_date":  s.Date.Format("2006-01-02"),
		"start_time":       s.StartTime,
		"appointment_type": s.AppointmentType,
		"status":           s.Status,
		"expires_at":       s.ExpiresAt,
		"reasons":          s.Reasons,
	}
	if s.ClientID != nil {
		out["client_id"] = s.ClientID.String()
	}
	if s.Score != nil {
		out["score"] = *s.Score
	}
	return out
}

// GenerateSuggestions roda o pipeline completo para um cliente (expansão de
// janelas, geração, pontuação, ranking) e persiste o resultado como sugestões
// pendentes. Notifica o cliente por e-mail quando configurado. Apenas ADMIN.
func (h *Handler) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	suggestions, err := h.Engine.SuggestForClient(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			http.Error(w, `{"error":"cliente não encontrado"}`, http.StatusNotFound)
			return
		}
		log.Printf("[suggestions] SuggestForClient %s: %v", clientID, err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	ids := make([]string, len(suggestions))
	out := make([]map[string]interface{}, len(suggestions))
	for i := range suggestions {
		ids[i] = suggestions[i].ID.String()
		out[i] = suggestionJSON(&suggestions[i])
	}
	h.audit(r, "SUGGESTIONS_GENERATED", &clientID, nil, map[string]interface{}{
		"count": len(suggestions), "suggestion_ids": ids,
	})
	if h.sendSuggestionEmail != nil && len(suggestions) > 0 {
		if c, err := repo.ClientByID(r.Context(), h.DB, clientID); err == nil && c.Email != nil {
			if err := h.sendSuggestionEmail(*c.Email, c.FullName, suggestions); err != nil {
				log.Printf("[suggestions] e-mail de propostas para %s falhou: %v", repo.ClientLabel(c), err)
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"suggestions": out})
}

// ListSuggestions lista as sugestões de um cliente. Por padrão devolve apenas
// as pendentes não expiradas; ?all=true inclui histórico (aceitas, rejeitadas,
// expiradas). ADMIN ou o próprio cliente.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if !h.canAccessClient(r, clientID) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var list []scheduling.SuggestedAppointment
	if r.URL.Query().Get("all") == "true" {
		sr := &repo.SuggestionRepo{DB: h.DB}
		list, err = sr.ListByClient(r.Context(), clientID, true)
		if err != nil {
			log.Printf("[suggestions] ListSuggestionsByClient: %v", err)
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
	} else {
		list, err = h.Engine.ListPending(r.Context(), clientID)
		if err != nil {
			log.Printf("[suggestions] ListPending: %v", err)
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
	}
	out := make([]map[string]interface{}, len(list))
	for i := range list {
		out[i] = suggestionJSON(&list[i])
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"suggestions": out})
}

// AcceptSuggestion aceita uma sugestão pendente: o agendamento é criado antes
// de a sugestão mudar de status; se a criação falhar, a sugestão segue pendente.
// ADMIN ou o cliente dono da sugestão.
func (h *Handler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if !h.canAccessSuggestion(r, id) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	appt, err := h.Engine.Accept(r.Context(), id)
	if err != nil {
		h.suggestionError(w, err, "accept", id)
		return
	}
	h.audit(r, "SUGGESTION_ACCEPTED", &appt.ClientID, &id, map[string]interface{}{
		"appointment_id": appt.ID.String(),
	})
	if h.sendAcceptedEmail != nil {
		if c, err := repo.ClientByID(r.Context(), h.DB, appt.ClientID); err == nil && c.Email != nil {
			dateBR := formatDateBR(appt.Date.Format("2006-01-02"))
			if err := h.sendAcceptedEmail(*c.Email, c.FullName, dateBR, appt.StartTime, appt.Type); err != nil {
				log.Printf("[suggestions] e-mail de confirmação para %s falhou: %v", repo.ClientLabel(c), err)
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Sugestão aceita. Agendamento criado.",
		"appointment": map[string]interface{}{
			"id":               appt.ID.String(),
			"client_id":        appt.ClientID.String(),
			"appointment_date": appt.Date.Format("2006-01-02"),
			"start_time":       appt.StartTime,
			"end_time":         appt.EndTime,
			"type":             appt.Type,
			"status":           appt.Status,
		},
	})
}

// RejectSuggestion rejeita uma sugestão pendente. ADMIN ou o cliente dono.
func (h *Handler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if !h.canAccessSuggestion(r, id) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	if err := h.Engine.Reject(r.Context(), id); err != nil {
		h.suggestionError(w, err, "reject", id)
		return
	}
	h.audit(r, "SUGGESTION_REJECTED", nil, &id, nil)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Sugestão rejeitada."})
}

// canAccessSuggestion: ADMIN sempre; CLIENT apenas sugestões do próprio registro.
func (h *Handler) canAccessSuggestion(r *http.Request, id uuid.UUID) bool {
	if auth.IsAdmin(r.Context()) {
		return true
	}
	if auth.RoleFrom(r.Context()) != auth.RoleClient {
		return false
	}
	s, err := repo.SuggestionByID(r.Context(), h.DB, id)
	if err != nil || s == nil || s.ClientID == nil {
		// Deixa o engine responder 404 com a mensagem padrão.
		return true
	}
	return auth.UserIDFrom(r.Context()) == s.ClientID.String()
}

func (h *Handler) suggestionError(w http.ResponseWriter, err error, op string, id uuid.UUID) {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
	case errors.Is(err, scheduling.ErrInvalidState):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
	case errors.Is(err, scheduling.ErrValidation):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	default:
		log.Printf("[suggestions] %s %s: %v", op, id, err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}
