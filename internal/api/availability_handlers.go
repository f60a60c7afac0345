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

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

func windowJSON(w *repo.AvailabilityWindow) map[string]interface{} {
	out := map[string]interface{}{
		"id":          w.ID.String(),
		"client_id":   w.ClientID.String(),
		"day_of_week": w.DayOfWeek,
		"start_time":  repo.TimeStringToHHMM(w.StartTime),
		"end_time":    repo.TimeStringToHHMM(w.EndTime),
		"preference":  w.Preference,
		"recurrence":  w.Recurrence,
		"status":      w.Status,
	}
	if w.WindowDate != nil {
		out["window_date"] = w.WindowDate.Format("2006-01-02")
	}
	if w.ValidFrom != nil {
		out["valid_from"] = w.ValidFrom.Format("2006-01-02")
	}
	if w.ValidTo != nil {
		out["valid_to"] = w.ValidTo.Format("2006-01-02")
	}
	if w.Notes != nil {
		out["notes"] = *w.Notes
	}
	return out
}

// ListClientWindows lista as janelas de disponibilidade de um cliente.
// ADMIN ou o próprio cliente. Resposta cacheada por cliente.
func (h *Handler) ListClientWindows(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if !h.canAccessClient(r, clientID) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	cacheKey := "windows:" + clientID.String()
	if h.Cache != nil {
		if cached := h.Cache.Get(cacheKey); cached != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}
	list, err := repo.ListWindowsByClient(r.Context(), h.DB, clientID)
	if err != nil {
		log.Printf("[availability] ListWindowsByClient: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]map[string]interface{}, len(list))
	for i := range list {
		out[i] = windowJSON(&list[i])
	}
	buf, _ := json.Marshal(map[string]interface{}{"windows": out})
	if h.Cache != nil {
		h.Cache.Set(cacheKey, buf)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

type windowRequest struct {
	DayOfWeek  int     `json:"day_of_week"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Preference string  `json:"preference"`
	Recurrence string  `json:"recurrence"`
	Status     string  `json:"status"`
	WindowDate *string `json:"window_date"`
	ValidFrom  *string `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
	Notes      *string `json:"notes"`
}

func (req *windowRequest) toModel(clientID uuid.UUID) (*repo.AvailabilityWindow, error) {
	if req.Preference == "" {
		req.Preference = "MEDIA"
	}
	if req.Recurrence == "" {
		req.Recurrence = "SEMANAL"
	}
	if req.Status == "" {
		req.Status = "ATIVA"
	}
	if err := ValidateWindow(&WindowInput{
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Preference: req.Preference,
		Recurrence: req.Recurrence,
		Status:     req.Status,
		WindowDate: req.WindowDate,
	}); err != nil {
		return nil, err
	}
	parseDate := func(p *string) *time.Time {
		if p == nil || *p == "" {
			return nil
		}
		t, err := time.Parse("2006-01-02", *p)
		if err != nil {
			return nil
		}
		return &t
	}
	m := &repo.AvailabilityWindow{
		ClientID:   clientID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Preference: req.Preference,
		Recurrence: req.Recurrence,
		Status:     req.Status,
		WindowDate: parseDate(req.WindowDate),
		ValidFrom:  parseDate(req.ValidFrom),
		ValidTo:    parseDate(req.ValidTo),
		Notes:      req.Notes,
	}
	if m.WindowDate != nil {
		// O dia da semana de uma janela AVULSA vem da própria data.
		m.DayOfWeek = int(m.WindowDate.Weekday())
	}
	return m, nil
}

// CreateClientWindow cria uma janela de disponibilidade. Apenas ADMIN.
func (h *Handler) CreateClientWindow(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	m, err := req.toModel(clientID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	id, err := repo.CreateWindow(r.Context(), h.DB, m)
	if err != nil {
		log.Printf("[availability] CreateWindow: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("windows:" + clientID.String())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id.String(), "message": "Janela criada."})
}

// UpdateClientWindow substitui os campos de uma janela. Apenas ADMIN.
func (h *Handler) UpdateClientWindow(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	windowID, err := uuid.Parse(mux.Vars(r)["windowId"])
	if err != nil {
		http.Error(w, `{"error":"invalid window id"}`, http.StatusBadRequest)
		return
	}
	var req windowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	m, err := req.toModel(clientID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	m.ID = windowID
	if err := repo.UpdateWindow(r.Context(), h.DB, m); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("windows:" + clientID.String())
	}
	out := map[string]interface{}{"message": "Janela atualizada."}
	if row, err := repo.WindowByID(r.Context(), h.DB, windowID); err == nil && row != nil {
		out["window"] = windowJSON(row)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

// PatchClientWindowStatus alterna o status de uma janela (ATIVA/INATIVA/TEMPORARIA).
func (h *Handler) PatchClientWindowStatus(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	windowID, err := uuid.Parse(mux.Vars(r)["windowId"])
	if err != nil {
		http.Error(w, `{"error":"invalid window id"}`, http.StatusBadRequest)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	switch req.Status {
	case "ATIVA", "INATIVA", "TEMPORARIA":
	default:
		http.Error(w, `{"error":"invalid status"}`, http.StatusBadRequest)
		return
	}
	if err := repo.SetWindowStatus(r.Context(), h.DB, windowID, clientID, req.Status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("windows:" + clientID.String())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Status alterado."})
}

// DeleteClientWindow remove uma janela. Apenas ADMIN.
func (h *Handler) DeleteClientWindow(w http.ResponseWriter, r *http.Request) {
	clientID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	windowID, err := uuid.Parse(mux.Vars(r)["windowId"])
	if err != nil {
		http.Error(w, `{"error":"invalid window id"}`, http.StatusBadRequest)
		return
	}
	if err := repo.DeleteWindow(r.Context(), h.DB, windowID, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("windows:" + clientID.String())
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Janela removida."})
}
