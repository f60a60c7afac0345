package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

// GetHolidays lista os feriados de um ano (?year=, padrão o ano corrente).
// Resposta cacheada: a tabela muda raramente.
func (h *Handler) GetHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 2000 || n > 2100 {
			http.Error(w, `{"error":"invalid year"}`, http.StatusBadRequest)
			return
		}
		year = n
	}
	cacheKey := "holidays:" + strconv.Itoa(year)
	if h.Cache != nil {
		if cached := h.Cache.Get(cacheKey); cached != nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}
	list, err := repo.ListHolidaysByYear(r.Context(), h.DB, year)
	if err != nil {
		log.Printf("[holidays] ListHolidaysByYear %d: %v", year, err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]map[string]string, len(list))
	for i, hd := range list {
		out[i] = map[string]string{
			"date":     hd.HolidayDate.Format("2006-01-02"),
			"name":     hd.Name,
			"category": hd.Category,
		}
	}
	buf, _ := json.Marshal(map[string]interface{}{"year": year, "holidays": out})
	if h.Cache != nil {
		h.Cache.Set(cacheKey, buf)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

// PutHoliday cria ou atualiza um feriado (upsert por data). Apenas ADMIN.
func (h *Handler) PutHoliday(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		Date     string `json:"date"`
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}
	switch req.Category {
	case "NACIONAL", "MUNICIPAL":
	default:
		http.Error(w, `{"error":"category must be NACIONAL or MUNICIPAL"}`, http.StatusBadRequest)
		return
	}
	if err := repo.UpsertHoliday(r.Context(), h.DB, date, req.Name, req.Category); err != nil {
		log.Printf("[holidays] UpsertHoliday: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("holidays:" + strconv.Itoa(date.Year()))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Feriado gravado."})
}

// DeleteHoliday remove um feriado pela data. Apenas ADMIN.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	date, err := time.Parse("2006-01-02", mux.Vars(r)["date"])
	if err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}
	if err := repo.DeleteHoliday(r.Context(), h.DB, date); err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if h.Cache != nil {
		h.Cache.Delete("holidays:" + strconv.Itoa(date.Year()))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Feriado removido."})
}
