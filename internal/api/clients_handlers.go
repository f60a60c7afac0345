package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/crypto"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

// canAccessClient: ADMIN acessa qualquer cliente; CLIENT apenas o próprio registro.
func (h *Handler) canAccessClient(r *http.Request, clientID uuid.UUID) bool {
	if auth.IsAdmin(r.Context()) {
		return true
	}
	return auth.RoleFrom(r.Context()) == auth.RoleClient && auth.UserIDFrom(r.Context()) == clientID.String()
}

func clientJSON(c *repo.Client) map[string]interface{} {
	email := ""
	if c.Email != nil {
		email = *c.Email
	}
	return map[string]interface{}{
		"id":        c.ID.String(),
		"manual_id": c.ManualID,
		"full_name": c.FullName,
		"email":     email,
		"has_phone": len(c.PhoneEncrypted) > 0,
	}
}

// ListClients lista clientes com paginação (?limit=&offset=). Apenas ADMIN.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	limit, offset := ParseLimitOffset(r)
	list, err := repo.ListClientsPaginated(r.Context(), h.DB, limit, offset)
	if err != nil {
		log.Printf("[clients] ListClientsPaginated: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	total, err := repo.ClientsCount(r.Context(), h.DB)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	out := make([]map[string]interface{}, len(list))
	for i := range list {
		out[i] = clientJSON(&list[i])
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"clients": out,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetClient retorna um cliente. ADMIN ou o próprio cliente.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if !h.canAccessClient(r, id) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	c, err := repo.ClientByID(r.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(clientJSON(c))
}

// CreateClient cria um cliente e gera seu manual_id (NB-0001, NB-0002, ...). Apenas ADMIN.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	var req struct {
		FullName string  `json:"full_name"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		http.Error(w, `{"error":"full_name obrigatório"}`, http.StatusBadRequest)
		return
	}
	var email *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := ValidateEmailRegex(e); err != nil {
			http.Error(w, `{"error":"invalid email"}`, http.StatusBadRequest)
			return
		}
		email = &e
	}
	id, manualID, err := repo.CreateClient(r.Context(), h.DB, req.FullName, email)
	if err != nil {
		log.Printf("[clients] CreateClient: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":        id.String(),
		"manual_id": manualID,
		"message":   "Cliente criado.",
	})
}

// PatchClient atualiza nome e e-mail. Apenas ADMIN.
func (h *Handler) PatchClient(w http.ResponseWriter, r *http.Request) {
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
		FullName string  `json:"full_name"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		http.Error(w, `{"error":"full_name obrigatório"}`, http.StatusBadRequest)
		return
	}
	var email *string
	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		e := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := ValidateEmailRegex(e); err != nil {
			http.Error(w, `{"error":"invalid email"}`, http.StatusBadRequest)
			return
		}
		email = &e
	}
	if err := repo.UpdateClient(r.Context(), h.DB, id, req.FullName, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Cliente atualizado."})
}

// DeleteClient faz soft delete do cliente. Apenas ADMIN.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if !auth.IsAdmin(r.Context()) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	if err := repo.SoftDeleteClient(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Cliente removido."})
}

// PutClientPhone grava o telefone do cliente criptografado (AES-GCM, chave versionada).
func (h *Handler) PutClientPhone(w http.ResponseWriter, r *http.Request) {
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
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	phone := crypto.NormalizePhone(req.Phone)
	if phone == "" {
		if err := repo.ClearClientPhone(r.Context(), h.DB, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Telefone removido."})
		return
	}
	keys, err := crypto.ParseKeysEnv(h.Cfg.DataEncryptionKeys)
	if err != nil {
		log.Printf("[clients] ParseKeysEnv: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	enc, nonce, err := crypto.Encrypt([]byte(phone), h.Cfg.CurrentDataKeyVer, keys)
	if err != nil {
		log.Printf("[clients] Encrypt phone: %v", err)
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.SetClientPhone(r.Context(), h.DB, id, enc, nonce, h.Cfg.CurrentDataKeyVer); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Telefone atualizado."})
}

// PutClientPassword define a senha de acesso ao portal do cliente. Apenas ADMIN.
func (h *Handler) PutClientPassword(w http.ResponseWriter, r *http.Request) {
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
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Password = strings.TrimSpace(req.Password)
	if len(req.Password) < 8 {
		http.Error(w, `{"error":"password deve ter no mínimo 8 caracteres"}`, http.StatusBadRequest)
		return
	}
	hash, err := h.hashPassword(req.Password)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if err := repo.SetClientPassword(r.Context(), h.DB, id, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Senha do cliente definida."})
}
