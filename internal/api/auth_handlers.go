package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/cache"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/config"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type Handler struct {
	Pool   *pgxpool.Pool
	DB     *gorm.DB
	Cfg    *config.Config
	Cache  *cache.TTL
	Engine *scheduling.Engine

	hashPassword        func(string) (string, error)
	sendSuggestionEmail func(to, fullName string, suggestions []scheduling.SuggestedAppointment) error
	sendAcceptedEmail   func(to, fullName, dateBR, timeHHMM, appointmentType string) error
}

func (h *Handler) SetHashPassword(fn func(string) (string, error)) { h.hashPassword = fn }
func (h *Handler) SetSendSuggestionEmail(fn func(to, fullName string, suggestions []scheduling.SuggestedAppointment) error) {
	h.sendSuggestionEmail = fn
}
func (h *Handler) SetSendAcceptedEmail(fn func(to, fullName, dateBR, timeHHMM, appointmentType string) error) {
	h.sendAcceptedEmail = fn
}

// Login autentica a administração da clínica (tabela admins, via pgx).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	admin, err := repo.AdminByEmail(r.Context(), h.Pool, req.Email)
	if err != nil {
		// Mantém resposta genérica por segurança (e-mail inexistente ou erro interno).
		genericLoginError(w)
		return
	}
	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		genericLoginError(w)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, admin.ID.String(), auth.RoleAdmin, 24*time.Hour)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		User: UserInfo{
			ID:       admin.ID.String(),
			Email:    admin.Email,
			FullName: admin.FullName,
			Role:     auth.RoleAdmin,
		},
	})
}

// LoginClient autentica um cliente com acesso ao portal (senha definida pela administração).
func (h *Handler) LoginClient(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	c, err := repo.ClientByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		genericLoginError(w)
		return
	}
	if c.PasswordHash == nil || !auth.CheckPassword(*c.PasswordHash, req.Password) {
		genericLoginError(w)
		return
	}
	tok, err := auth.BuildJWT(h.Cfg.JWTSecret, c.ID.String(), auth.RoleClient, 24*time.Hour)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	email := ""
	if c.Email != nil {
		email = *c.Email
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(LoginResponse{
		Token:     tok,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		User: UserInfo{
			ID:       c.ID.String(),
			Email:    email,
			FullName: c.FullName,
			Role:     auth.RoleClient,
		},
	})
}

func genericLoginError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"invalid credentials"}`))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c := auth.ClaimsFrom(r.Context())
	if c == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(UserInfo{
		ID:   c.UserID,
		Role: c.Role,
	})
}

type ChangeMyPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeMyPassword troca a senha do usuário logado (ADMIN ou CLIENT).
func (h *Handler) ChangeMyPassword(w http.ResponseWriter, r *http.Request) {
	role := auth.RoleFrom(r.Context())
	if role != auth.RoleAdmin && role != auth.RoleClient {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}
	userID := auth.UserIDFrom(r.Context())
	if userID == "" {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		http.Error(w, `{"error":"invalid user"}`, http.StatusBadRequest)
		return
	}

	var req ChangeMyPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}
	req.CurrentPassword = strings.TrimSpace(req.CurrentPassword)
	req.NewPassword = strings.TrimSpace(req.NewPassword)
	if req.CurrentPassword == "" || req.NewPassword == "" {
		http.Error(w, `{"error":"current_password and new_password required"}`, http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < 8 {
		http.Error(w, `{"error":"new_password deve ter no mínimo 8 caracteres"}`, http.StatusBadRequest)
		return
	}

	var currentHash string
	switch role {
	case auth.RoleAdmin:
		var hash string
		err := h.Pool.QueryRow(r.Context(), "SELECT password_hash FROM admins WHERE id = $1", uid).Scan(&hash)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		currentHash = hash
	case auth.RoleClient:
		c, err := repo.ClientByID(r.Context(), h.DB, uid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
				return
			}
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
		if c.PasswordHash == nil {
			http.Error(w, `{"error":"senha atual inválida"}`, http.StatusBadRequest)
			return
		}
		currentHash = *c.PasswordHash
	}
	if !auth.CheckPassword(currentHash, req.CurrentPassword) {
		http.Error(w, `{"error":"senha atual inválida"}`, http.StatusBadRequest)
		return
	}

	hash, err := h.hashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	switch role {
	case auth.RoleAdmin:
		if _, err := h.Pool.Exec(r.Context(), "UPDATE admins SET password_hash = $1, updated_at = now() WHERE id = $2", hash, uid); err != nil {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
	case auth.RoleClient:
		if err := repo.SetClientPassword(r.Context(), h.DB, uid, hash); err != nil {
			http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Senha atualizada."})
}
