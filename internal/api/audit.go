package api

import (
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/middleware"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

// audit grava um evento de auditoria em best-effort: falha de auditoria nunca
// derruba a resposta do handler.
func (h *Handler) audit(r *http.Request, action string, clientID, suggestionID *uuid.UUID, metadata map[string]interface{}) {
	if h.Pool == nil {
		return
	}
	var actorID *uuid.UUID
	if uid, err := uuid.Parse(auth.UserIDFrom(r.Context())); err == nil {
		actorID = &uid
	}
	var actorType *string
	if role := auth.RoleFrom(r.Context()); role != "" {
		actorType = &role
	}
	var requestID *string
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		requestID = &id
	}
	err := repo.CreateAuditEvent(r.Context(), h.Pool, repo.AuditEvent{
		RequestID:    requestID,
		ActorType:    actorType,
		ActorID:      actorID,
		Action:       action,
		ClientID:     clientID,
		SuggestionID: suggestionID,
		Metadata:     metadata,
	})
	if err != nil {
		log.Printf("[audit] %s: %v", action, err)
	}
}
