package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

// AuditEvent records one action on the suggestion/appointment lifecycle
// (suggestion generated, accepted, rejected, expired; command interpreted;
// appointment created). Kept on pgx so audit writes bypass the ORM path.
type AuditEvent struct {
	RequestID    *string
	ActorType    *string
	ActorID      *uuid.UUID
	Action       string
	ClientID     *uuid.UUID
	SuggestionID *uuid.UUID
	Message      *string
	Metadata     interface{}
}

func CreateAuditEvent(ctx context.Context, pool *pgxpool.Pool, ev AuditEvent) error {
	var meta []byte
	if ev.Metadata != nil {
		meta, _ = json.Marshal(ev.Metadata)
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO audit_events (
			request_id, actor_type, actor_id,
			action, client_id, suggestion_id,
			message, metadata
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8
		)
	`, ev.RequestID, ev.ActorType, ev.ActorID,
		ev.Action, ev.ClientID, ev.SuggestionID,
		ev.Message, meta)
	return err
}

// CreateAuditEventDB is the gorm variant, for callers that only hold the ORM
// handle (the reminder cron).
func CreateAuditEventDB(ctx context.Context, db *gorm.DB, ev AuditEvent) error {
	meta := "null"
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			meta = string(b)
		}
	}
	return db.WithContext(ctx).Exec(`
		INSERT INTO audit_events (request_id, actor_type, actor_id, action, client_id, suggestion_id, message, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?::jsonb)
	`, ev.RequestID, ev.ActorType, ev.ActorID, ev.Action, ev.ClientID, ev.SuggestionID, ev.Message, meta).Error
}
