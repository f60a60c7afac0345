package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Suggestion is a persisted suggested appointment awaiting accept/reject.
// Reasons is the jsonb column as raw bytes (array of strings).
// Score is NULL for command-sourced suggestions.
type Suggestion struct {
	ID              uuid.UUID
	ClientID        *uuid.UUID
	ClientName      string
	SuggestionDate  time.Time
	StartTime       string `gorm:"column:start_time;type:time"`
	AppointmentType string
	Score           *int
	Reasons         []byte
	Status          string
	ExpiresAt       time.Time
	CreatedAt       time.Time
}

func InsertSuggestion(ctx context.Context, db *gorm.DB, s *Suggestion) error {
	return db.WithContext(ctx).Exec(`
		INSERT INTO suggested_appointments
			(id, client_id, client_name, suggestion_date, start_time, appointment_type, score, reasons, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?::jsonb, ?, ?, ?)
	`, s.ID, s.ClientID, s.ClientName, s.SuggestionDate, s.StartTime, s.AppointmentType,
		s.Score, string(s.Reasons), s.Status, s.ExpiresAt, s.CreatedAt).Error
}

func SuggestionByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Suggestion, error) {
	var s Suggestion
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, client_name, suggestion_date, start_time, appointment_type,
		       score, reasons, status, expires_at, created_at
		FROM suggested_appointments
		WHERE id = ?
	`, id).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

// UpdateSuggestionStatusFromPending flips the status only when the stored row
// is still PENDING. The WHERE guard makes concurrent accepts race-safe: the
// second caller changes zero rows.
func UpdateSuggestionStatusFromPending(ctx context.Context, db *gorm.DB, id uuid.UUID, status string) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE suggested_appointments SET status = ?
		WHERE id = ? AND status = 'PENDING'
	`, status, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListSuggestionsByClient returns the client's suggestions, newest first.
// When includeExpired is false, pending rows past expires_at are excluded
// without being rewritten.
func ListSuggestionsByClient(ctx context.Context, db *gorm.DB, clientID uuid.UUID, includeExpired bool) ([]Suggestion, error) {
	q := `
		SELECT id, client_id, client_name, suggestion_date, start_time, appointment_type,
		       score, reasons, status, expires_at, created_at
		FROM suggested_appointments
		WHERE client_id = ?
	`
	if !includeExpired {
		q += ` AND NOT (status = 'PENDING' AND expires_at <= now())`
	}
	q += ` ORDER BY created_at DESC, suggestion_date`
	var list []Suggestion
	err := db.WithContext(ctx).Raw(q, clientID).Scan(&list).Error
	return list, err
}

// MarkSuggestionsExpiredBefore rewrites stale pending suggestions to EXPIRED.
// Called by the cron sweeper so reporting matches what listings already hide.
func MarkSuggestionsExpiredBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE suggested_appointments SET status = 'EXPIRED'
		WHERE status = 'PENDING' AND expires_at <= ?
	`, cutoff)
	return result.RowsAffected, result.Error
}
