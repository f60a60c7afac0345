package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderTokenInfo holds the appointment behind a valid reminder token.
// StartTime is string; PostgreSQL TIME is returned as string by the driver.
type ReminderTokenInfo struct {
	AppointmentID   uuid.UUID
	ClientID        uuid.UUID
	ClientName      string
	AppointmentDate time.Time
	StartTime       string
	Status          string
}

// CreateReminderToken issues a confirmation token for the appointment, valid
// until expiresAt. The token goes into the WhatsApp reminder link so the
// client can confirm without logging in.
func CreateReminderToken(ctx context.Context, db *gorm.DB, appointmentID uuid.UUID, token string, expiresAt time.Time) error {
	return db.WithContext(ctx).Exec(`
		INSERT INTO appointment_reminder_tokens (appointment_id, token, expires_at)
		VALUES (?, ?, ?)
	`, appointmentID, token, expiresAt).Error
}

// GetAppointmentByReminderToken validates the token and returns appointment data. Returns nil if invalid or expired.
func GetAppointmentByReminderToken(ctx context.Context, db *gorm.DB, token string) (*ReminderTokenInfo, error) {
	var r ReminderTokenInfo
	err := db.WithContext(ctx).Raw(`
		SELECT a.id as appointment_id, a.client_id, COALESCE(c.full_name, '') as client_name,
		       a.appointment_date, a.start_time, a.status
		FROM appointment_reminder_tokens t
		JOIN appointments a ON a.id = t.appointment_id
		JOIN clients c ON c.id = a.client_id
		WHERE t.token = ? AND t.expires_at > now()
	`, token).Scan(&r).Error
	if err != nil {
		return nil, err
	}
	if r.AppointmentID == uuid.Nil {
		return nil, nil
	}
	return &r, nil
}

// ConfirmAppointmentByToken flips the appointment to CONFIRMADO when the token
// is valid and the appointment is still AGENDADO. Reports whether a row changed.
func ConfirmAppointmentByToken(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	result := db.WithContext(ctx).Exec(`
		UPDATE appointments a
		SET status = 'CONFIRMADO', updated_at = now()
		FROM appointment_reminder_tokens t
		WHERE t.appointment_id = a.id
		  AND t.token = ?
		  AND t.expires_at > now()
		  AND a.status = 'AGENDADO'
	`, token)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpiredReminderTokens removes stale tokens; run by the cron binary.
func DeleteExpiredReminderTokens(ctx context.Context, db *gorm.DB) (int64, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM appointment_reminder_tokens WHERE expires_at <= now()`)
	return result.RowsAffected, result.Error
}
