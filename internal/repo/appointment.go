package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment is an agenda appointment.
// StartTime and EndTime are string (e.g. "09:00:00"); PostgreSQL TIME is returned as string by the driver.
type Appointment struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	AppointmentDate time.Time
	StartTime       string `gorm:"column:start_time;type:time"`
	EndTime         string `gorm:"column:end_time;type:time"`
	Type            string
	Status          string
	Notes           *string
}

// TimeStringToHHMM returns "HH:MM" from a DB time string ("HH:MM:SS" or "HH:MM").
func TimeStringToHHMM(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func CreateAppointment(ctx context.Context, db *gorm.DB, clientID uuid.UUID, date time.Time, startTime, endTime, typ, status, notes string) (uuid.UUID, error) {
	var n *string
	if notes != "" {
		n = &notes
	}
	var res struct{ ID uuid.UUID }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO appointments (client_id, appointment_date, start_time, end_time, type, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id
	`, clientID, date, startTime, endTime, typ, status, n).Scan(&res).Error
	return res.ID, err
}

// ListAppointmentsByDateRange returns non-cancelled appointments in [from, to].
// clientID nil means all clients.
func ListAppointmentsByDateRange(ctx context.Context, db *gorm.DB, clientID *uuid.UUID, from, to time.Time) ([]Appointment, error) {
	q := `
		SELECT id, client_id, appointment_date, start_time, end_time, type, status, notes
		FROM appointments
		WHERE appointment_date >= ? AND appointment_date <= ? AND status != 'CANCELADO'
	`
	args := []interface{}{from, to}
	if clientID != nil {
		q += ` AND client_id = ?`
		args = append(args, *clientID)
	}
	q += ` ORDER BY appointment_date, start_time`
	var list []Appointment
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}

// AppointmentWithClientName is an appointment with client name (for agenda display).
type AppointmentWithClientName struct {
	Appointment
	ClientName string
}

func ListAppointmentsByDateRangeWithClientName(ctx context.Context, db *gorm.DB, from, to time.Time) ([]AppointmentWithClientName, error) {
	var list []AppointmentWithClientName
	err := db.WithContext(ctx).Raw(`
		SELECT a.id, a.client_id, a.appointment_date, a.start_time, a.end_time, a.type, a.status, a.notes,
		       COALESCE(c.full_name, '') as client_name
		FROM appointments a
		LEFT JOIN clients c ON c.id = a.client_id AND c.deleted_at IS NULL
		WHERE a.appointment_date >= ? AND a.appointment_date <= ? AND a.status != 'CANCELADO'
		ORDER BY a.appointment_date, a.start_time
	`, from, to).Scan(&list).Error
	return list, err
}

// ListRecentCompletedSessions returns the client's most recent REALIZADO
// appointments, newest first. Feeds the historical-pattern scoring rule.
func ListRecentCompletedSessions(ctx context.Context, db *gorm.DB, clientID uuid.UUID, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 3
	}
	var list []Appointment
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, appointment_date, start_time, end_time, type, status, notes
		FROM appointments
		WHERE client_id = ? AND status = 'REALIZADO'
		ORDER BY appointment_date DESC, start_time DESC
		LIMIT ?
	`, clientID, limit).Scan(&list).Error
	return list, err
}

func AppointmentByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, appointment_date, start_time, end_time, type, status, notes
		FROM appointments
		WHERE id = ?
	`, id).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func UpdateAppointment(ctx context.Context, db *gorm.DB, id uuid.UUID, date *time.Time, startTime, endTime *string, typ, status, notes *string) error {
	updates := map[string]interface{}{"updated_at": gorm.Expr("now()")}
	if date != nil {
		updates["appointment_date"] = *date
	}
	if startTime != nil {
		updates["start_time"] = *startTime
	}
	if endTime != nil {
		updates["end_time"] = *endTime
	}
	if typ != nil {
		updates["type"] = *typ
	}
	if status != nil {
		updates["status"] = *status
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	result := db.WithContext(ctx).Table("appointments").Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppointmentReminderRow holds data to send one reminder. Phone fields come
// encrypted; the reminder job decrypts with the versioned key.
type AppointmentReminderRow struct {
	AppointmentID   uuid.UUID
	ClientID        uuid.UUID
	ClientName      string
	AppointmentDate time.Time
	StartTime       string
	PhoneEncrypted  []byte
	PhoneNonce      []byte
	PhoneKeyVersion *string
}

// ListAppointmentsForReminder returns appointments on the given date with the
// client's encrypted phone, for reminder WhatsApp.
// Only status AGENDADO and CONFIRMADO; only clients with a stored phone.
func ListAppointmentsForReminder(ctx context.Context, db *gorm.DB, date time.Time) ([]AppointmentReminderRow, error) {
	dateStr := date.Format("2006-01-02")
	var list []AppointmentReminderRow
	err := db.WithContext(ctx).Raw(`
		SELECT a.id as appointment_id, c.id as client_id, COALESCE(c.full_name, '') as client_name,
		       a.appointment_date, a.start_time,
		       c.phone_encrypted, c.phone_nonce, c.phone_key_version
		FROM appointments a
		JOIN clients c ON c.id = a.client_id AND c.deleted_at IS NULL
		WHERE a.appointment_date = ?::date
		  AND a.status IN ('AGENDADO', 'CONFIRMADO')
		  AND c.phone_encrypted IS NOT NULL
		ORDER BY a.start_time, c.full_name
	`, dateStr).Scan(&list).Error
	return list, err
}
