package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AvailabilityWindow is a declared availability window of a client.
// StartTime and EndTime are string (e.g. "09:00:00"); PostgreSQL TIME is
// returned as string by the driver. WindowDate is set only for AVULSA windows.
type AvailabilityWindow struct {
	ID         uuid.UUID
	ClientID   uuid.UUID
	DayOfWeek  int
	StartTime  string `gorm:"column:start_time;type:time"`
	EndTime    string `gorm:"column:end_time;type:time"`
	Preference string
	Recurrence string
	Status     string
	WindowDate *time.Time
	ValidFrom  *time.Time
	ValidTo    *time.Time
	Notes      *string
}

func ListWindowsByClient(ctx context.Context, db *gorm.DB, clientID uuid.UUID) ([]AvailabilityWindow, error) {
	var list []AvailabilityWindow
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, day_of_week, start_time, end_time, preference, recurrence, status,
		       window_date, valid_from, valid_to, notes
		FROM availability_windows
		WHERE client_id = ?
		ORDER BY day_of_week, start_time
	`, clientID).Scan(&list).Error
	return list, err
}

// ListActiveWindowsByClient returns the client's windows the expander should
// consider: ATIVA and TEMPORARIA, never INATIVA.
func ListActiveWindowsByClient(ctx context.Context, db *gorm.DB, clientID uuid.UUID) ([]AvailabilityWindow, error) {
	var list []AvailabilityWindow
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, day_of_week, start_time, end_time, preference, recurrence, status,
		       window_date, valid_from, valid_to, notes
		FROM availability_windows
		WHERE client_id = ? AND status != 'INATIVA'
		ORDER BY day_of_week, start_time
	`, clientID).Scan(&list).Error
	return list, err
}

func WindowByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	err := db.WithContext(ctx).Raw(`
		SELECT id, client_id, day_of_week, start_time, end_time, preference, recurrence, status,
		       window_date, valid_from, valid_to, notes
		FROM availability_windows
		WHERE id = ?
	`, id).Scan(&w).Error
	if err != nil {
		return nil, err
	}
	if w.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &w, nil
}

func CreateWindow(ctx context.Context, db *gorm.DB, w *AvailabilityWindow) (uuid.UUID, error) {
	var res struct{ ID uuid.UUID }
	err := db.WithContext(ctx).Raw(`
		INSERT INTO availability_windows
			(client_id, day_of_week, start_time, end_time, preference, recurrence, status, window_date, valid_from, valid_to, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id
	`, w.ClientID, w.DayOfWeek, w.StartTime, w.EndTime, w.Preference, w.Recurrence, w.Status,
		w.WindowDate, w.ValidFrom, w.ValidTo, w.Notes).Scan(&res).Error
	return res.ID, err
}

func UpdateWindow(ctx context.Context, db *gorm.DB, w *AvailabilityWindow) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE availability_windows
		SET day_of_week = ?, start_time = ?, end_time = ?, preference = ?, recurrence = ?,
		    status = ?, window_date = ?, valid_from = ?, valid_to = ?, notes = ?, updated_at = now()
		WHERE id = ? AND client_id = ?
	`, w.DayOfWeek, w.StartTime, w.EndTime, w.Preference, w.Recurrence,
		w.Status, w.WindowDate, w.ValidFrom, w.ValidTo, w.Notes, w.ID, w.ClientID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetWindowStatus flips a window's status (ATIVA, INATIVA, TEMPORARIA).
func SetWindowStatus(ctx context.Context, db *gorm.DB, id, clientID uuid.UUID, status string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE availability_windows SET status = ?, updated_at = now() WHERE id = ? AND client_id = ?
	`, status, id, clientID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func DeleteWindow(ctx context.Context, db *gorm.DB, id, clientID uuid.UUID) error {
	result := db.WithContext(ctx).Exec(`
		DELETE FROM availability_windows WHERE id = ? AND client_id = ?
	`, id, clientID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
