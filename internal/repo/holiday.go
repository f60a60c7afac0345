package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Holiday is a public holiday (category NACIONAL or MUNICIPAL).
type Holiday struct {
	HolidayDate time.Time
	Name        string
	Category    string
}

// HolidayOnDate returns the holiday on the given date, or nil when the date is
// a working day.
func HolidayOnDate(ctx context.Context, db *gorm.DB, date time.Time) (*Holiday, error) {
	dateStr := date.Format("2006-01-02")
	var h Holiday
	err := db.WithContext(ctx).Raw(`
		SELECT holiday_date, name, category FROM holidays WHERE holiday_date = ?::date
	`, dateStr).Scan(&h).Error
	if err != nil {
		return nil, err
	}
	if h.Name == "" {
		return nil, nil
	}
	return &h, nil
}

func ListHolidaysByYear(ctx context.Context, db *gorm.DB, year int) ([]Holiday, error) {
	var list []Holiday
	err := db.WithContext(ctx).Raw(`
		SELECT holiday_date, name, category
		FROM holidays
		WHERE date_part('year', holiday_date) = ?
		ORDER BY holiday_date
	`, year).Scan(&list).Error
	return list, err
}

// UpsertHoliday cria ou atualiza o feriado da data (seed idempotente).
func UpsertHoliday(ctx context.Context, db *gorm.DB, date time.Time, name, category string) error {
	dateStr := date.Format("2006-01-02")
	return db.WithContext(ctx).Exec(`
		INSERT INTO holidays (holiday_date, name, category)
		VALUES (?::date, ?, ?)
		ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category
	`, dateStr, name, category).Error
}

func DeleteHoliday(ctx context.Context, db *gorm.DB, date time.Time) error {
	dateStr := date.Format("2006-01-02")
	result := db.WithContext(ctx).Exec(`DELETE FROM holidays WHERE holiday_date = ?::date`, dateStr)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
