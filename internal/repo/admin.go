package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Admin struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Status       string
}

func AdminByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*Admin, error) {
	var a Admin
	err := pool.QueryRow(ctx, `
		SELECT id, email, password_hash, full_name, status
		FROM admins WHERE lower(email) = lower($1) AND status != 'CANCELLED'
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FullName, &a.Status)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdminIfMissing inserts the admin when the email is not taken yet.
// Used by the idempotent seed.
func CreateAdminIfMissing(ctx context.Context, pool *pgxpool.Pool, email, passwordHash, fullName string) (bool, error) {
	tag, err := pool.Exec(ctx, `
		INSERT INTO admins (email, password_hash, full_name, status)
		VALUES ($1, $2, $3, 'ACTIVE')
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash, fullName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
