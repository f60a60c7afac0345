package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
)

// Client is a clinic client. ManualID is the short human identifier shown in
// the UI and accepted by the command interpreter (e.g. "NB-0042").
// Phone is stored encrypted (AES-GCM, versioned key).
type Client struct {
	ID              uuid.UUID
	ManualID        string
	FullName        string
	Email           *string
	PhoneEncrypted  []byte
	PhoneNonce      []byte
	PhoneKeyVersion *string
	PasswordHash    *string
}

func ListClients(ctx context.Context, db *gorm.DB) ([]Client, error) {
	return ListClientsPaginated(ctx, db, 0, 0)
}

// ListClientsPaginated returns clients with limit and offset. If limit is 0, no limit is applied (all rows).
func ListClientsPaginated(ctx context.Context, db *gorm.DB, limit, offset int) ([]Client, error) {
	q := `
		SELECT id, manual_id, full_name, email,
		       phone_encrypted, phone_nonce, phone_key_version
		FROM clients
		WHERE deleted_at IS NULL
		ORDER BY full_name
	`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	var list []Client
	err := db.WithContext(ctx).Raw(q, args...).Scan(&list).Error
	return list, err
}

// ClientsCount returns the total number of clients.
func ClientsCount(ctx context.Context, db *gorm.DB) (int, error) {
	var n int
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM clients WHERE deleted_at IS NULL`).Scan(&n).Error
	return n, err
}

func ClientByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*Client, error) {
	var c Client
	err := db.WithContext(ctx).Raw(`
		SELECT id, manual_id, full_name, email,
		       phone_encrypted, phone_nonce, phone_key_version, password_hash
		FROM clients
		WHERE id = ? AND deleted_at IS NULL
	`, id).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func ClientByEmail(ctx context.Context, db *gorm.DB, email string) (*Client, error) {
	var c Client
	err := db.WithContext(ctx).Raw(`
		SELECT id, manual_id, full_name, email,
		       phone_encrypted, phone_nonce, phone_key_version, password_hash
		FROM clients
		WHERE lower(email) = lower(?) AND deleted_at IS NULL
	`, email).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

// FindClientByIDOrName resolve uma referência livre a um cliente: manual_id
// exato primeiro, depois substring de nome sem acentos nas duas direções.
// A dobra de acentos acontece em memória; a tabela de clientes é pequena.
// Returns nil (no error) when nothing matches.
func FindClientByIDOrName(ctx context.Context, db *gorm.DB, query string) (*Client, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	var c Client
	err := db.WithContext(ctx).Raw(`
		SELECT id, manual_id, full_name, email
		FROM clients
		WHERE lower(manual_id) = lower(?) AND deleted_at IS NULL
	`, query).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID != uuid.Nil {
		return &c, nil
	}

	list, err := ListClients(ctx, db)
	if err != nil {
		return nil, err
	}
	q := scheduling.Fold(query)
	for i := range list {
		name := scheduling.Fold(list[i].FullName)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return &list[i], nil
		}
	}
	return nil, nil
}

// CreateClient inserts a client with the next sequential manual id ("NB-0001", ...).
func CreateClient(ctx context.Context, db *gorm.DB, fullName string, email *string) (uuid.UUID, string, error) {
	var res struct {
		ID       uuid.UUID
		ManualID string
	}
	err := db.WithContext(ctx).Raw(`
		INSERT INTO clients (manual_id, full_name, email)
		VALUES ('NB-' || lpad(nextval('client_manual_seq')::text, 4, '0'), ?, ?)
		RETURNING id, manual_id
	`, fullName, email).Scan(&res).Error
	if err != nil {
		return uuid.Nil, "", err
	}
	return res.ID, res.ManualID, nil
}

func UpdateClient(ctx context.Context, db *gorm.DB, id uuid.UUID, fullName string, email *string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE clients SET full_name = ?, email = ?, updated_at = now()
		WHERE id = ? AND deleted_at IS NULL
	`, fullName, email, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SoftDeleteClient(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE clients SET deleted_at = now(), updated_at = now() WHERE id = ? AND deleted_at IS NULL
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetClientPhone stores the encrypted phone (ciphertext, nonce, key version).
func SetClientPhone(ctx context.Context, db *gorm.DB, id uuid.UUID, phoneEnc, phoneNonce []byte, keyVersion string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE clients
		SET phone_encrypted = ?,
		    phone_nonce = ?,
		    phone_key_version = ?::text,
		    updated_at = now()
		WHERE id = ? AND deleted_at IS NULL
	`, phoneEnc, phoneNonce, keyVersion, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func ClearClientPhone(ctx context.Context, db *gorm.DB, id uuid.UUID) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE clients
		SET phone_encrypted = NULL,
		    phone_nonce = NULL,
		    phone_key_version = NULL,
		    updated_at = now()
		WHERE id = ? AND deleted_at IS NULL
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func SetClientPassword(ctx context.Context, db *gorm.DB, id uuid.UUID, passwordHash string) error {
	result := db.WithContext(ctx).Exec(`
		UPDATE clients SET password_hash = ?, updated_at = now() WHERE id = ? AND deleted_at IS NULL
	`, passwordHash, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClientLabel is used in log lines and notifications ("Ana (NB-0042)").
func ClientLabel(c *Client) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", c.FullName, c.ManualID)
}
