package reminder

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/crypto"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/whatsapp"
)

const auditActionReminderSent = "APPOINTMENT_REMINDER_SENT"
const auditActionSuggestionsExpired = "SUGGESTIONS_EXPIRED"
const auditSourceSystem = "SYSTEM"

// reminderTokenTTL: o link de confirmação vale até depois da própria consulta.
const reminderTokenTTL = 36 * time.Hour

// WhatsAppSender sends a reminder to a phone number.
type WhatsAppSender interface {
	SendReminder(phone, clientName, dateStr, timeStr, confirmURL string) error
}

// AppointmentLister returns appointments for reminder on a given date. Used in tests with a mock; in production pass nil to use repo.
type AppointmentLister interface {
	ListAppointmentsForReminder(ctx context.Context, db *gorm.DB, date time.Time) ([]repo.AppointmentReminderRow, error)
}

// Options carries what the reminder run needs beyond the DB handle.
type Options struct {
	Sender        WhatsAppSender
	Keys          map[string][]byte // data encryption keys, by version
	BackendPublic string            // base URL for the confirm link; empty disables links
	Lister        AppointmentLister // nil = repo
}

// SendAppointmentReminders loads appointments for the given date (tomorrow in
// practice), decrypts each client's phone and sends one WhatsApp reminder per
// appointment, with a one-tap confirmation link. Failures per recipient are
// logged and do not stop the rest.
func SendAppointmentReminders(ctx context.Context, db *gorm.DB, date time.Time, opts Options) (sent int, skipped int) {
	if db == nil && opts.Lister == nil {
		log.Printf("[reminder] db is nil and no lister, skipping")
		return 0, 0
	}
	var rows []repo.AppointmentReminderRow
	var err error
	if opts.Lister != nil {
		rows, err = opts.Lister.ListAppointmentsForReminder(ctx, db, date)
	} else {
		rows, err = repo.ListAppointmentsForReminder(ctx, db, date)
	}
	if err != nil {
		log.Printf("[reminder] ListAppointmentsForReminder: %v", err)
		return 0, 0
	}
	if opts.Sender == nil {
		log.Printf("[reminder] WhatsApp not configured, would send %d reminders", len(rows))
		return 0, len(rows)
	}
	dateStr := date.Format("02/01/2006")
	for _, r := range rows {
		phone, ok := decryptPhone(r, opts.Keys)
		if !ok {
			log.Printf("[reminder] appointment=%s client=%s: telefone indecifrável, pulando", r.AppointmentID, r.ClientID)
			skipped++
			continue
		}
		confirmURL := ""
		if opts.BackendPublic != "" && db != nil {
			// Token opaco: hash do uuid, para o link não expor identificadores.
			token := crypto.SHA256Hex([]byte(uuid.New().String()))
			if err := repo.CreateReminderToken(ctx, db, r.AppointmentID, token, time.Now().Add(reminderTokenTTL)); err != nil {
				log.Printf("[reminder] token appointment=%s: %v", r.AppointmentID, err)
			} else {
				confirmURL = opts.BackendPublic + "/api/appointments/confirm/" + token
			}
		}
		timeStr := repo.TimeStringToHHMM(r.StartTime)
		if err := opts.Sender.SendReminder(phone, r.ClientName, dateStr, timeStr, confirmURL); err != nil {
			log.Printf("[reminder] send failed appointment=%s client=%s: %v", r.AppointmentID, r.ClientID, err)
			skipped++
			continue
		}
		sent++
		log.Printf("[reminder] sent appointment=%s client=%s", r.AppointmentID, r.ClientID)
		if db != nil {
			actor := auditSourceSystem
			_ = repo.CreateAuditEventDB(ctx, db, repo.AuditEvent{
				ActorType: &actor,
				Action:    auditActionReminderSent,
				ClientID:  &r.ClientID,
				Metadata:  map[string]string{"appointment_id": r.AppointmentID.String()},
			})
		}
	}
	return sent, skipped
}

func decryptPhone(r repo.AppointmentReminderRow, keys map[string][]byte) (string, bool) {
	if len(r.PhoneEncrypted) == 0 || r.PhoneKeyVersion == nil {
		return "", false
	}
	plain, err := crypto.Decrypt(r.PhoneEncrypted, r.PhoneNonce, *r.PhoneKeyVersion, keys)
	if err != nil {
		return "", false
	}
	return string(plain), true
}

// ExpireStaleSuggestions rewrites pending suggestions past their expires_at to
// EXPIRED. Listings already hide them; this keeps stored status honest for
// reporting.
func ExpireStaleSuggestions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	n, err := repo.MarkSuggestionsExpiredBefore(ctx, db, now)
	if err != nil {
		log.Printf("[reminder] MarkSuggestionsExpiredBefore: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("[reminder] %d sugestões expiradas", n)
		actor := auditSourceSystem
		_ = repo.CreateAuditEventDB(ctx, db, repo.AuditEvent{
			ActorType: &actor,
			Action:    auditActionSuggestionsExpired,
			Metadata:  map[string]int64{"count": n},
		})
	}
	return n, nil
}

// DefaultWhatsAppSender returns a whatsapp.Client from the given config, or nil if not configured.
func DefaultWhatsAppSender(accountSid, authToken, from string) WhatsAppSender {
	if accountSid == "" || authToken == "" || from == "" {
		return nil
	}
	return whatsapp.NewClient(whatsapp.Config{
		AccountSid: accountSid,
		AuthToken:  authToken,
		From:       from,
	})
}
