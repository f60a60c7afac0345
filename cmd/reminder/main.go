package main

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/config"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/crypto"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/migrate"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/reminder"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

// Binário de cron: expira sugestões vencidas, envia lembretes de WhatsApp da
// agenda de amanhã e limpa tokens de confirmação antigos. Roda uma vez e sai.
func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	ctx := context.Background()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db.DB: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	if err := migrate.Run(ctx, db, "migrations"); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	tzName := os.Getenv("REMINDER_CRON_TZ")
	if tzName == "" {
		tzName = "Europe/Lisbon"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("REMINDER_CRON_TZ=%s invalid, using UTC: %v", tzName, err)
		loc = time.UTC
	}
	now := time.Now().In(loc)

	expired, err := reminder.ExpireStaleSuggestions(ctx, db, now)
	if err != nil {
		log.Printf("[reminder] expirar sugestões: %v", err)
	} else if expired > 0 {
		log.Printf("[reminder] %d sugestão(ões) marcadas como EXPIRED", expired)
	}

	keys, err := crypto.ParseKeysEnv(cfg.DataEncryptionKeys)
	if err != nil {
		log.Fatalf("DATA_ENCRYPTION_KEYS: %v", err)
	}
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	sent, skipped := reminder.SendAppointmentReminders(ctx, db, tomorrow, reminder.Options{
		Sender:        reminder.DefaultWhatsAppSender(cfg.TwilioAccountSid, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom),
		Keys:          keys,
		BackendPublic: cfg.BackendPublicURL,
	})

	removed, err := repo.DeleteExpiredReminderTokens(ctx, db)
	if err != nil {
		log.Printf("[reminder] limpar tokens: %v", err)
	} else if removed > 0 {
		log.Printf("[reminder] %d token(s) de confirmação expirados removidos", removed)
	}

	log.Printf("[reminder] done: sent=%d skipped=%d expired=%d date=%s", sent, skipped, expired, tomorrow.Format("2006-01-02"))
	os.Exit(0)
}
