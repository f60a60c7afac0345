package seed

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
)

// Run semeia o admin padrão, a tabela de feriados e alguns clientes de
// demonstração. Todo o seed é idempotente: rodar de novo não duplica nada.
func Run(ctx context.Context, db *gorm.DB, pool *pgxpool.Pool) error {
	if err := seedAdmin(ctx, pool); err != nil {
		return err
	}
	if err := seedHolidays(ctx, db); err != nil {
		return err
	}
	return seedDemoClients(ctx, db)
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool) error {
	hash, err := auth.HashPassword("Admin123!")
	if err != nil {
		return err
	}
	created, err := repo.CreateAdminIfMissing(ctx, pool, "admin@neurobalance.local", hash, "Administração")
	if err != nil {
		return err
	}
	if created {
		log.Printf("seed: admin padrão admin@neurobalance.local criado (troque a senha!)")
	}
	return nil
}

type holidayRow struct {
	month, day int
	name       string
	category   string
}

// Feriados de data fixa. Móveis (Carnaval, Páscoa, Corpus Christi) entram pela
// tabela via API, ano a ano.
var fixedHolidays = []holidayRow{
	{1, 1, "Confraternização Universal", "NACIONAL"},
	{4, 21, "Tiradentes", "NACIONAL"},
	{5, 1, "Dia do Trabalho", "NACIONAL"},
	{9, 7, "Independência do Brasil", "NACIONAL"},
	{10, 12, "Nossa Senhora Aparecida", "NACIONAL"},
	{11, 2, "Finados", "NACIONAL"},
	{11, 15, "Proclamação da República", "NACIONAL"},
	{11, 20, "Dia da Consciência Negra", "NACIONAL"},
	{12, 25, "Natal", "NACIONAL"},
	{1, 25, "Aniversário da Cidade", "MUNICIPAL"},
}

func seedHolidays(ctx context.Context, db *gorm.DB) error {
	year := time.Now().Year()
	count := 0
	for _, y := range []int{year, year + 1} {
		for _, h := range fixedHolidays {
			d := time.Date(y, time.Month(h.month), h.day, 0, 0, 0, 0, time.UTC)
			if err := repo.UpsertHoliday(ctx, db, d, h.name, h.category); err != nil {
				return err
			}
			count++
		}
	}
	log.Printf("seed: %d feriados garantidos (%d e %d)", count, year, year+1)
	return nil
}

func seedDemoClients(ctx context.Context, db *gorm.DB) error {
	var n int
	if err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM clients").Scan(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	log.Printf("seed: sem clientes, inserindo 3 de demonstração")
	names := []struct{ name, email string }{
		{"Ana Beatriz Costa", "ana.costa@demo.local"},
		{"João Pedro Almeida", "joao.almeida@demo.local"},
		{"Maria Clara Souza", "maria.souza@demo.local"},
	}
	for _, c := range names {
		email := c.email
		id, manual, err := repo.CreateClient(ctx, db, c.name, &email)
		if err != nil {
			return err
		}
		// Janela semanal padrão de demonstração: quarta 09:00-10:00, ALTA.
		_, err = repo.CreateWindow(ctx, db, &repo.AvailabilityWindow{
			ClientID:   id,
			DayOfWeek:  3,
			StartTime:  "09:00",
			EndTime:    "10:00",
			Preference: "ALTA",
			Recurrence: "SEMANAL",
			Status:     "ATIVA",
		})
		if err != nil {
			return err
		}
		log.Printf("seed: cliente %s (%s)", c.name, manual)
	}
	return nil
}
