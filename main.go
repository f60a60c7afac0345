package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/api"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/auth"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/cache"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/config"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/email"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/middleware"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/migrate"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/repo"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/scheduling"
	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/seed"
)

func main() {
	cfg := config.Load()
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	var pool *pgxpool.Pool
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("config postgres: %v", err)
		}
		if cfg.DBMaxConns > 0 {
			poolConfig.MaxConns = int32(cfg.DBMaxConns)
		}
		if cfg.DBMinConns > 0 {
			poolConfig.MinConns = int32(cfg.DBMinConns)
		}
		if cfg.DBMaxConnLifetime > 0 {
			poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
		}
		pool, err = pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			log.Fatalf("conexão postgres: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			log.Fatalf("gorm postgres: %v", err)
		}
		if err := migrate.Run(context.Background(), db, "migrations"); err != nil {
			log.Fatalf("migrations: %v", err)
		}
		if err := seed.Run(context.Background(), db, pool); err != nil {
			log.Printf("seed (ignored if already applied): %v", err)
		}
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"no database"}`))
			return
		}
		if err := pool.Ping(context.Background()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	stores := &repo.Stores{DB: db}
	engine := &scheduling.Engine{
		Availability: stores,
		Appointments: stores,
		Holidays:     stores,
		Clients:      stores,
		Suggestions:  &repo.SuggestionRepo{DB: db},

		HorizonDays:    cfg.SuggestionHorizonDays,
		MaxSuggestions: cfg.MaxSuggestions,
		ExpiryHours:    cfg.SuggestionExpiryHours,
		SessionMinutes: cfg.SessionMinutes,
	}

	h := &api.Handler{Pool: pool, DB: db, Cfg: cfg, Cache: cache.New(30 * time.Second), Engine: engine}
	h.SetHashPassword(auth.HashPassword)
	if cfg.SMTPHost != "" {
		mailCfg := &email.Config{
			Host:     cfg.SMTPHost,
			Port:     email.PortFromString(cfg.SMTPPort),
			User:     cfg.SMTPUser,
			Pass:     cfg.SMTPPass,
			FromName: cfg.SMTPFromName,
			FromAddr: cfg.SMTPFromEmail,
		}
		mailCfg.LogConfigSummary()
		h.SetSendSuggestionEmail(func(to, fullName string, suggestions []scheduling.SuggestedAppointment) error {
			lines := make([]email.SuggestionLine, 0, len(suggestions))
			for _, s := range suggestions {
				line := email.SuggestionLine{
					Date: s.Date.Format("02/01/2006"),
					Time: s.StartTime,
					Type: s.AppointmentType,
				}
				if s.Score != nil {
					line.Score = *s.Score
				}
				lines = append(lines, line)
			}
			reviewURL := cfg.AppPublicURL + "/sugestoes"
			return mailCfg.SendSuggestionProposal(to, fullName, lines, reviewURL)
		})
		h.SetSendAcceptedEmail(func(to, fullName, dateBR, timeHHMM, appointmentType string) error {
			return mailCfg.SendAppointmentAccepted(to, fullName, dateBR, timeHHMM, appointmentType)
		})
		if cfg.SMTPUser == "" {
			log.Printf("[email] SMTP configurado: %s:%s (sem autenticação). E-mails em dev: veja no MailHog http://localhost:8025", cfg.SMTPHost, cfg.SMTPPort)
		} else {
			log.Printf("[email] SMTP configurado: %s:%s (autenticação ativa)", cfg.SMTPHost, cfg.SMTPPort)
		}
	} else {
		log.Printf("[email] Envio de e-mail desativado: SMTP_HOST vazio. Defina SMTP_HOST para notificar clientes sobre sugestões.")
	}

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/login/client", h.LoginClient).Methods(http.MethodPost)
	// Confirmação de presença via link enviado no lembrete de WhatsApp (token de uso único).
	// OptionalAuth: o link funciona sem login, mas registra o ator na auditoria quando houver sessão.
	r.Handle("/api/appointments/confirm/{token}",
		middleware.OptionalAuth(cfg.JWTSecret, http.HandlerFunc(h.ConfirmAppointmentByToken))).Methods(http.MethodGet)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuthMiddleware(cfg.JWTSecret))
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/me/password", h.ChangeMyPassword).Methods(http.MethodPut)

	protected.Handle("/clients", middleware.RequireAdmin(http.HandlerFunc(h.ListClients))).Methods(http.MethodGet)
	protected.Handle("/clients", middleware.RequireAdmin(http.HandlerFunc(h.CreateClient))).Methods(http.MethodPost)
	protected.HandleFunc("/clients/{id}", h.GetClient).Methods(http.MethodGet)
	protected.Handle("/clients/{id}", middleware.RequireAdmin(http.HandlerFunc(h.PatchClient))).Methods(http.MethodPatch)
	protected.Handle("/clients/{id}", middleware.RequireAdmin(http.HandlerFunc(h.DeleteClient))).Methods(http.MethodDelete)
	protected.Handle("/clients/{id}/phone", middleware.RequireAdmin(http.HandlerFunc(h.PutClientPhone))).Methods(http.MethodPut)
	protected.Handle("/clients/{id}/password", middleware.RequireAdmin(http.HandlerFunc(h.PutClientPassword))).Methods(http.MethodPut)

	protected.HandleFunc("/clients/{id}/availability", h.ListClientWindows).Methods(http.MethodGet)
	protected.Handle("/clients/{id}/availability", middleware.RequireAdmin(http.HandlerFunc(h.CreateClientWindow))).Methods(http.MethodPost)
	protected.Handle("/clients/{id}/availability/{windowId}", middleware.RequireAdmin(http.HandlerFunc(h.UpdateClientWindow))).Methods(http.MethodPut)
	protected.Handle("/clients/{id}/availability/{windowId}/status", middleware.RequireAdmin(http.HandlerFunc(h.PatchClientWindowStatus))).Methods(http.MethodPatch)
	protected.Handle("/clients/{id}/availability/{windowId}", middleware.RequireAdmin(http.HandlerFunc(h.DeleteClientWindow))).Methods(http.MethodDelete)

	protected.Handle("/appointments", middleware.RequireAdmin(http.HandlerFunc(h.ListAppointments))).Methods(http.MethodGet)
	protected.Handle("/appointments", middleware.RequireAdmin(http.HandlerFunc(h.CreateAppointment))).Methods(http.MethodPost)
	protected.Handle("/appointments/{id}", middleware.RequireAdmin(http.HandlerFunc(h.PatchAppointment))).Methods(http.MethodPatch)

	protected.Handle("/schedule/command", middleware.RequireAdmin(http.HandlerFunc(h.PostScheduleCommand))).Methods(http.MethodPost)
	protected.Handle("/schedule/confirm", middleware.RequireAdmin(http.HandlerFunc(h.PostScheduleConfirm))).Methods(http.MethodPost)

	protected.Handle("/clients/{id}/suggestions/generate", middleware.RequireAdmin(http.HandlerFunc(h.GenerateSuggestions))).Methods(http.MethodPost)
	protected.HandleFunc("/clients/{id}/suggestions", h.ListSuggestions).Methods(http.MethodGet)
	protected.HandleFunc("/suggestions/{id}/accept", h.AcceptSuggestion).Methods(http.MethodPost)
	protected.HandleFunc("/suggestions/{id}/reject", h.RejectSuggestion).Methods(http.MethodPost)

	protected.HandleFunc("/holidays", h.GetHolidays).Methods(http.MethodGet)
	protected.Handle("/holidays", middleware.RequireAdmin(http.HandlerFunc(h.PutHoliday))).Methods(http.MethodPut)
	protected.Handle("/holidays/{date}", middleware.RequireAdmin(http.HandlerFunc(h.DeleteHoliday))).Methods(http.MethodDelete)

	chain := middleware.Recover(middleware.RequestID(middleware.Timeout(cfg.RequestTimeoutSec)(middleware.CORS(cfg.CORSOrigins)(middleware.Gzip(r)))))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("backend listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("backend stopped")
}
