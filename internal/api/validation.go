package api

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidTime       = errors.New("invalid time")
	ErrInvalidTimeRange  = errors.New("invalid time range")
	ErrInvalidDayOfWeek  = errors.New("invalid day of week")
	ErrInvalidPreference = errors.New("invalid preference")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrMissingDate       = errors.New("window date required")
)

// emailRegex valida formato de e-mail (uma @ e domínio com ponto).
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmailRegex valida formato de e-mail com o regex padrão do backend.
func ValidateEmailRegex(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

var hhmmRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateHHMM aceita apenas "HH:MM" de 00:00 a 23:59.
func ValidateHHMM(s string) error {
	if !hhmmRegex.MatchString(s) {
		return ErrInvalidTime
	}
	return nil
}

// WindowInput representa os campos de uma janela de disponibilidade para validação.
type WindowInput struct {
	DayOfWeek  int
	StartTime  string
	EndTime    string
	Preference string
	Recurrence string
	Status     string
	WindowDate *string // YYYY-MM-DD, obrigatório quando Recurrence=AVULSA
}

// ValidateWindow valida os campos de uma janela: dia 0-6, horários HH:MM com
// início < fim, enums de preferência/recorrência/status, e data concreta
// obrigatória para janelas AVULSA.
func ValidateWindow(in *WindowInput) error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if err := ValidateHHMM(in.StartTime); err != nil {
		return err
	}
	if err := ValidateHHMM(in.EndTime); err != nil {
		return err
	}
	if in.StartTime >= in.EndTime {
		return ErrInvalidTimeRange
	}
	switch in.Preference {
	case "ALTA", "MEDIA", "BAIXA":
	default:
		return ErrInvalidPreference
	}
	switch in.Recurrence {
	case "SEMANAL":
	case "AVULSA":
		if in.WindowDate == nil || strings.TrimSpace(*in.WindowDate) == "" {
			return ErrMissingDate
		}
		if _, err := time.Parse("2006-01-02", *in.WindowDate); err != nil {
			return ErrMissingDate
		}
	default:
		return ErrInvalidRecurrence
	}
	switch in.Status {
	case "ATIVA", "INATIVA", "TEMPORARIA":
	default:
		return ErrInvalidStatus
	}
	return nil
}

// formatDateBR converte YYYY-MM-DD em DD/MM/YYYY; retorna "" se inválido.
func formatDateBR(iso string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(iso))
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}
