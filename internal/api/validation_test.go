package api

import (
	"errors"
	"testing"
)

func TestValidateHHMM(t *testing.T) {
	valid := []string{"00:00", "09:30", "18:00", "23:59"}
	for _, s := range valid {
		if err := ValidateHHMM(s); err != nil {
			t.Errorf("ValidateHHMM(%q) = %v, want nil", s, err)
		}
	}
	invalid := []string{"", "24:00", "9:30", "18:60", "18h00", "18:00:00", "abc"}
	for _, s := range invalid {
		if err := ValidateHHMM(s); err == nil {
			t.Errorf("ValidateHHMM(%q) = nil, want error", s)
		}
	}
}

func TestValidateEmailRegex(t *testing.T) {
	if err := ValidateEmailRegex("ana@clinica.pt"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	for _, s := range []string{"", "semarroba", "a@b", "a b@c.pt"} {
		if err := ValidateEmailRegex(s); err == nil {
			t.Errorf("ValidateEmailRegex(%q) = nil, want error", s)
		}
	}
}

func TestValidateWindow(t *testing.T) {
	base := func() WindowInput {
		return WindowInput{
			DayOfWeek:  3,
			StartTime:  "09:00",
			EndTime:    "10:00",
			Preference: "ALTA",
			Recurrence: "SEMANAL",
			Status:     "ATIVA",
		}
	}
	date := "2026-04-15"

	tests := []struct {
		name    string
		mutate  func(*WindowInput)
		wantErr error
	}{
		{"valid weekly", func(in *WindowInput) {}, nil},
		{"valid one-off", func(in *WindowInput) { in.Recurrence = "AVULSA"; in.WindowDate = &date }, nil},
		{"day too high", func(in *WindowInput) { in.DayOfWeek = 7 }, ErrInvalidDayOfWeek},
		{"day negative", func(in *WindowInput) { in.DayOfWeek = -1 }, ErrInvalidDayOfWeek},
		{"bad start", func(in *WindowInput) { in.StartTime = "25:00" }, ErrInvalidTime},
		{"start after end", func(in *WindowInput) { in.StartTime = "11:00" }, ErrInvalidTimeRange},
		{"start equals end", func(in *WindowInput) { in.EndTime = "09:00" }, ErrInvalidTimeRange},
		{"bad preference", func(in *WindowInput) { in.Preference = "MUITO_ALTA" }, ErrInvalidPreference},
		{"bad recurrence", func(in *WindowInput) { in.Recurrence = "MENSAL" }, ErrInvalidRecurrence},
		{"one-off without date", func(in *WindowInput) { in.Recurrence = "AVULSA" }, ErrMissingDate},
		{"bad status", func(in *WindowInput) { in.Status = "PAUSADA" }, ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base()
			tt.mutate(&in)
			err := ValidateWindow(&in)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateWindow = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateWindow = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatDateBR(t *testing.T) {
	if got := formatDateBR("2026-04-15"); got != "15/04/2026" {
		t.Errorf("formatDateBR = %q, want 15/04/2026", got)
	}
	if got := formatDateBR("15/04/2026"); got != "" {
		t.Errorf("formatDateBR on invalid input = %q, want empty", got)
	}
	if got := formatDateBR(""); got != "" {
		t.Errorf("formatDateBR on empty input = %q, want empty", got)
	}
}
