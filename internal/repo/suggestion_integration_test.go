//go:build integration

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zurcluis/neurobalance-client-hub-sub000/internal/testutil"
)

func openDBForSuggestionTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, url := testutil.OpenDB(context.Background())
	if db == nil {
		if url == "" {
			t.Skip("DATABASE_URL not set")
		} else {
			t.Skipf("database at %s unavailable", url)
		}
		return nil
	}
	if err := testutil.MustMigrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestIntegration_SuggestionStatusGuard(t *testing.T) {
	ctx := context.Background()
	db := openDBForSuggestionTest(t)
	if db == nil {
		return
	}

	clientID, _, err := CreateClient(ctx, db, "Cliente Teste Integração", nil)
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	s := &Suggestion{
		ID:              uuid.New(),
		ClientID:        &clientID,
		ClientName:      "Cliente Teste Integração",
		SuggestionDate:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		StartTime:       "09:00",
		AppointmentType: "sessão",
		Reasons:         []byte(`["preferência alta do cliente"]`),
		Status:          "PENDING",
		ExpiresAt:       time.Now().Add(72 * time.Hour),
		CreatedAt:       time.Now(),
	}
	if err := InsertSuggestion(ctx, db, s); err != nil {
		t.Fatalf("InsertSuggestion: %v", err)
	}

	ok, err := UpdateSuggestionStatusFromPending(ctx, db, s.ID, "ACCEPTED")
	if err != nil {
		t.Fatalf("UpdateSuggestionStatusFromPending: %v", err)
	}
	if !ok {
		t.Fatal("first transition must change the row")
	}

	// O guard WHERE status = 'PENDING' segura a segunda transição.
	ok, err = UpdateSuggestionStatusFromPending(ctx, db, s.ID, "REJECTED")
	if err != nil {
		t.Fatalf("UpdateSuggestionStatusFromPending: %v", err)
	}
	if ok {
		t.Fatal("second transition must change nothing")
	}

	got, err := SuggestionByID(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("SuggestionByID: %v", err)
	}
	if got.Status != "ACCEPTED" {
		t.Errorf("status = %s, want ACCEPTED", got.Status)
	}
}

func TestIntegration_ExpiredSuggestionsHiddenNotMutated(t *testing.T) {
	ctx := context.Background()
	db := openDBForSuggestionTest(t)
	if db == nil {
		return
	}

	clientID, _, err := CreateClient(ctx, db, "Cliente Teste Expiração", nil)
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	s := &Suggestion{
		ID:              uuid.New(),
		ClientID:        &clientID,
		ClientName:      "Cliente Teste Expiração",
		SuggestionDate:  time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		AppointmentType: "sessão",
		Reasons:         []byte(`[]`),
		Status:          "PENDING",
		ExpiresAt:       time.Now().Add(-time.Hour),
		CreatedAt:       time.Now().Add(-73 * time.Hour),
	}
	if err := InsertSuggestion(ctx, db, s); err != nil {
		t.Fatalf("InsertSuggestion: %v", err)
	}

	list, err := ListSuggestionsByClient(ctx, db, clientID, false)
	if err != nil {
		t.Fatalf("ListSuggestionsByClient: %v", err)
	}
	for _, row := range list {
		if row.ID == s.ID {
			t.Fatal("expired pending suggestion must be hidden")
		}
	}

	got, err := SuggestionByID(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("SuggestionByID: %v", err)
	}
	if got.Status != "PENDING" {
		t.Errorf("listing must not rewrite status, got %s", got.Status)
	}

	// O sweeper é quem reescreve.
	n, err := MarkSuggestionsExpiredBefore(ctx, db, time.Now())
	if err != nil {
		t.Fatalf("MarkSuggestionsExpiredBefore: %v", err)
	}
	if n < 1 {
		t.Errorf("expected at least 1 row expired, got %d", n)
	}
	got, err = SuggestionByID(ctx, db, s.ID)
	if err != nil {
		t.Fatalf("SuggestionByID: %v", err)
	}
	if got.Status != "EXPIRED" {
		t.Errorf("status = %s, want EXPIRED", got.Status)
	}
}
