package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"spendtrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "spendtrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateUserAndLogin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateUser(ctx, "alice", "hash", "alice@example.com")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero user id")
	}

	byName, err := repo.GetUserByLogin(ctx, "alice")
	if err != nil {
		t.Fatalf("lookup by username: %v", err)
	}
	byMail, err := repo.GetUserByLogin(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("lookup by email: %v", err)
	}
	if byName.ID != id || byMail.ID != id {
		t.Fatalf("lookups disagree: %d, %d, want %d", byName.ID, byMail.ID, id)
	}

	if _, err := repo.CreateUser(ctx, "alice", "other", ""); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate username: got %v, want ErrUserExists", err)
	}
	if _, err := repo.GetUserByLogin(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: got %v, want ErrUserNotFound", err)
	}
}

func TestGetOrCreateGoogleUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.GetOrCreateGoogleUser(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("first sign-in: %v", err)
	}
	again, err := repo.GetOrCreateGoogleUser(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if first.ID != again.ID {
		t.Fatalf("sign-in created a second account: %d vs %d", first.ID, again.ID)
	}
}

func TestAppendAndFetchOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID, err := repo.CreateUser(ctx, "carol", "hash", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	records := []core.ExpenseRecord{
		{Amount: core.Money{Cents: 10000}, Category: core.Food, Date: core.NewDate(2024, 1, 5), IsNecessary: true, Description: "groceries"},
		{Amount: core.Money{Cents: 5000}, Category: core.Food, Date: core.NewDate(2024, 1, 20)},
		{Amount: core.Money{Cents: 20000}, Category: core.Transport, Date: core.NewDate(2024, 2, 1), IsNecessary: true},
	}
	for _, e := range records {
		if _, err := repo.Append(ctx, userID, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	ledger, err := repo.Fetch(ctx, userID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(ledger) != 3 {
		t.Fatalf("ledger length = %d, want 3", len(ledger))
	}
	// Newest first.
	if ledger[0].Category != core.Transport || ledger[2].Amount.Cents != 10000 {
		t.Fatalf("ledger not date-descending: %+v", ledger)
	}
	if !ledger[0].IsNecessary || ledger[1].IsNecessary {
		t.Fatal("necessity flags not round-tripped")
	}
	if ledger[2].Description != "groceries" {
		t.Fatalf("description = %q", ledger[2].Description)
	}
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID, _ := repo.CreateUser(ctx, "dave", "hash", "")
	bad := core.ExpenseRecord{Amount: core.Money{Cents: -1}, Category: core.Food, Date: core.NewDate(2024, 1, 1)}
	if _, err := repo.Append(ctx, userID, bad); err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestLedgersAreDisjointPerUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.CreateUser(ctx, "erin", "hash", "")
	b, _ := repo.CreateUser(ctx, "frank", "hash", "")

	if _, err := repo.Append(ctx, a, core.ExpenseRecord{
		Amount: core.Money{Cents: 100}, Category: core.Food, Date: core.NewDate(2024, 1, 1),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	other, err := repo.Fetch(ctx, b)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("user b sees %d foreign records", len(other))
	}
}

func TestAnomalyFlagsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	userID, _ := repo.CreateUser(ctx, "grace", "hash", "")
	id1, _ := repo.Append(ctx, userID, core.ExpenseRecord{
		Amount: core.Money{Cents: 100}, Category: core.Food, Date: core.NewDate(2024, 1, 1),
	})
	id2, _ := repo.Append(ctx, userID, core.ExpenseRecord{
		Amount: core.Money{Cents: 900000}, Category: core.Food, Date: core.NewDate(2024, 1, 2),
	})

	flags := []AnomalyFlag{{ExpenseID: id1, Label: "Normal"}, {ExpenseID: id2, Label: "Anomaly"}}
	if err := repo.ReplaceAnomalyFlags(ctx, userID, flags); err != nil {
		t.Fatalf("replace flags: %v", err)
	}

	got, err := repo.FetchAnomalyFlags(ctx, userID)
	if err != nil {
		t.Fatalf("fetch flags: %v", err)
	}
	if got[id1] != "Normal" || got[id2] != "Anomaly" {
		t.Fatalf("flags = %v", got)
	}

	// Replace swaps, never accumulates.
	if err := repo.ReplaceAnomalyFlags(ctx, userID, flags[1:]); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, _ = repo.FetchAnomalyFlags(ctx, userID)
	if len(got) != 1 {
		t.Fatalf("flags after replace = %v, want only expense %d", got, id2)
	}
}
