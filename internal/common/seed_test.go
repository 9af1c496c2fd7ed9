package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"statement-ledger-go/internal/memory"
	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

const seedYAML = `
users:
  - name: Alice Johnson
    email: alice.johnson@example.com
  - id: fixed-bob
    name: Bob Smith
    email: bob.smith@example.com
`

func TestLoadUserSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	seeds, err := LoadUserSeeds(path)
	if err != nil {
		t.Fatalf("LoadUserSeeds failed: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("Expected 2 seeds, got %d", len(seeds))
	}
	if seeds[1].Id != "fixed-bob" {
		t.Errorf("Expected fixed-bob, got %s", seeds[1].Id)
	}
}

func TestParseUserSeeds_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing email", "users:\n  - name: Alice\n"},
		{"missing name", "users:\n  - email: a@example.com\n"},
		{"duplicate email", "users:\n  - name: A\n    email: a@example.com\n  - name: B\n    email: a@example.com\n"},
		{"not yaml", "users: [::"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseUserSeeds("users.yaml", []byte(tt.yaml)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestSeedUsers_SkipsExisting(t *testing.T) {
	directory := memory.NewService()
	ctx := context.Background()

	seeds, err := parseUserSeeds("users.yaml", []byte(seedYAML))
	if err != nil {
		t.Fatalf("parseUserSeeds failed: %v", err)
	}

	created, skipped, err := SeedUsers(ctx, directory, seeds)
	if err != nil {
		t.Fatalf("SeedUsers failed: %v", err)
	}
	if created != 2 || skipped != 0 {
		t.Errorf("Expected 2 created 0 skipped, got %d and %d", created, skipped)
	}

	created, skipped, err = SeedUsers(ctx, directory, seeds)
	if err != nil {
		t.Fatalf("SeedUsers rerun failed: %v", err)
	}
	if created != 0 || skipped != 2 {
		t.Errorf("Expected 0 created 2 skipped, got %d and %d", created, skipped)
	}

	if exists, _ := directory.Exists(ctx, "fixed-bob"); !exists {
		t.Errorf("Expected seeded id fixed-bob to exist")
	}
}

func TestResolveUser(t *testing.T) {
	directory := memory.NewService()
	ctx := context.Background()
	if _, err := directory.CreateUser(ctx, "user1", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := ResolveUser(ctx, directory, "", "alice@example.com")
	if err != nil || byEmail.Id != "user1" {
		t.Errorf("Expected user1 by email, got %+v (%v)", byEmail, err)
	}
	byId, err := ResolveUser(ctx, directory, "user1", "")
	if err != nil || byId.Email != "alice@example.com" {
		t.Errorf("Expected alice by id, got %+v (%v)", byId, err)
	}
	if _, err := ResolveUser(ctx, directory, "ghost", ""); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := ResolveUser(ctx, directory, "", ""); err == nil {
		t.Errorf("Expected error without id or email")
	}
}

func TestFormatStatementLine(t *testing.T) {
	line := FormatStatementLine(models.Statement{
		Id:          "stmt-1",
		Type:        models.OperationWithdraw,
		Amount:      decimal.RequireFromString("12.5"),
		Description: "rent",
		CreatedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	for _, want := range []string{"2025-01-02 03:04:05", "withdraw", "-12.50", "stmt-1", "rent"} {
		if !strings.Contains(line, want) {
			t.Errorf("Expected %q in %q", want, line)
		}
	}
}
