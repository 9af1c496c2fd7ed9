package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"statement-ledger-go/internal/database"
	"statement-ledger-go/internal/models"
)

func setupStatementCommand(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "statements.db")
	t.Setenv("LEDGER_BACKEND", "sqlite")
	t.Setenv("DATABASE_PATH", path)
	t.Setenv("LOCK_BACKEND", "local")
	t.Setenv("KAFKA_BROKERS", "")

	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer svc.Close()

	if _, err := svc.CreateUser(context.Background(), "user1", "Alice", "alice@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return path
}

func runStatement(t *testing.T, args ...string) int {
	t.Helper()

	oldArgs, oldFlags := os.Args, flag.CommandLine
	t.Cleanup(func() {
		os.Args, flag.CommandLine = oldArgs, oldFlags
	})

	os.Args = append([]string{"statement"}, args...)
	flag.CommandLine = flag.NewFlagSet("statement", flag.ContinueOnError)
	return run(context.Background())
}

func TestRun_ExitCodes(t *testing.T) {
	setupStatementCommand(t)

	if code := runStatement(t, "--user", "user1", "--type", "deposit", "--amount", "100"); code != 0 {
		t.Fatalf("Expected deposit to exit 0, got %d", code)
	}
	if code := runStatement(t, "--email", "alice@example.com", "--type", "withdraw", "--amount", "100"); code != 0 {
		t.Errorf("Expected withdrawal of the full balance to exit 0, got %d", code)
	}
	if code := runStatement(t, "--user", "user1", "--type", "withdraw", "--amount", "0.01"); code != 1 {
		t.Errorf("Expected overdraft to exit 1, got %d", code)
	}
	if code := runStatement(t, "--user", "ghost", "--type", "deposit", "--amount", "1"); code != 1 {
		t.Errorf("Expected unknown user to exit 1, got %d", code)
	}
	if code := runStatement(t, "--user", "user1", "--type", "deposit"); code != 2 {
		t.Errorf("Expected missing amount to exit 2, got %d", code)
	}
}

func TestRun_ReleasesDatabase(t *testing.T) {
	path := setupStatementCommand(t)

	if code := runStatement(t, "--user", "user1", "--type", "deposit", "--amount", "25.50", "--description", "salary"); code != 0 {
		t.Fatalf("Expected deposit to exit 0, got %d", code)
	}

	// run has closed its connections; a fresh handle sees the committed entry
	svc, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         path,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer svc.Close()

	statements, err := svc.ListByOwner(context.Background(), "user1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(statements) != 1 || statements[0].Description != "salary" {
		t.Errorf("Expected one salary deposit, got %+v", statements)
	}
}
