package database

import (
	"context"
	"errors"
	"testing"

	"statement-ledger-go/internal/store"
)

func TestCreateUser(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	user, err := service.CreateUser(ctx, "user1", "Test User", "test@example.com")
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Id != "user1" {
		t.Errorf("Expected id user1, got %s", user.Id)
	}

	_, err = service.CreateUser(ctx, "user2", "Other", "test@example.com")
	if !errors.Is(err, store.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists, got %v", err)
	}

	_, err = service.CreateUser(ctx, "user1", "Other", "other@example.com")
	if !errors.Is(err, store.ErrUserAlreadyExists) {
		t.Errorf("Expected ErrUserAlreadyExists for a reused id, got %v", err)
	}
}

func TestExists(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	exists, err := service.Exists(ctx, "user1")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Errorf("Expected user1 to exist")
	}

	exists, err = service.Exists(ctx, "ghost")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Errorf("Expected ghost not to exist")
	}
}

func TestGetUserLookups(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := service.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := service.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.Id != "user1" {
		t.Errorf("Expected id user1, got %s", byEmail.Id)
	}

	if _, err := service.GetUserById(ctx, "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := service.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	users, err := service.GetUsers(ctx)
	if err != nil {
		t.Fatalf("GetUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("Expected 1 user, got %d", len(users))
	}
}
