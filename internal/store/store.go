package store

import (
	"context"
	"errors"

	"statement-ledger-go/internal/models"
)

// Sentinel errors shared across all backend implementations and the
// statement service. Callers match them with errors.Is.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrStatementNotFound    = errors.New("statement not found")
	ErrDuplicateStatement   = errors.New("duplicate statement")
)

// StatementStore is the append-only log of ledger entries.
type StatementStore interface {
	// Append persists a new entry. Id and CreatedAt are assigned when empty.
	// An id that already exists yields ErrDuplicateStatement.
	Append(ctx context.Context, statement models.Statement) (*models.Statement, error)

	// ListByOwner returns the owner's entries in creation order. An owner
	// without entries yields an empty slice.
	ListByOwner(ctx context.Context, userId string) ([]models.Statement, error)

	// FindByOwnerAndId returns ErrStatementNotFound when the entry is absent
	// or belongs to someone else.
	FindByOwnerAndId(ctx context.Context, userId, statementId string) (*models.Statement, error)
}

// UserDirectory resolves users. The statement service only needs Exists;
// the rest is used by the CLI tools.
type UserDirectory interface {
	Exists(ctx context.Context, userId string) (bool, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)
}

// LedgerStore defines the contract that every backend (SQLite, Postgres, Formance, memory) must satisfy.
type LedgerStore interface {
	StatementStore
	UserDirectory

	// --- Lifecycle ---
	Close()
}
