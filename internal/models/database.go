package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is the kind of monetary movement a statement records
type OperationType string

const (
	OperationDeposit  OperationType = "deposit"
	OperationWithdraw OperationType = "withdraw"
)

// Valid reports whether t is one of the known operation types
func (t OperationType) Valid() bool {
	return t == OperationDeposit || t == OperationWithdraw
}

// User represents a user in the directory
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Statement is one immutable ledger entry. Amount is always positive;
// the direction of the movement comes from Type.
type Statement struct {
	Id          string          `db:"id" json:"id"`
	UserId      string          `db:"user_id" json:"user_id"`
	Type        OperationType   `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Signed returns the amount with the sign implied by the operation type
func (s Statement) Signed() decimal.Decimal {
	if s.Type == OperationWithdraw {
		return s.Amount.Neg()
	}
	return s.Amount
}
