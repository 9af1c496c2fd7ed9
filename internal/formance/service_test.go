package formance

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"USD", "USD/2"},
		{"JPY", "JPY/0"},
		{"UNKNOWN", "UNKNOWN/2"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount  string
		symbol  string
		want    string
		wantErr bool
	}{
		{"1000", "USD", "100000", false},
		{"12.34", "USD", "1234", false},
		{"0.1", "USD", "10", false},
		{"12.345", "USD", "", true},
		{"500", "JPY", "500", false},
		{"0.5", "JPY", "", true},
	}
	for _, tt := range tests {
		got, err := toMinorUnits(decimal.RequireFromString(tt.amount), tt.symbol)
		if tt.wantErr {
			if !errors.Is(err, store.ErrInvalidAmount) {
				t.Errorf("toMinorUnits(%s, %s): expected ErrInvalidAmount, got %v", tt.amount, tt.symbol, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("toMinorUnits(%s, %s) failed: %v", tt.amount, tt.symbol, err)
			continue
		}
		if got != tt.want {
			t.Errorf("toMinorUnits(%s, %s) = %s, want %s", tt.amount, tt.symbol, got, tt.want)
		}
	}
}

func TestNumscriptFor(t *testing.T) {
	if script, err := numscriptFor(models.OperationDeposit); err != nil || script != numscriptDeposit {
		t.Errorf("expected deposit script, got err %v", err)
	}
	if script, err := numscriptFor(models.OperationWithdraw); err != nil || script != numscriptWithdraw {
		t.Errorf("expected withdraw script, got err %v", err)
	}
	if _, err := numscriptFor("transfer"); !errors.Is(err, store.ErrInvalidOperationType) {
		t.Errorf("expected ErrInvalidOperationType, got %v", err)
	}
}

func TestTransactionToStatement(t *testing.T) {
	svc := &Service{asset: "USD"}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ref := "stmt-1"

	tx := &shared.V2Transaction{
		ID:        big.NewInt(7),
		Reference: &ref,
		Timestamp: ts,
		Metadata: map[string]string{
			"statement_id":   "stmt-1",
			"user_id":        "user1",
			"operation_type": "withdraw",
			"amount_human":   "12.5",
			"description":    "rent",
		},
	}

	statement, err := svc.transactionToStatement(tx)
	if err != nil {
		t.Fatalf("transactionToStatement failed: %v", err)
	}
	if statement.Id != "stmt-1" || statement.UserId != "user1" {
		t.Errorf("unexpected identifiers: %+v", statement)
	}
	if statement.Type != models.OperationWithdraw {
		t.Errorf("expected withdraw, got %s", statement.Type)
	}
	if !statement.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected 12.5, got %s", statement.Amount)
	}
	if !statement.CreatedAt.Equal(ts) {
		t.Errorf("expected %s, got %s", ts, statement.CreatedAt)
	}
}

func TestTransactionToStatement_FallsBackToPostings(t *testing.T) {
	svc := &Service{asset: "USD"}
	ref := "stmt-2"

	tx := &shared.V2Transaction{
		ID:        big.NewInt(8),
		Reference: &ref,
		Metadata: map[string]string{
			"user_id":        "user1",
			"operation_type": "deposit",
		},
		Postings: []shared.V2Posting{
			{Source: "world", Destination: "users:user1", Asset: "USD/2", Amount: big.NewInt(1050)},
		},
	}

	statement, err := svc.transactionToStatement(tx)
	if err != nil {
		t.Fatalf("transactionToStatement failed: %v", err)
	}
	if statement.Id != "stmt-2" {
		t.Errorf("expected id from reference, got %s", statement.Id)
	}
	if !statement.Amount.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("expected 10.50, got %s", statement.Amount)
	}
}

func TestTransactionToStatement_UnknownType(t *testing.T) {
	svc := &Service{asset: "USD"}
	tx := &shared.V2Transaction{
		ID:       big.NewInt(9),
		Metadata: map[string]string{"operation_type": "conversion"},
	}
	if _, err := svc.transactionToStatement(tx); err == nil {
		t.Error("expected error for unknown operation type")
	}
}

func TestIsConflictError(t *testing.T) {
	// nil error should not be a conflict
	if isConflictError(nil) {
		t.Error("nil should not be a conflict error")
	}
	if isInsufficientFundError(errors.New("plain")) {
		t.Error("plain error should not be an insufficient fund error")
	}
}

func TestUserAddress(t *testing.T) {
	if got := userAddress("abc"); got != "users:abc" {
		t.Errorf("userAddress = %q, want users:abc", got)
	}
}

func TestIsUserAccount(t *testing.T) {
	tests := map[string]bool{
		"users:abc":         true,
		"users:abc:savings": false,
		"users:":            false,
		"world":             false,
		"merchants:abc":     false,
	}
	for address, want := range tests {
		if got := isUserAccount(address); got != want {
			t.Errorf("isUserAccount(%q) = %v, want %v", address, got, want)
		}
	}
}

func TestAccountToUser(t *testing.T) {
	firstUsage := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	acct := &shared.V2Account{
		Address: "users:u1",
		Metadata: map[string]string{
			"name":          "Alice",
			"email":         "alice@example.com",
			"registered_at": "2025-01-02T03:04:05Z",
		},
		FirstUsage: &firstUsage,
	}

	user := accountToUser(acct)
	if user.Id != "u1" || user.Name != "Alice" || user.Email != "alice@example.com" {
		t.Errorf("Unexpected user %+v", user)
	}
	if !user.CreatedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("Expected registered_at to win, got %v", user.CreatedAt)
	}

	delete(acct.Metadata, "registered_at")
	if got := accountToUser(acct).CreatedAt; !got.Equal(firstUsage) {
		t.Errorf("Expected first usage fallback, got %v", got)
	}
}
