package formance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/shopspring/decimal"
)

type fakeTransaction struct {
	id          int64
	reference   string
	timestamp   string
	source      string
	destination string
	asset       string
	amount      *big.Int
	metadata    map[string]string
}

type fakeCursor struct {
	field  string
	value  string
	offset int
}

// fakeLedger serves the transaction endpoints of a Formance ledger from
// memory. Lists come back newest first in pages of at most pageSize.
type fakeLedger struct {
	mu       sync.Mutex
	pageSize int
	txs      []fakeTransaction
	cursors  map[string]fakeCursor
	creates  int
	lists    int
}

func (f *fakeLedger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasSuffix(r.URL.Path, "/transactions") {
		writeLedgerError(w, http.StatusNotFound, "NOT_FOUND", "unknown path "+r.URL.Path)
		return
	}

	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	if _, ok := body["script"]; ok {
		f.create(w, body)
		return
	}
	f.list(w, r, body)
}

func (f *fakeLedger) create(w http.ResponseWriter, body map[string]any) {
	f.creates++

	script, _ := body["script"].(map[string]any)
	plain, _ := script["plain"].(string)
	rawVars, _ := script["vars"].(map[string]any)
	vars := make(map[string]string, len(rawVars))
	for k, v := range rawVars {
		vars[k] = fmt.Sprint(v)
	}

	reference, _ := body["reference"].(string)
	for _, tx := range f.txs {
		if tx.reference == reference {
			writeLedgerError(w, http.StatusBadRequest, "CONFLICT", "reference already used")
			return
		}
	}

	amount, ok := new(big.Int).SetString(vars["amount"], 10)
	if !ok {
		writeLedgerError(w, http.StatusBadRequest, "VALIDATION", "bad amount")
		return
	}

	userAccount := "users:" + vars["user_id"]
	tx := fakeTransaction{
		id:        int64(len(f.txs)),
		reference: reference,
		asset:     vars["asset"],
		amount:    amount,
		metadata: map[string]string{
			"event_type":   "statement_recorded",
			"statement_id": vars["statement_id"],
			"user_id":      vars["owner"],
			"amount_human": vars["amount_human"],
			"description":  vars["description"],
		},
	}
	if ts, ok := body["timestamp"].(string); ok {
		tx.timestamp = ts
	} else {
		tx.timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	if strings.Contains(plain, "source = @world") {
		tx.source, tx.destination = "world", userAccount
		tx.metadata["operation_type"] = "deposit"
	} else {
		if f.balance(userAccount).Cmp(amount) < 0 {
			writeLedgerError(w, http.StatusBadRequest, "INSUFFICIENT_FUND", "account has insufficient funds")
			return
		}
		tx.source, tx.destination = userAccount, "world"
		tx.metadata["operation_type"] = "withdraw"
	}

	f.txs = append(f.txs, tx)
	writeLedgerJSON(w, map[string]any{"data": tx.toJSON()})
}

func (f *fakeLedger) list(w http.ResponseWriter, r *http.Request, body map[string]any) {
	f.lists++

	var cur fakeCursor
	if token := r.URL.Query().Get("cursor"); token != "" {
		c, ok := f.cursors[token]
		if !ok {
			writeLedgerError(w, http.StatusBadRequest, "VALIDATION", "unknown cursor")
			return
		}
		cur = c
	} else if match, ok := body["$match"].(map[string]any); ok {
		for key, value := range match {
			cur.field = strings.TrimSuffix(strings.TrimPrefix(key, "metadata["), "]")
			cur.value = fmt.Sprint(value)
		}
	}

	var matched []fakeTransaction
	for _, tx := range f.txs {
		if cur.field == "" || tx.metadata[cur.field] == cur.value {
			matched = append(matched, tx)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].id > matched[j].id })

	size := f.pageSize
	if requested, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && requested > 0 && requested < size {
		size = requested
	}
	end := cur.offset + size
	if end > len(matched) {
		end = len(matched)
	}

	data := make([]map[string]any, 0, end-cur.offset)
	for _, tx := range matched[cur.offset:end] {
		data = append(data, tx.toJSON())
	}

	cursor := map[string]any{
		"pageSize": size,
		"hasMore":  end < len(matched),
		"data":     data,
	}
	if end < len(matched) {
		token := fmt.Sprintf("cursor-%d", len(f.cursors))
		f.cursors[token] = fakeCursor{field: cur.field, value: cur.value, offset: end}
		cursor["next"] = token
	}
	writeLedgerJSON(w, map[string]any{"cursor": cursor})
}

func (f *fakeLedger) requestCounts() (creates, lists int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.lists
}

func (f *fakeLedger) balance(account string) *big.Int {
	total := new(big.Int)
	for _, tx := range f.txs {
		if tx.destination == account {
			total.Add(total, tx.amount)
		}
		if tx.source == account {
			total.Sub(total, tx.amount)
		}
	}
	return total
}

func (tx fakeTransaction) toJSON() map[string]any {
	return map[string]any{
		"id":         big.NewInt(tx.id),
		"timestamp":  tx.timestamp,
		"insertedAt": tx.timestamp,
		"reference":  tx.reference,
		"reverted":   false,
		"metadata":   tx.metadata,
		"postings": []map[string]any{{
			"source":      tx.source,
			"destination": tx.destination,
			"asset":       tx.asset,
			"amount":      tx.amount,
		}},
	}
}

func writeLedgerJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeLedgerError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"errorCode": code, "errorMessage": message})
}

func setupFormanceTest(t *testing.T) (*Service, *fakeLedger) {
	t.Helper()

	ledger := &fakeLedger{pageSize: 2, cursors: make(map[string]fakeCursor)}
	server := httptest.NewServer(ledger)
	t.Cleanup(server.Close)

	client := v3.New(
		v3.WithServerURL(server.URL),
		v3.WithClient(server.Client()),
	)
	return newService(client, "test-ledger", "USD"), ledger
}

func appendStatement(t *testing.T, svc *Service, userId string, opType models.OperationType, amount string) *models.Statement {
	t.Helper()

	recorded, err := svc.Append(context.Background(), models.Statement{
		UserId: userId,
		Type:   opType,
		Amount: decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("Append %s %s failed: %v", opType, amount, err)
	}
	return recorded
}

func TestFormanceStore_ListByOwnerFollowsCursorOldestFirst(t *testing.T) {
	svc, ledger := setupFormanceTest(t)
	ctx := context.Background()

	first := appendStatement(t, svc, "user1", models.OperationDeposit, "1000")
	appendStatement(t, svc, "user2", models.OperationDeposit, "5")
	second := appendStatement(t, svc, "user1", models.OperationWithdraw, "500")
	third := appendStatement(t, svc, "user1", models.OperationDeposit, "200.25")

	statements, err := svc.ListByOwner(ctx, "user1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if _, lists := ledger.requestCounts(); lists < 2 {
		t.Errorf("Expected the list to span two pages, got %d requests", lists)
	}

	wantIds := []string{first.Id, second.Id, third.Id}
	if len(statements) != len(wantIds) {
		t.Fatalf("Expected %d statements, got %d", len(wantIds), len(statements))
	}
	for i, id := range wantIds {
		if statements[i].Id != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, statements[i].Id)
		}
		if statements[i].UserId != "user1" {
			t.Errorf("Position %d: expected owner user1, got %s", i, statements[i].UserId)
		}
	}
	if statements[1].Type != models.OperationWithdraw {
		t.Errorf("Expected withdraw in position 1, got %s", statements[1].Type)
	}
	if !statements[2].Amount.Equal(decimal.RequireFromString("200.25")) {
		t.Errorf("Expected amount 200.25, got %s", statements[2].Amount.String())
	}
}

func TestFormanceStore_ListByOwnerEmpty(t *testing.T) {
	svc, _ := setupFormanceTest(t)

	statements, err := svc.ListByOwner(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if statements == nil || len(statements) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", statements)
	}
}

func TestFormanceStore_FindByOwnerAndId(t *testing.T) {
	svc, _ := setupFormanceTest(t)
	ctx := context.Background()

	own := appendStatement(t, svc, "user1", models.OperationDeposit, "10")
	foreign := appendStatement(t, svc, "user2", models.OperationDeposit, "20")

	found, err := svc.FindByOwnerAndId(ctx, "user1", own.Id)
	if err != nil {
		t.Fatalf("FindByOwnerAndId failed: %v", err)
	}
	if found.Id != own.Id || !found.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Unexpected statement %+v", found)
	}

	if _, err := svc.FindByOwnerAndId(ctx, "user1", foreign.Id); !errors.Is(err, store.ErrStatementNotFound) {
		t.Errorf("Expected ErrStatementNotFound for foreign entry, got %v", err)
	}
	if _, err := svc.FindByOwnerAndId(ctx, "user1", "missing"); !errors.Is(err, store.ErrStatementNotFound) {
		t.Errorf("Expected ErrStatementNotFound for missing entry, got %v", err)
	}
}

func TestFormanceStore_AppendErrorMapping(t *testing.T) {
	svc, ledger := setupFormanceTest(t)
	ctx := context.Background()

	deposit := appendStatement(t, svc, "user1", models.OperationDeposit, "100")

	_, err := svc.Append(ctx, models.Statement{
		Id:     deposit.Id,
		UserId: "user1",
		Type:   models.OperationDeposit,
		Amount: decimal.NewFromInt(1),
	})
	if !errors.Is(err, store.ErrDuplicateStatement) {
		t.Errorf("Expected ErrDuplicateStatement, got %v", err)
	}

	_, err = svc.Append(ctx, models.Statement{
		UserId: "user1",
		Type:   models.OperationWithdraw,
		Amount: decimal.RequireFromString("100.01"),
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got %v", err)
	}

	creates, _ := ledger.requestCounts()
	_, err = svc.Append(ctx, models.Statement{
		UserId: "user1",
		Type:   models.OperationDeposit,
		Amount: decimal.RequireFromString("0.001"),
	})
	if !errors.Is(err, store.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
	if after, _ := ledger.requestCounts(); after != creates {
		t.Errorf("Expected no ledger call for an unrepresentable amount")
	}

	statements, err := svc.ListByOwner(ctx, "user1")
	if err != nil {
		t.Fatalf("ListByOwner failed: %v", err)
	}
	if len(statements) != 1 {
		t.Errorf("Expected rejected appends to leave 1 statement, got %d", len(statements))
	}
}
