package formance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript templates. All statement fields are set inside the script via
// set_tx_meta() so the Formance transaction is fully self-describing.
// ---------------------------------------------------------------------------

const numscriptDeposit = `vars {
  asset $asset
  number $amount
  account $user_id
  string $statement_id
  string $owner
  string $amount_human
  string $description
}

send [$asset $amount] (
  source = @world
  destination = @users:$user_id
)

set_tx_meta("event_type", "statement_recorded")
set_tx_meta("operation_type", "deposit")
set_tx_meta("statement_id", $statement_id)
set_tx_meta("user_id", $owner)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("description", $description)
`

// The user account may not overdraft, so the ledger refuses a withdrawal
// the balance cannot cover even if the caller skipped its own check.
const numscriptWithdraw = `vars {
  asset $asset
  number $amount
  account $user_id
  string $statement_id
  string $owner
  string $amount_human
  string $description
}

send [$asset $amount] (
  source = @users:$user_id
  destination = @world
)

set_tx_meta("event_type", "statement_recorded")
set_tx_meta("operation_type", "withdraw")
set_tx_meta("statement_id", $statement_id)
set_tx_meta("user_id", $owner)
set_tx_meta("amount_human", $amount_human)
set_tx_meta("description", $description)
`

const listPageSize = int64(100)

func (s *Service) Append(ctx context.Context, statement models.Statement) (*models.Statement, error) {
	if statement.Id == "" {
		statement.Id = uuid.New().String()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}

	script, err := numscriptFor(statement.Type)
	if err != nil {
		return nil, err
	}
	smallAmt, err := toMinorUnits(statement.Amount, s.asset)
	if err != nil {
		return nil, err
	}

	timestamp := statement.CreatedAt
	_, err = s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger: s.ledger,
		V2PostTransaction: shared.V2PostTransaction{
			Reference: strPtr(statement.Id),
			Timestamp: &timestamp,
			Script: &shared.V2PostTransactionScript{
				Plain: script,
				Vars: map[string]string{
					"asset":        formanceAsset(s.asset),
					"amount":       smallAmt,
					"user_id":      statement.UserId,
					"statement_id": statement.Id,
					"owner":        statement.UserId,
					"amount_human": statement.Amount.String(),
					"description":  statement.Description,
				},
			},
		},
	})
	if err != nil {
		if isConflictError(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateStatement, statement.Id)
		}
		if isInsufficientFundError(err) {
			return nil, fmt.Errorf("%w: rejected by ledger", store.ErrInsufficientFunds)
		}
		return nil, fmt.Errorf("error recording statement transaction: %w", err)
	}

	zap.L().Info("Statement recorded in Formance",
		zap.String("statement_id", statement.Id),
		zap.String("user_id", statement.UserId),
		zap.String("type", string(statement.Type)),
		zap.String("amount", statement.Amount.String()))

	return &statement, nil
}

func (s *Service) ListByOwner(ctx context.Context, userId string) ([]models.Statement, error) {
	txs, err := s.listTransactions(ctx, map[string]any{
		"$match": map[string]any{"metadata[user_id]": userId},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}

	// The ledger lists newest first; statements are returned oldest first.
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].ID.Cmp(txs[j].ID) < 0
	})

	statements := make([]models.Statement, 0, len(txs))
	for i := range txs {
		statement, err := s.transactionToStatement(&txs[i])
		if err != nil {
			return nil, err
		}
		statements = append(statements, *statement)
	}
	return statements, nil
}

func (s *Service) FindByOwnerAndId(ctx context.Context, userId, statementId string) (*models.Statement, error) {
	pageSize := int64(1)
	resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   s.ledger,
		PageSize: &pageSize,
		RequestBody: map[string]any{
			"$match": map[string]any{"metadata[statement_id]": statementId},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query statement: %w", err)
	}

	data := resp.V2TransactionsCursorResponse.Cursor.Data
	if len(data) == 0 || data[0].Metadata["user_id"] != userId {
		return nil, fmt.Errorf("%w: %s", store.ErrStatementNotFound, statementId)
	}
	return s.transactionToStatement(&data[0])
}

// listTransactions follows the cursor until every matching transaction is loaded
func (s *Service) listTransactions(ctx context.Context, filter map[string]any) ([]shared.V2Transaction, error) {
	var all []shared.V2Transaction
	pageSize := listPageSize
	var cursor *string

	for {
		req := operations.V2ListTransactionsRequest{
			Ledger:   s.ledger,
			PageSize: &pageSize,
			Cursor:   cursor,
		}
		// The filter body is only accepted on the first page; the cursor carries it afterwards.
		if cursor == nil {
			req.RequestBody = filter
		}

		resp, err := s.client.Ledger.V2.ListTransactions(ctx, req)
		if err != nil {
			return nil, err
		}

		page := resp.V2TransactionsCursorResponse.Cursor
		all = append(all, page.Data...)
		if !page.HasMore || page.Next == nil {
			return all, nil
		}
		cursor = page.Next
	}
}

func (s *Service) transactionToStatement(tx *shared.V2Transaction) (*models.Statement, error) {
	meta := tx.Metadata

	amount, err := decimal.NewFromString(meta["amount_human"])
	if err != nil {
		amount = postedAmount(tx, s.asset)
	}

	statement := &models.Statement{
		Id:          meta["statement_id"],
		UserId:      meta["user_id"],
		Type:        models.OperationType(meta["operation_type"]),
		Amount:      amount,
		Description: meta["description"],
		CreatedAt:   tx.Timestamp.UTC(),
	}
	if statement.Id == "" && tx.Reference != nil {
		statement.Id = *tx.Reference
	}
	if !statement.Type.Valid() {
		return nil, fmt.Errorf("transaction %s carries unknown operation type %q", tx.ID.String(), meta["operation_type"])
	}
	return statement, nil
}

// postedAmount sums the postings in the configured asset
func postedAmount(tx *shared.V2Transaction, symbol string) decimal.Decimal {
	total := decimal.Zero
	fAsset := formanceAsset(symbol)
	for _, p := range tx.Postings {
		if p.Asset != fAsset || p.Amount == nil {
			continue
		}
		total = total.Add(decimal.NewFromBigInt(p.Amount, -int32(precisionFor(symbol))))
	}
	return total
}

func numscriptFor(opType models.OperationType) (string, error) {
	switch opType {
	case models.OperationDeposit:
		return numscriptDeposit, nil
	case models.OperationWithdraw:
		return numscriptWithdraw, nil
	default:
		return "", fmt.Errorf("%w: %q", store.ErrInvalidOperationType, opType)
	}
}
