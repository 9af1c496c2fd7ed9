package statement

import (
	"context"
	"fmt"
	"strings"

	"statement-ledger-go/internal/events"
	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateStatementParams contains the parameters for recording a ledger entry
type CreateStatementParams struct {
	UserId      string
	Type        models.OperationType
	Amount      decimal.Decimal
	Description string
}

// CreateStatement validates and records a deposit or withdrawal. Writes for
// one user are serialized so a withdrawal's balance check and its append
// cannot interleave with another write for the same user.
func (s *Service) CreateStatement(ctx context.Context, params CreateStatementParams) (*models.Statement, error) {
	if err := s.requireUser(ctx, params.UserId); err != nil {
		zap.L().Warn("Statement rejected", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, err
	}
	if !params.Type.Valid() {
		zap.L().Warn("Statement rejected: unknown operation type",
			zap.String("user_id", params.UserId),
			zap.String("type", string(params.Type)))
		return nil, fmt.Errorf("%w: %q", store.ErrInvalidOperationType, params.Type)
	}
	if !params.Amount.IsPositive() {
		zap.L().Warn("Statement rejected: non-positive amount",
			zap.String("user_id", params.UserId),
			zap.String("amount", params.Amount.String()))
		return nil, fmt.Errorf("%w: %s", store.ErrInvalidAmount, params.Amount.String())
	}

	unlock, err := s.locker.Lock(ctx, params.UserId)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for user %s: %w", params.UserId, err)
	}

	recorded, err := s.appendLocked(ctx, params)
	unlock()
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishStatementRecorded(ctx, events.NewStatementRecorded(*recorded)); err != nil {
		zap.L().Error("Failed to publish statement event",
			zap.String("statement_id", recorded.Id),
			zap.String("user_id", recorded.UserId),
			zap.Error(err))
	}

	return recorded, nil
}

// appendLocked must only run while the user's lock is held
func (s *Service) appendLocked(ctx context.Context, params CreateStatementParams) (*models.Statement, error) {
	if params.Type == models.OperationWithdraw {
		entries, err := s.entries.ListByOwner(ctx, params.UserId)
		if err != nil {
			return nil, fmt.Errorf("failed to load statements: %w", err)
		}

		balance := Fold(entries)
		if params.Amount.GreaterThan(balance) {
			zap.L().Warn("Withdrawal rejected: insufficient funds",
				zap.String("user_id", params.UserId),
				zap.String("balance", balance.String()),
				zap.String("amount", params.Amount.String()))
			return nil, fmt.Errorf("%w: balance %s, requested %s", store.ErrInsufficientFunds, balance.String(), params.Amount.String())
		}
	}

	recorded, err := s.entries.Append(ctx, models.Statement{
		UserId:      params.UserId,
		Type:        params.Type,
		Amount:      params.Amount,
		Description: strings.TrimSpace(params.Description),
	})
	if err != nil {
		zap.L().Error("Failed to append statement",
			zap.String("user_id", params.UserId),
			zap.String("type", string(params.Type)),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record statement: %w", err)
	}

	zap.L().Info("Statement created",
		zap.String("statement_id", recorded.Id),
		zap.String("user_id", recorded.UserId),
		zap.String("type", string(recorded.Type)),
		zap.String("amount", recorded.Amount.String()))

	return recorded, nil
}
