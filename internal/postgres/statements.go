package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) Append(ctx context.Context, statement models.Statement) (*models.Statement, error) {
	if statement.Id == "" {
		statement.Id = uuid.New().String()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, queryInsertStatement,
		statement.Id, statement.UserId, string(statement.Type),
		statement.Amount.String(), statement.Description, statement.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateStatement, statement.Id)
		}
		return nil, fmt.Errorf("failed to insert statement: %w", err)
	}

	zap.L().Info("Statement recorded",
		zap.String("statement_id", statement.Id),
		zap.String("user_id", statement.UserId),
		zap.String("type", string(statement.Type)),
		zap.String("amount", statement.Amount.String()))

	return &statement, nil
}

func (s *Service) ListByOwner(ctx context.Context, userId string) ([]models.Statement, error) {
	rows, err := s.pool.Query(ctx, queryListStatementsByOwner, userId)
	if err != nil {
		zap.L().Error("Failed to query statements", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query statements: %w", err)
	}
	defer rows.Close()

	statements := make([]models.Statement, 0)
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, *statement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statement rows: %w", err)
	}

	return statements, nil
}

func (s *Service) FindByOwnerAndId(ctx context.Context, userId, statementId string) (*models.Statement, error) {
	statement, err := scanStatement(s.pool.QueryRow(ctx, queryGetStatementByOwnerAndId, userId, statementId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrStatementNotFound, statementId)
		}
		zap.L().Error("Failed to query statement", zap.String("statement_id", statementId), zap.Error(err))
		return nil, err
	}
	return statement, nil
}

func scanStatement(row pgx.Row) (*models.Statement, error) {
	var statement models.Statement
	var opType, amountStr string

	err := row.Scan(&statement.Id, &statement.UserId, &opType, &amountStr, &statement.Description, &statement.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("unable to scan statement row: %w", err)
	}

	statement.Type = models.OperationType(opType)
	statement.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount '%s': %w", amountStr, err)
	}
	statement.CreatedAt = statement.CreatedAt.UTC()

	return &statement, nil
}
