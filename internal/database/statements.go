package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Append records a new ledger entry in its own transaction
func (s *Service) Append(ctx context.Context, statement models.Statement) (*models.Statement, error) {
	if statement.Id == "" {
		statement.Id = uuid.New().String()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}

	zap.L().Debug("Appending statement",
		zap.String("statement_id", statement.Id),
		zap.String("user_id", statement.UserId),
		zap.String("type", string(statement.Type)),
		zap.String("amount", statement.Amount.String()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertStatement,
		statement.Id, statement.UserId, string(statement.Type),
		statement.Amount.String(), statement.Description, statement.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateStatement, statement.Id)
		}
		return nil, fmt.Errorf("failed to insert statement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Statement recorded",
		zap.String("statement_id", statement.Id),
		zap.String("user_id", statement.UserId),
		zap.String("type", string(statement.Type)),
		zap.String("amount", statement.Amount.String()))

	return &statement, nil
}

func (s *Service) ListByOwner(ctx context.Context, userId string) ([]models.Statement, error) {
	zap.L().Debug("Querying statements", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryListStatementsByOwner, userId)
	if err != nil {
		zap.L().Error("Failed to query statements", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query statements: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	statements := make([]models.Statement, 0)
	for rows.Next() {
		statement, err := scanStatement(rows)
		if err != nil {
			zap.L().Error("Failed to scan statement row", zap.Error(err))
			return nil, err
		}
		statements = append(statements, *statement)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during statement row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating statement rows: %w", err)
	}

	return statements, nil
}

func (s *Service) FindByOwnerAndId(ctx context.Context, userId, statementId string) (*models.Statement, error) {
	zap.L().Debug("Querying statement", zap.String("user_id", userId), zap.String("statement_id", statementId))

	statement, err := scanStatement(s.db.QueryRowContext(ctx, queryGetStatementByOwnerAndId, userId, statementId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrStatementNotFound, statementId)
		}
		zap.L().Error("Failed to query statement", zap.String("statement_id", statementId), zap.Error(err))
		return nil, err
	}

	return statement, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatement(row rowScanner) (*models.Statement, error) {
	var statement models.Statement
	var opType, amountStr string

	err := row.Scan(&statement.Id, &statement.UserId, &opType, &amountStr, &statement.Description, &statement.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
