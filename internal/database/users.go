package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"go.uber.org/zap"
)

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.Id, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsers lists active directory users by name
func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveUsers)
	if err != nil {
		zap.L().Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("unable to list users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close user rows", zap.Error(err))
		}
	}()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to read user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate user rows: %w", err)
	}

	zap.L().Debug("Listed users", zap.Int("count", len(users)))
	return users, nil
}

// Exists reports whether an active user with the given id is registered
func (s *Service) Exists(ctx context.Context, userId string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, queryUserExists, userId).Scan(&exists); err != nil {
		zap.L().Error("Failed to check user existence", zap.String("user_id", userId), zap.Error(err))
		return false, fmt.Errorf("unable to check user existence: %w", err)
	}
	return exists, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	return s.lookupUser(ctx, queryGetUserById, "user_id", userId)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.lookupUser(ctx, queryGetUserByEmail, "email", email)
}

func (s *Service) lookupUser(ctx context.Context, query, field, value string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, value)
	}
	if err != nil {
		zap.L().Error("Failed to look up user", zap.String(field, value), zap.Error(err))
		return nil, fmt.Errorf("unable to look up user by %s: %w", field, err)
	}
	return user, nil
}

// CreateUser registers a directory user. Both id and email are unique; a
// clash on either reports ErrUserAlreadyExists and changes nothing.
func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	result, err := s.db.ExecContext(ctx, queryInsertUser, userId, name, email)
	if err != nil {
		zap.L().Error("Failed to insert user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to insert user: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to read insert result: %w", err)
	}
	if inserted == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrUserAlreadyExists, email)
	}

	zap.L().Info("User registered", zap.String("user_id", userId), zap.String("email", email))
	return s.GetUserById(ctx, userId)
}
