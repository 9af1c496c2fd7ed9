/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package statement

import (
	"context"
	"fmt"
	"strings"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Fold sums deposits minus withdrawals
func Fold(entries []models.Statement) decimal.Decimal {
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.Signed())
	}
	return balance
}

// GetBalance returns the user's balance together with every entry it was
// derived from, oldest first
func (s *Service) GetBalance(ctx context.Context, userId string) (*models.Balance, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByOwner(ctx, userId)
	if err != nil {
		zap.L().Error("Failed to get statements", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balance: %w", err)
	}
	if entries == nil {
		entries = []models.Statement{}
	}

	balance := Fold(entries)
	zap.L().Debug("Balance computed",
		zap.String("user_id", userId),
		zap.Int("entries", len(entries)),
		zap.String("balance", balance.String()))

	return &models.Balance{Balance: balance, Statement: entries}, nil
}

// GetStatementOperation returns one entry owned by the user. Entries of
// other users are reported as not found.
func (s *Service) GetStatementOperation(ctx context.Context, userId, statementId string) (*models.Statement, error) {
	if err := s.requireUser(ctx, userId); err != nil {
		return nil, err
	}
	if statementId == "" {
		return nil, fmt.Errorf("%w: empty statement id", store.ErrStatementNotFound)
	}

	entry, err := s.entries.FindByOwnerAndId(ctx, userId, statementId)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ParseAmount converts user input into a decimal. Positivity is checked by
// CreateStatement.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", store.ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", store.ErrInvalidAmount, raw)
	}
	return amount, nil
}
