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


package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"statement-ledger-go/internal/common"
	"statement-ledger-go/internal/config"
	"statement-ledger-go/internal/statement"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	totalStatements   int
	usersWithActivity int
}

func printUserHeader(user common.UserInfo, statementCount int, balance string) {
	fmt.Printf("\n┌─ User: %s (%s)\n", user.Name, user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Balance: %s\n", balance)
	fmt.Printf("│  Statements: %d\n", statementCount)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user common.UserInfo, svc *statement.Service) (int, error) {
	balance, err := svc.GetBalance(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	printUserHeader(user, len(balance.Statement), balance.Balance.StringFixed(2))
	common.PrintStatements(balance.Statement)

	return len(balance.Statement), nil
}

func processUsersAndGenerateReport(ctx context.Context, users []common.UserInfo, svc *statement.Service, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		count, err := processUser(ctx, user, svc)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if count > 0 {
			stats.usersWithActivity++
			stats.totalStatements += count
		}
	}

	return stats
}

func main() {
	logger, loggerCleanup := common.InitializeLogger()

	code := run(context.Background(), logger)
	loggerCleanup()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup finishes before exit
func run(ctx context.Context, logger *zap.Logger) int {
	// Parse command line flags
	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return 1
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize services", zap.Error(err))
		return 1
	}
	defer services.Close()

	if err := services.Statements.HealthCheck(ctx); err != nil {
		logger.Error("Ledger backend is not healthy", zap.Error(err))
		return 1
	}

	users, err := common.InitializeUsers(ctx, services.Store, *emailFlag, logger)
	if err != nil {
		logger.Error("Failed to initialize users", zap.Error(err))
		return 1
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := processUsersAndGenerateReport(ctx, users, services.Statements, logger)

	summary := fmt.Sprintf("SUMMARY: %d users with activity (%d statements across %d users queried)",
		stats.usersWithActivity, stats.totalStatements, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_activity", stats.usersWithActivity),
		zap.Int("total_statements", stats.totalStatements))
	return 0
}
