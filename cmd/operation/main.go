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
	"errors"
	"flag"
	"fmt"
	"os"

	"statement-ledger-go/internal/common"
	"statement-ledger-go/internal/config"
	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"go.uber.org/zap"
)

func printOperation(user *common.UserInfo, st *models.Statement) {
	common.PrintHeader("STATEMENT OPERATION", common.DefaultWidth)
	fmt.Printf("User:        %s (%s)\n", user.Name, user.Email)
	fmt.Printf("ID:          %s\n", st.Id)
	fmt.Printf("Operation:   %s\n", st.Type)
	fmt.Printf("Amount:      %s\n", st.Amount.String())
	fmt.Printf("Signed:      %s\n", st.Signed().String())
	fmt.Printf("Recorded At: %s\n", st.CreatedAt.Format("2006-01-02 15:04:05"))
	if st.Description != "" {
		fmt.Printf("Description: %s\n", st.Description)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	_, loggerCleanup := common.InitializeLogger()

	code := run(context.Background())
	loggerCleanup()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup finishes before exit
func run(ctx context.Context) int {
	userFlag := flag.String("user", "", "User id (either --user or --email is required)")
	emailFlag := flag.String("email", "", "User email (either --user or --email is required)")
	idFlag := flag.String("id", "", "Statement id (required)")
	flag.Parse()

	if *idFlag == "" {
		zap.L().Error("Flag is required: --id")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize services", zap.Error(err))
		return 1
	}
	defer services.Close()

	if err := services.Statements.HealthCheck(ctx); err != nil {
		zap.L().Error("Ledger backend is not healthy", zap.Error(err))
		return 1
	}

	user, err := common.ResolveUser(ctx, services.Store, *userFlag, *emailFlag)
	if err != nil {
		zap.L().Error("User lookup failed",
			zap.String("user_id", *userFlag),
			zap.String("email", *emailFlag),
			zap.Error(err))
		return 1
	}

	st, err := services.Statements.GetStatementOperation(ctx, user.Id, *idFlag)
	if err != nil {
		if errors.Is(err, store.ErrStatementNotFound) {
			common.PrintHeader("STATEMENT NOT FOUND", common.DefaultWidth)
			fmt.Printf("No statement %s for %s\n", *idFlag, user.Email)
			common.PrintSeparator("=", common.DefaultWidth)
		}
		zap.L().Error("Failed to get statement",
			zap.String("user_id", user.Id),
			zap.String("statement_id", *idFlag),
			zap.Error(err))
		return 1
	}

	printOperation(user, st)
	return 0
}
