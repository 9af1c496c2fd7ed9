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
	"regexp"

	"statement-ledger-go/internal/common"
	"statement-ledger-go/internal/config"
	"statement-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	_, loggerCleanup := common.InitializeLogger()

	code := run(context.Background())
	loggerCleanup()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup finishes before exit
func run(ctx context.Context) int {
	// Parse command line flags
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	idFlag := flag.String("id", "", "User id (optional, generated when empty)")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Error("Both flags are required: --name and --email")
		return 1
	}

	if err := validateName(*nameFlag); err != nil {
		zap.L().Error("Invalid name", zap.Error(err))
		return 1
	}

	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Error("Invalid email", zap.Error(err))
		return 1
	}

	zap.L().Info("Starting user creation process",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	// User administration never writes statements, so only the store is opened
	ledgerStore, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize ledger backend", zap.Error(err))
		return 1
	}
	defer ledgerStore.Close()

	userId := *idFlag
	if userId == "" {
		userId = uuid.New().String()
	}

	zap.L().Info("Creating user",
		zap.String("id", userId),
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag))

	user, err := ledgerStore.CreateUser(ctx, userId, *nameFlag, *emailFlag)
	if err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			zap.L().Error("User already exists with this email or id",
				zap.String("email", *emailFlag),
				zap.String("id", userId))
			return 1
		}
		zap.L().Error("Failed to create user", zap.Error(err))
		return 1
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:      %s\n", user.Id)
	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Backend: %s\n", cfg.Ledger.Backend)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", user.Id))
	return 0
}
