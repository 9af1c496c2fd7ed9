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
	"statement-ledger-go/internal/statement"
	"statement-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type statementRequest struct {
	userId      string
	email       string
	opType      models.OperationType
	amount      decimal.Decimal
	description string
}

func parseAndValidateFlags() (*statementRequest, error) {
	userFlag := flag.String("user", "", "User id (either --user or --email is required)")
	emailFlag := flag.String("email", "", "User email (either --user or --email is required)")
	typeFlag := flag.String("type", "", "Operation type: deposit or withdraw (required)")
	amountFlag := flag.String("amount", "", "Positive amount (required)")
	descriptionFlag := flag.String("description", "", "Free text description (optional)")
	flag.Parse()

	if *userFlag == "" && *emailFlag == "" {
		return nil, fmt.Errorf("either --user or --email is required")
	}
	if *typeFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("flags are required: --type, --amount")
	}

	amount, err := statement.ParseAmount(*amountFlag)
	if err != nil {
		return nil, err
	}

	return &statementRequest{
		userId:      *userFlag,
		email:       *emailFlag,
		opType:      models.OperationType(*typeFlag),
		amount:      amount,
		description: *descriptionFlag,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return "User does not exist"
	case errors.Is(err, store.ErrInvalidOperationType):
		return "Operation type must be deposit or withdraw"
	case errors.Is(err, store.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, store.ErrInsufficientFunds):
		return "Insufficient funds"
	default:
		return err.Error()
	}
}

func printFailure(user *common.UserInfo, req *statementRequest, err error) {
	common.PrintHeader("STATEMENT REJECTED", common.DefaultWidth)
	fmt.Printf("User:      %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Operation: %s\n", req.opType)
	fmt.Printf("Amount:    %s\n", req.amount.String())
	fmt.Printf("Reason:    %s\n", failureReason(err))
	common.PrintSeparator("=", common.DefaultWidth)
}

func printRecorded(user *common.UserInfo, recorded *models.Statement, balance *models.Balance) {
	common.PrintHeader("STATEMENT RECORDED", common.DefaultWidth)
	fmt.Printf("User:        %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Statement:   %s\n", recorded.Id)
	fmt.Printf("Operation:   %s\n", recorded.Type)
	fmt.Printf("Amount:      %s\n", recorded.Amount.String())
	if recorded.Description != "" {
		fmt.Printf("Description: %s\n", recorded.Description)
	}
	fmt.Printf("New Balance: %s\n", balance.Balance.String())
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
	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Error("Invalid flags", zap.Error(err))
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	zap.L().Info("Initializing services")
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

	user, err := common.ResolveUser(ctx, services.Store, req.userId, req.email)
	if err != nil {
		common.PrintHeader("STATEMENT REJECTED", common.DefaultWidth)
		fmt.Printf("Reason: %s\n", failureReason(err))
		common.PrintSeparator("=", common.DefaultWidth)
		zap.L().Error("User lookup failed",
			zap.String("user_id", req.userId),
			zap.String("email", req.email),
			zap.Error(err))
		return 1
	}

	zap.L().Info("Recording statement",
		zap.String("user_id", user.Id),
		zap.String("type", string(req.opType)),
		zap.String("amount", req.amount.String()))

	recorded, err := services.Statements.CreateStatement(ctx, statement.CreateStatementParams{
		UserId:      user.Id,
		Type:        req.opType,
		Amount:      req.amount,
		Description: req.description,
	})
	if err != nil {
		printFailure(user, req, err)
		zap.L().Warn("Statement rejected", zap.String("user_id", user.Id), zap.Error(err))
		return 1
	}

	balance, err := services.Statements.GetBalance(ctx, user.Id)
	if err != nil {
		zap.L().Error("Statement recorded but balance lookup failed",
			zap.String("statement_id", recorded.Id),
			zap.Error(err))
		return 1
	}

	printRecorded(user, recorded, balance)

	zap.L().Info("Statement recorded",
		zap.String("statement_id", recorded.Id),
		zap.String("user_id", user.Id),
		zap.String("balance", balance.Balance.String()))
	return 0
}
