package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"statement-ledger-go/internal/common"
	"statement-ledger-go/internal/config"

	"go.uber.org/zap"
)

func printUsers(users []common.UserInfo) {
	for i, user := range users {
		fmt.Printf("%s %-24s %-32s %s\n", common.BoxPrefix(i == len(users)-1), user.Name, user.Email, user.Id)
	}
}

func main() {
	logger, loggerCleanup := common.InitializeLogger()

	code := run(context.Background(), logger)
	loggerCleanup()
	os.Exit(code)
}

// run returns the process exit code so deferred cleanup finishes before exit
func run(ctx context.Context, logger *zap.Logger) int {
	fileFlag := flag.String("file", "", "Users seed file (defaults to USERS_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Error("Failed to load config", zap.Error(err))
		return 1
	}

	usersFile := *fileFlag
	if usersFile == "" {
		usersFile = cfg.Ledger.UsersFile
	}

	zap.L().Info("Loading user seeds", zap.String("file", usersFile))
	seeds, err := common.LoadUserSeeds(usersFile)
	if err != nil {
		zap.L().Error("Failed to load user seeds", zap.Error(err))
		return 1
	}
	zap.L().Info("User seeds loaded", zap.Int("count", len(seeds)))

	ledgerStore, err := common.InitializeStoreOnly(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to initialize ledger backend", zap.Error(err))
		return 1
	}
	defer ledgerStore.Close()

	created, skipped, err := common.SeedUsers(ctx, ledgerStore, seeds)
	if err != nil {
		zap.L().Error("Failed to seed users",
			zap.Int("created", created),
			zap.Int("skipped", skipped),
			zap.Error(err))
		return 1
	}

	users, err := common.InitializeUsers(ctx, ledgerStore, "", logger)
	if err != nil {
		zap.L().Error("Failed to read users", zap.Error(err))
		return 1
	}

	common.PrintHeader("REGISTERED USERS", common.DefaultWidth)
	printUsers(users)
	common.PrintFooter(fmt.Sprintf("SETUP: %d created, %d already present, %d total users",
		created, skipped, len(users)), common.DefaultWidth)

	zap.L().Info("Setup complete",
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Int("total_users", len(users)))
	return 0
}
