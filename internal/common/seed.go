package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"statement-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type UserSeed struct {
	Id    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type UsersConfig struct {
	Users []UserSeed `yaml:"users"`
}

func LoadUserSeeds(usersFile string) ([]UserSeed, error) {
	var usersPath string
	if filepath.IsAbs(usersFile) {
		usersPath = usersFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		usersPath = filepath.Join(wd, usersFile)
	}

	data, err := os.ReadFile(usersPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", usersFile, err)
	}

	return parseUserSeeds(usersFile, data)
}

func parseUserSeeds(name string, data []byte) ([]UserSeed, error) {
	var config UsersConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", name, err)
	}

	seen := make(map[string]bool)
	for i, user := range config.Users {
		if strings.TrimSpace(user.Name) == "" {
			return nil, fmt.Errorf("user at index %d missing name", i)
		}
		if strings.TrimSpace(user.Email) == "" {
			return nil, fmt.Errorf("user at index %d missing email", i)
		}
		if seen[user.Email] {
			return nil, fmt.Errorf("user at index %d repeats email %s", i, user.Email)
		}
		seen[user.Email] = true
	}

	return config.Users, nil
}

// SeedUsers creates every seed whose email is not registered yet and
// returns how many were created and skipped
func SeedUsers(ctx context.Context, directory store.UserDirectory, seeds []UserSeed) (int, int, error) {
	created, skipped := 0, 0
	for _, seed := range seeds {
		id := seed.Id
		if id == "" {
			id = uuid.New().String()
		}

		_, err := directory.CreateUser(ctx, id, seed.Name, seed.Email)
		if errors.Is(err, store.ErrUserAlreadyExists) {
			zap.L().Info("Seed user already exists, skipping", zap.String("email", seed.Email))
			skipped++
			continue
		}
		if err != nil {
			return created, skipped, fmt.Errorf("failed to seed user %s: %w", seed.Email, err)
		}
		created++
	}
	return created, skipped, nil
}
