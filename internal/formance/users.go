package formance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

const (
	userAccountPrefix = "users:"
	userEntityType    = "statement_user"
)

// Directory users live as metadata on their users:{id} account. The account
// only holds a balance once statements are posted to it.

func (s *Service) CreateUser(ctx context.Context, userId, name, email string) (*models.User, error) {
	if _, err := s.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrUserAlreadyExists, email)
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}

	exists, err := s.Exists(ctx, userId)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", store.ErrUserAlreadyExists, userId)
	}

	_, err = s.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:  s.ledger,
		Address: userAddress(userId),
		RequestBody: map[string]string{
			"entity_type":   userEntityType,
			"active":        "true",
			"name":          name,
			"email":         email,
			"registered_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		zap.L().Error("Failed to tag user account", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	zap.L().Info("User registered", zap.String("user_id", userId), zap.String("ledger", s.ledger))
	return s.GetUserById(ctx, userId)
}

// Exists reports whether users:{userId} carries directory metadata
func (s *Service) Exists(ctx context.Context, userId string) (bool, error) {
	_, err := s.GetUserById(ctx, userId)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: userAddress(userId),
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		return nil, fmt.Errorf("failed to get user account: %w", err)
	}

	acct := resp.V2AccountResponse.Data
	if acct.Metadata["email"] == "" {
		// Account exists only as a posting target
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	return accountToUser(&acct), nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	accounts, err := s.listUserAccounts(ctx, map[string]any{
		"$match": map[string]any{"metadata[email]": email},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search user by email: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
	}
	return accountToUser(&accounts[0]), nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	accounts, err := s.listUserAccounts(ctx, map[string]any{
		"$match": map[string]any{"metadata[entity_type]": userEntityType},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]models.User, 0, len(accounts))
	for i := range accounts {
		users = append(users, *accountToUser(&accounts[i]))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

// listUserAccounts follows every cursor page and keeps only users:{id} accounts
func (s *Service) listUserAccounts(ctx context.Context, filter map[string]any) ([]shared.V2Account, error) {
	var matched []shared.V2Account
	pageSize := listPageSize
	var cursor *string

	for {
		req := operations.V2ListAccountsRequest{
			Ledger:   s.ledger,
			PageSize: &pageSize,
			Cursor:   cursor,
		}
		if cursor == nil {
			req.RequestBody = filter
		}

		resp, err := s.client.Ledger.V2.ListAccounts(ctx, req)
		if err != nil {
			return nil, err
		}

		page := resp.V2AccountsCursorResponse.Cursor
		for _, acct := range page.Data {
			if isUserAccount(acct.Address) {
				matched = append(matched, acct)
			}
		}
		if !page.HasMore || page.Next == nil {
			return matched, nil
		}
		cursor = page.Next
	}
}

func accountToUser(acct *shared.V2Account) *models.User {
	registered := time.Time{}
	if raw := acct.Metadata["registered_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			registered = t
		}
	}
	if registered.IsZero() && acct.FirstUsage != nil {
		registered = *acct.FirstUsage
	}

	return &models.User{
		Id:        strings.TrimPrefix(acct.Address, userAccountPrefix),
		Name:      acct.Metadata["name"],
		Email:     acct.Metadata["email"],
		CreatedAt: registered.UTC(),
		UpdatedAt: registered.UTC(),
	}
}

func isUserAccount(address string) bool {
	id, ok := strings.CutPrefix(address, userAccountPrefix)
	return ok && id != "" && !strings.Contains(id, ":")
}

func userAddress(userId string) string { return userAccountPrefix + userId }
