package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// Service keeps users and ledger entries in process memory. Reads hand out
// copies so callers never observe later appends through a returned slice.
type Service struct {
	mu         sync.RWMutex
	users      map[string]models.User
	emails     map[string]string
	statements map[string][]models.Statement
	ids        map[string]string // statement id -> owner
}

func NewService() *Service {
	zap.L().Info("Using in-memory ledger store")
	return &Service{
		users:      make(map[string]models.User),
		emails:     make(map[string]string),
		statements: make(map[string][]models.Statement),
		ids:        make(map[string]string),
	}
}

func (s *Service) Close() {}

func (s *Service) Append(_ context.Context, statement models.Statement) (*models.Statement, error) {
	if statement.Id == "" {
		statement.Id = uuid.New().String()
	}
	if statement.CreatedAt.IsZero() {
		statement.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[statement.Id]; exists {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateStatement, statement.Id)
	}

	s.ids[statement.Id] = statement.UserId
	s.statements[statement.UserId] = append(s.statements[statement.UserId], statement)

	zap.L().Info("Statement recorded",
		zap.String("statement_id", statement.Id),
		zap.String("user_id", statement.UserId),
		zap.String("type", string(statement.Type)),
		zap.String("amount", statement.Amount.String()))

	return &statement, nil
}

func (s *Service) ListByOwner(_ context.Context, userId string) ([]models.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.statements[userId]
	snapshot := make([]models.Statement, len(entries))
	copy(snapshot, entries)
	return snapshot, nil
}

func (s *Service) FindByOwnerAndId(_ context.Context, userId, statementId string) (*models.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if owner, ok := s.ids[statementId]; ok && owner == userId {
		for _, statement := range s.statements[userId] {
			if statement.Id == statementId {
				found := statement
				return &found, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrStatementNotFound, statementId)
}

func (s *Service) Exists(_ context.Context, userId string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[userId]
	return ok, nil
}

func (s *Service) CreateUser(_ context.Context, userId, name, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[email]; taken {
		return nil, fmt.Errorf("%w: %s", store.ErrUserAlreadyExists, email)
	}
	if _, taken := s.users[userId]; taken {
		return nil, fmt.Errorf("%w: %s", store.ErrUserAlreadyExists, userId)
	}

	now := time.Now().UTC()
	user := models.User{Id: userId, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	s.users[userId] = user
	s.emails[email] = userId

	zap.L().Info("User created successfully", zap.String("id", userId), zap.String("name", name), zap.String("email", email))
	return &user, nil
}

func (s *Service) GetUserById(_ context.Context, userId string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userId, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, email)
	}
	user := s.users[userId]
	return &user, nil
}

func (s *Service) GetUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Id < users[j].Id
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}
