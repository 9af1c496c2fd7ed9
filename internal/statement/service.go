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

	"statement-ledger-go/internal/events"
	"statement-ledger-go/internal/lock"
	"statement-ledger-go/internal/store"
)

// Service applies the ledger rules on top of an entry store and a user
// directory. The caller is trusted to pass an already authenticated user id.
type Service struct {
	entries   store.StatementStore
	users     store.UserDirectory
	locker    lock.Locker
	publisher events.Publisher
}

type Option func(*Service)

// WithLocker replaces the in-process per-user lock, e.g. with a Redis lock
// when several processes share one database.
func WithLocker(locker lock.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func NewService(entries store.StatementStore, users store.UserDirectory, opts ...Option) *Service {
	s := &Service{
		entries:   entries,
		users:     users,
		locker:    lock.NewKeyedMutex(),
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) HealthCheck(ctx context.Context) error {
	_, err := s.users.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("user directory health check failed: %w", err)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, userId string) error {
	if userId == "" {
		return fmt.Errorf("%w: empty user id", store.ErrUserNotFound)
	}

	exists, err := s.users.Exists(ctx, userId)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
	}
	return nil
}
