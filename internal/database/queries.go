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

package database

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	queryUserExists = `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = ? AND active = 1)`

	// Statement queries
	queryInsertStatement = `
		INSERT INTO statements (id, user_id, type, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryListStatementsByOwner = `
		SELECT id, user_id, type, amount, description, created_at
		FROM statements
		WHERE user_id = ?
		ORDER BY seq`

	queryGetStatementByOwnerAndId = `
		SELECT id, user_id, type, amount, description, created_at
		FROM statements
		WHERE user_id = ? AND id = ?`
)
