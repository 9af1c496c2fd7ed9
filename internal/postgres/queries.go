package postgres

const (
	schema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS statements (
		seq BIGSERIAL PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('deposit', 'withdraw')),
		amount NUMERIC NOT NULL CHECK (amount > 0),
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_statements_user_seq ON statements(user_id, seq);`

	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active
		ORDER BY created_at`

	queryInsertUser = `
		INSERT INTO users (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING id, name, email, created_at, updated_at`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = $1 AND active`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = $1 AND active`

	queryUserExists = `
		SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND active)`

	queryInsertStatement = `
		INSERT INTO statements (id, user_id, type, amount, description, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`

	queryListStatementsByOwner = `
		SELECT id, user_id, type, amount::text, description, created_at
		FROM statements
		WHERE user_id = $1
		ORDER BY seq`

	queryGetStatementByOwnerAndId = `
		SELECT id, user_id, type, amount::text, description, created_at
		FROM statements
		WHERE user_id = $1 AND id = $2`
)
