package models

import "time"

// Config represents the application configuration
type Config struct {
	Ledger   LedgerConfig
	Database DatabaseConfig
	Postgres PostgresConfig
	Formance FormanceConfig
	Lock     LockConfig
	Events   EventsConfig
}

// LedgerConfig selects the storage backend
type LedgerConfig struct {
	Backend   string // sqlite, postgres, formance, memory
	Asset     string
	UsersFile string
}

// DatabaseConfig holds SQLite connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	BusyTimeout      time.Duration
	CreateDummyUsers bool
}

// PostgresConfig holds PostgreSQL connection settings
type PostgresConfig struct {
	URL         string
	MaxConns    int
	PingTimeout time.Duration
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	Asset        string
}

// LockConfig holds per-user lock settings
type LockConfig struct {
	Backend       string // local, redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
	RetryInterval time.Duration
}

// EventsConfig holds statement event publishing settings
type EventsConfig struct {
	KafkaBrokers []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxAttempts  int
}
