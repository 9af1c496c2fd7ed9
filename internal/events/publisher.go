package events

import (
	"context"
	"time"

	"statement-ledger-go/internal/models"
)

const DefaultTopic = "statement.recorded"

// StatementRecorded is emitted once per accepted ledger entry
type StatementRecorded struct {
	StatementId string    `json:"statement_id"`
	UserId      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewStatementRecorded(statement models.Statement) StatementRecorded {
	return StatementRecorded{
		StatementId: statement.Id,
		UserId:      statement.UserId,
		Type:        string(statement.Type),
		Amount:      statement.Amount.String(),
		Description: statement.Description,
		CreatedAt:   statement.CreatedAt,
	}
}

type Publisher interface {
	PublishStatementRecorded(ctx context.Context, event StatementRecorded) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishStatementRecorded(context.Context, StatementRecorded) error { return nil }

func (NopPublisher) Close() error { return nil }
