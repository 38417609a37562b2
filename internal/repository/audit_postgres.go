package repository

import (
	"context"
	"fmt"

	"github.com/futig/guardrails-agent/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditRepository defines the interface for audit event persistence
type AuditRepository interface {
	RecordEvent(ctx context.Context, event entity.AuditEvent) error
}

var _ AuditRepository = &AuditPostgres{}

// execer is satisfied by *pgxpool.Pool and pgx.Tx
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// AuditPostgres implements AuditRepository using PostgreSQL
type AuditPostgres struct {
	db execer
}

// NewAuditPostgres creates a new audit repository
func NewAuditPostgres(db execer) *AuditPostgres {
	return &AuditPostgres{db: db}
}

const insertEventQuery = `
INSERT INTO guardrail_events (
    id, request_id, channel, status, rejected_stage, rationale, input_chars, duration_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// RecordEvent stores one processed message
func (r *AuditPostgres) RecordEvent(ctx context.Context, event entity.AuditEvent) error {
	id, err := toPgUUID(event.ID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	requestID, err := toPgUUID(event.RequestID)
	if err != nil {
		return fmt.Errorf("parse request id: %w", err)
	}

	_, err = r.db.Exec(ctx, insertEventQuery,
		id,
		requestID,
		string(event.Channel),
		string(event.Status),
		string(event.RejectedStage),
		event.Rationale,
		int32(event.InputChars),
		event.Duration.Milliseconds(),
		pgtype.Timestamptz{Time: event.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert guardrail event: %w", err)
	}

	return nil
}

func toPgUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %q", entity.ErrInvalidFormat, s)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
