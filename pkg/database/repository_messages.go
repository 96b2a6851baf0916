// Copyright 2025 Certen Protocol
//
// Repository for the approved-message archive. Rows mirror the on-chain
// IncomingMessage records so relayers can query approval status without
// replaying the host log.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStatus values mirrored from the on-chain record.
const (
	StatusApproved = "approved"
	StatusConsumed = "consumed"
)

// MessageRecord is one archived approval.
type MessageRecord struct {
	ID                 uuid.UUID  `json:"id"`
	CommandID          string     `json:"command_id"` // hex
	SourceChain        string     `json:"source_chain"`
	MessageID          string     `json:"message_id"`
	SourceAddress      string     `json:"source_address"`
	DestinationAddress string     `json:"destination_address"`
	PayloadHash        string     `json:"payload_hash"` // hex
	Status             string     `json:"status"`
	ApprovedAt         time.Time  `json:"approved_at"`
	ExecutedAt         *time.Time `json:"executed_at,omitempty"`
}

// MessageRepository persists MessageRecords.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a repository over an open connection pool.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// UpsertApproved records an approval. Repeat approvals of the same command
// id leave the existing row untouched, matching the on-chain idempotency.
func (r *MessageRepository) UpsertApproved(ctx context.Context, rec *MessageRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO approved_messages
			(id, command_id, source_chain, message_id, source_address,
			 destination_address, payload_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (command_id) DO NOTHING`,
		rec.ID, rec.CommandID, rec.SourceChain, rec.MessageID,
		rec.SourceAddress, rec.DestinationAddress, rec.PayloadHash, StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to upsert approved message: %w", err)
	}
	return nil
}

// MarkConsumed flips an archived message to consumed.
func (r *MessageRepository) MarkConsumed(ctx context.Context, commandID string, executedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE approved_messages
		SET status = $1, executed_at = $2
		WHERE command_id = $3 AND status = $4`,
		StatusConsumed, executedAt, commandID, StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to mark message consumed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetByCommandID loads one archived message.
func (r *MessageRepository) GetByCommandID(ctx context.Context, commandID string) (*MessageRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, command_id, source_chain, message_id, source_address,
		       destination_address, payload_hash, status, approved_at, executed_at
		FROM approved_messages
		WHERE command_id = $1`, commandID)
	return scanMessage(row)
}

// ListByStatus returns archived messages in a status, newest first.
func (r *MessageRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*MessageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, command_id, source_chain, message_id, source_address,
		       destination_address, payload_hash, status, approved_at, executed_at
		FROM approved_messages
		WHERE status = $1
		ORDER BY approved_at DESC
		LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*MessageRecord
	for rows.Next() {
		rec, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*MessageRecord, error) {
	var rec MessageRecord
	var executedAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.CommandID, &rec.SourceChain, &rec.MessageID,
		&rec.SourceAddress, &rec.DestinationAddress, &rec.PayloadHash,
		&rec.Status, &rec.ApprovedAt, &executedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message record: %w", err)
	}
	if executedAt.Valid {
		rec.ExecutedAt = &executedAt.Time
	}
	return &rec, nil
}
