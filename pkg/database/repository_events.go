// Copyright 2025 Certen Protocol
//
// Repository for the raw event archive. Entries are host-log events as the
// relayer observed them: the ASCII prefix plus the hex-encoded field
// segments, stored positionally.

package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventRecord is one archived host-log event.
type EventRecord struct {
	ID         uuid.UUID `json:"id"`
	Prefix     string    `json:"prefix"`
	Segments   []string  `json:"segments"` // hex, positional
	IngestedAt time.Time `json:"ingested_at"`
}

// EventRepository persists EventRecords.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a repository over an open connection pool.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Ingest stores one raw host-log entry. Segment 0 is the prefix; the rest
// are field segments.
func (r *EventRepository) Ingest(ctx context.Context, segments [][]byte) (*EventRecord, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("event entry has no segments")
	}

	rec := &EventRecord{
		ID:       uuid.New(),
		Prefix:   string(segments[0]),
		Segments: make([]string, 0, len(segments)-1),
	}
	for _, seg := range segments[1:] {
		rec.Segments = append(rec.Segments, hex.EncodeToString(seg))
	}

	encoded, err := json.Marshal(rec.Segments)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segments: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO gateway_events (id, prefix, segments)
		VALUES ($1, $2, $3)
		RETURNING ingested_at`,
		rec.ID, rec.Prefix, encoded).Scan(&rec.IngestedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return rec, nil
}

// ListByPrefix returns archived events for one prefix, newest first.
func (r *EventRepository) ListByPrefix(ctx context.Context, prefix string, limit int) ([]*EventRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, prefix, segments, ingested_at
		FROM gateway_events
		WHERE prefix = $1
		ORDER BY ingested_at DESC
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*EventRecord
	for rows.Next() {
		var rec EventRecord
		var encoded []byte
		if err := rows.Scan(&rec.ID, &rec.Prefix, &encoded, &rec.IngestedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event record: %w", err)
		}
		if err := json.Unmarshal(encoded, &rec.Segments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal segments: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
