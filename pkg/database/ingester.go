// Copyright 2025 Certen Protocol
//
// Archive ingester: a HostLogger that tees every emitted event into the
// raw event archive and keeps the approved-message index current. Hosts
// that run without Postgres simply wire the plain host logger instead.

package database

import (
	"context"
	"time"

	"github.com/certen/gmp-gateway/pkg/events"
	"github.com/certen/gmp-gateway/pkg/logging"
)

// Ingester implements events.HostLogger on top of the archive repositories.
type Ingester struct {
	next     events.HostLogger
	eventsDB *EventRepository
	messages *MessageRepository
	logger   *logging.Logger
}

// NewIngester wraps next (may be nil) so emitted events also land in the
// archive.
func NewIngester(client *Client, next events.HostLogger, logger *logging.Logger) *Ingester {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Ingester{
		next:     next,
		eventsDB: NewEventRepository(client.DB()),
		messages: NewMessageRepository(client.DB()),
		logger:   logger.WithComponent("archive-ingester"),
	}
}

// LogData implements events.HostLogger. Archive failures are logged, never
// propagated: the archive is an index, not part of the transaction.
func (i *Ingester) LogData(segments [][]byte) error {
	if i.next != nil {
		if err := i.next.LogData(segments); err != nil {
			return err
		}
	}
	if len(segments) == 0 {
		return nil
	}

	ctx := context.Background()
	if _, err := i.eventsDB.Ingest(ctx, segments); err != nil {
		i.logger.WithError(err).Warn("failed to archive event")
	}

	switch string(segments[0]) {
	case events.PrefixMessageApproved:
		approved, err := events.ParseMessageApproved(segments[1:])
		if err != nil {
			i.logger.WithError(err).Warn("malformed message-approved event")
			return nil
		}
		err = i.messages.UpsertApproved(ctx, &MessageRecord{
			CommandID:          approved.CommandID.Hex(),
			SourceChain:        approved.SourceChain,
			MessageID:          approved.MessageID,
			SourceAddress:      approved.SourceAddress,
			DestinationAddress: approved.DestinationAddress,
			PayloadHash:        approved.PayloadHash.Hex(),
		})
		if err != nil {
			i.logger.WithError(err).Warn("failed to index approved message")
		}
	case events.PrefixMessageExecuted:
		executed, err := events.ParseMessageExecuted(segments[1:])
		if err != nil {
			i.logger.WithError(err).Warn("malformed message-executed event")
			return nil
		}
		err = i.messages.MarkConsumed(ctx, executed.CommandID.Hex(), time.Now().UTC())
		if err != nil && err != ErrRecordNotFound {
			i.logger.WithError(err).Warn("failed to index executed message")
		}
	}
	return nil
}
