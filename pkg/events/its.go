// Copyright 2025 Certen Protocol
//
// ITS event types. Same segment discipline as the gateway events.

package events

import (
	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/encode"
	"github.com/certen/gmp-gateway/pkg/hasher"
)

// InterchainTokenIDClaimed is emitted when a deployer claims a canonical
// token id for a (deployer, salt) pair.
type InterchainTokenIDClaimed struct {
	TokenID  hasher.Hash
	Deployer addr.Address
	Salt     [32]byte
}

// Prefix implements Event.
func (*InterchainTokenIDClaimed) Prefix() string { return PrefixTokenIDClaimed }

// Segments implements Event.
func (ev *InterchainTokenIDClaimed) Segments() [][]byte {
	return [][]byte{
		ev.TokenID.Bytes(),
		ev.Deployer.Bytes(),
		append([]byte(nil), ev.Salt[:]...),
	}
}

// LinkTokenStarted is emitted when a custom-token link to a remote chain
// begins.
type LinkTokenStarted struct {
	TokenID                 hasher.Hash
	DestinationChain        string
	SourceTokenAddress      addr.Address
	DestinationTokenAddress []byte
	TokenManagerType        uint8
	Params                  []byte
}

// Prefix implements Event.
func (*LinkTokenStarted) Prefix() string { return PrefixLinkTokenStarted }

// Segments implements Event.
func (ev *LinkTokenStarted) Segments() [][]byte {
	return [][]byte{
		ev.TokenID.Bytes(),
		[]byte(ev.DestinationChain),
		ev.SourceTokenAddress.Bytes(),
		ev.DestinationTokenAddress,
		{ev.TokenManagerType},
		ev.Params,
	}
}

// InterchainTransferSent is emitted after an outbound transfer passes trust
// and flow checks and its payload is handed to the gateway.
type InterchainTransferSent struct {
	TokenID            hasher.Hash
	SourceAddress      addr.Address
	DestinationChain   string
	DestinationAddress []byte
	Amount             uint64
	DataHash           hasher.Hash
}

// Prefix implements Event.
func (*InterchainTransferSent) Prefix() string { return PrefixTransferSent }

// Segments implements Event.
func (ev *InterchainTransferSent) Segments() [][]byte {
	amount := encode.NewWriter(8).U64(ev.Amount).Bytes()
	return [][]byte{
		ev.TokenID.Bytes(),
		ev.SourceAddress.Bytes(),
		[]byte(ev.DestinationChain),
		ev.DestinationAddress,
		amount,
		ev.DataHash.Bytes(),
	}
}

// InterchainTransferReceived is emitted after an inbound transfer is
// consumed and its flow accounting committed.
type InterchainTransferReceived struct {
	CommandID          hasher.Hash
	TokenID            hasher.Hash
	SourceAddress      []byte
	DestinationAddress addr.Address
	Amount             uint64
	DataHash           hasher.Hash
}

// Prefix implements Event.
func (*InterchainTransferReceived) Prefix() string { return PrefixTransferReceived }

// Segments implements Event.
func (ev *InterchainTransferReceived) Segments() [][]byte {
	amount := encode.NewWriter(8).U64(ev.Amount).Bytes()
	return [][]byte{
		ev.CommandID.Bytes(),
		ev.TokenID.Bytes(),
		ev.SourceAddress,
		ev.DestinationAddress.Bytes(),
		amount,
		ev.DataHash.Bytes(),
	}
}
