// Copyright 2025 Certen Protocol
//
// Destination-program side of the consume handshake. A program that
// received an executable payload from the relayer calls ValidateCall to
// prove the embedded message was approved and to atomically mark it
// consumed at the gateway.

package executable

import (
	"encoding/hex"

	"github.com/certen/gmp-gateway/pkg/addr"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/gateway"
)

// ValidateCall checks that the payload body hashes to the approved
// message's payload hash, derives the caller's signing credential, and runs
// the gateway's validate handshake. callerProgram must be the destination
// program's own address.
func ValidateCall(gw *gateway.Processor, p *Payload, callerProgram addr.Address) error {
	if p.PayloadHash() != p.Message.PayloadHash {
		return gwerrors.New(gwerrors.CodeIntegrityFailed, "executable payload does not hash to the message payload hash")
	}

	commandID := p.Message.CommandID()
	signingPDA, _, err := gateway.SigningPDA(commandID, callerProgram)
	if err != nil {
		return err
	}
	return gw.ValidateMessage(&p.Message, callerProgram, signingPDA)
}

// DestinationProgram parses the payload's destination address as a local
// program address.
func (p *Payload) DestinationProgram() (addr.Address, error) {
	raw, err := hex.DecodeString(p.Message.DestinationAddress)
	if err != nil || len(raw) != 32 {
		return addr.Address{}, gwerrors.Newf(gwerrors.CodeInputMalformed,
			"destination address %q is not a 32-byte hex program address", p.Message.DestinationAddress)
	}
	return addr.FromBytes(raw), nil
}
