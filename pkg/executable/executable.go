// Copyright 2025 Certen Protocol
//
// Package executable implements the payload a destination program's execute
// entry point receives from the relayer: the approved message, the payload
// with its account descriptors split off, and the account descriptor list
// itself. Two body encodings are supported, Borsh and ABI, tagged by a
// leading encoding-scheme byte after the fixed command prefix.
package executable

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/near/borsh-go"

	"github.com/certen/gmp-gateway/pkg/encode"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

// CommandPrefix tags an executable payload. Fixed 16 ASCII bytes.
const CommandPrefix = "axelar-execute__"

// EncodingScheme selects the body encoding.
type EncodingScheme uint8

const (
	// SchemeBorsh encodes the body with Borsh.
	SchemeBorsh EncodingScheme = iota
	// SchemeABI encodes the body with ABI parameter encoding.
	SchemeABI
)

// AccountRepr is one account descriptor carried alongside the payload.
type AccountRepr struct {
	Address    [32]byte `json:"address"`
	IsSigner   bool     `json:"is_signer"`
	IsWritable bool     `json:"is_writable"`
}

// Payload is the decoded executable payload.
type Payload struct {
	Message                types.Message
	PayloadWithoutAccounts []byte
	Accounts               []AccountRepr
	Scheme                 EncodingScheme
}

// PayloadHash recomputes the hash the approved message committed to: the
// scheme byte, the canonical account descriptor block, then the payload
// body. Destination programs compare this against the message's
// payload_hash before consuming.
func (p *Payload) PayloadHash() hasher.Hash {
	return hasher.Keccak256([]byte{byte(p.Scheme)}, encodeAccounts(p.Accounts), p.PayloadWithoutAccounts)
}

// encodeAccounts lays the descriptor list out canonically: a 4-byte count,
// then 34 bytes per descriptor.
func encodeAccounts(accounts []AccountRepr) []byte {
	w := encode.NewWriter(4 + len(accounts)*34)
	w.U32(uint32(len(accounts)))
	for _, a := range accounts {
		w.Raw(a.Address[:])
		w.Bool(a.IsSigner)
		w.Bool(a.IsWritable)
	}
	return w.Bytes()
}

func decodeAccounts(raw []byte) ([]AccountRepr, error) {
	r := encode.NewReader(raw)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	out := make([]AccountRepr, 0, count)
	for i := uint32(0); i < count; i++ {
		var a AccountRepr
		if a.Address, err = r.Raw32(); err != nil {
			return nil, err
		}
		if a.IsSigner, err = r.Bool(); err != nil {
			return nil, err
		}
		if a.IsWritable, err = r.Bool(); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if !r.Done() {
		return nil, gwerrors.New(gwerrors.CodeInputMalformed, "trailing bytes after account descriptors")
	}
	return out, nil
}

// borshBody mirrors Payload for the Borsh arm.
type borshBody struct {
	SourceChain            string
	MessageID              string
	SourceAddress          string
	DestinationChain       string
	DestinationAddress     string
	PayloadHash            [32]byte
	PayloadWithoutAccounts []byte
	Accounts               []borshAccount
}

type borshAccount struct {
	Address    [32]byte
	IsSigner   bool
	IsWritable bool
}

// ABI argument list for the ABI arm. The descriptor list travels as the
// canonical account block inside one bytes field.
var abiBodyArgs = abi.Arguments{
	{Type: mustType("string")},  // source chain
	{Type: mustType("string")},  // message id
	{Type: mustType("string")},  // source address
	{Type: mustType("string")},  // destination chain
	{Type: mustType("string")},  // destination address
	{Type: mustType("bytes32")}, // payload hash
	{Type: mustType("bytes")},   // payload without accounts
	{Type: mustType("bytes")},   // account descriptor block
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Encode produces the wire form: prefix, scheme byte, encoded body.
func (p *Payload) Encode() ([]byte, error) {
	var body []byte
	var err error

	switch p.Scheme {
	case SchemeBorsh:
		accounts := make([]borshAccount, len(p.Accounts))
		for i, a := range p.Accounts {
			accounts[i] = borshAccount(a)
		}
		body, err = borsh.Serialize(borshBody{
			SourceChain:            p.Message.CCID.Chain,
			MessageID:              p.Message.CCID.ID,
			SourceAddress:          p.Message.SourceAddress,
			DestinationChain:       p.Message.DestinationChain,
			DestinationAddress:     p.Message.DestinationAddress,
			PayloadHash:            p.Message.PayloadHash,
			PayloadWithoutAccounts: p.PayloadWithoutAccounts,
			Accounts:               accounts,
		})
	case SchemeABI:
		body, err = abiBodyArgs.Pack(
			p.Message.CCID.Chain,
			p.Message.CCID.ID,
			p.Message.SourceAddress,
			p.Message.DestinationChain,
			p.Message.DestinationAddress,
			[32]byte(p.Message.PayloadHash),
			p.PayloadWithoutAccounts,
			encodeAccounts(p.Accounts),
		)
	default:
		return nil, gwerrors.Newf(gwerrors.CodeInputMalformed, "unknown encoding scheme %d", p.Scheme)
	}
	if err != nil {
		return nil, gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "failed to encode executable payload")
	}

	out := make([]byte, 0, len(CommandPrefix)+1+len(body))
	out = append(out, CommandPrefix...)
	out = append(out, byte(p.Scheme))
	out = append(out, body...)
	return out, nil
}

// Decode parses the wire form back into a Payload.
func Decode(raw []byte) (*Payload, error) {
	if len(raw) < len(CommandPrefix)+1 {
		return nil, gwerrors.New(gwerrors.CodeInputMalformed, "executable payload shorter than its header")
	}
	if !bytes.Equal(raw[:len(CommandPrefix)], []byte(CommandPrefix)) {
		return nil, gwerrors.New(gwerrors.CodeInputMalformed, "missing executable command prefix")
	}
	scheme := EncodingScheme(raw[len(CommandPrefix)])
	body := raw[len(CommandPrefix)+1:]

	switch scheme {
	case SchemeBorsh:
		var decoded borshBody
		if err := borsh.Deserialize(&decoded, body); err != nil {
			return nil, gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "borsh body does not parse")
		}
		accounts := make([]AccountRepr, len(decoded.Accounts))
		for i, a := range decoded.Accounts {
			accounts[i] = AccountRepr(a)
		}
		return &Payload{
			Message: types.Message{
				CCID:               types.CrossChainID{Chain: decoded.SourceChain, ID: decoded.MessageID},
				SourceAddress:      decoded.SourceAddress,
				DestinationChain:   decoded.DestinationChain,
				DestinationAddress: decoded.DestinationAddress,
				PayloadHash:        decoded.PayloadHash,
			},
			PayloadWithoutAccounts: decoded.PayloadWithoutAccounts,
			Accounts:               accounts,
			Scheme:                 SchemeBorsh,
		}, nil
	case SchemeABI:
		vals, err := abiBodyArgs.Unpack(body)
		if err != nil {
			return nil, gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "abi body does not parse")
		}
		accounts, err := decodeAccounts(vals[7].([]byte))
		if err != nil {
			return nil, gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "account descriptor block does not parse")
		}
		return &Payload{
			Message: types.Message{
				CCID:               types.CrossChainID{Chain: vals[0].(string), ID: vals[1].(string)},
				SourceAddress:      vals[2].(string),
				DestinationChain:   vals[3].(string),
				DestinationAddress: vals[4].(string),
				PayloadHash:        hasher.Hash(vals[5].([32]byte)),
			},
			PayloadWithoutAccounts: vals[6].([]byte),
			Accounts:               accounts,
			Scheme:                 SchemeABI,
		}, nil
	default:
		return nil, gwerrors.Newf(gwerrors.CodeInputMalformed, "unknown encoding scheme %d", scheme)
	}
}

// IsExecutablePayload reports whether raw starts with the command prefix.
func IsExecutablePayload(raw []byte) bool {
	return len(raw) >= len(CommandPrefix) && bytes.Equal(raw[:len(CommandPrefix)], []byte(CommandPrefix))
}
