// Copyright 2025 Certen Protocol
//
// Package gmp implements the ABI-compatible envelope the interchain token
// services exchange. The first 32-byte word is a big-endian selector; the
// variant's fields follow in ABI parameter encoding. ABI was chosen on the
// wire because EVM chains sit at the center of GMP traffic; everything here
// must stay bit-exact with those implementations.
package gmp

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"

	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
)

// Selectors, one per envelope variant.
const (
	SelectorInterchainTransfer    = 0
	SelectorDeployInterchainToken = 1
	SelectorDeployTokenManager    = 2
	SelectorSendToHub             = 3
	SelectorReceiveFromHub        = 4
	SelectorLinkToken             = 5
	SelectorRegisterTokenMetadata = 6
)

// Payload is one decoded envelope variant.
type Payload interface {
	// Selector returns the variant's wire selector.
	Selector() uint64
	// Encode produces the canonical ABI encoding, selector word included.
	Encode() ([]byte, error)
}

// InterchainTransfer moves amount of the token identified by TokenID. Sent
// only after the proper tokens have been procured by the service.
type InterchainTransfer struct {
	TokenID            [32]byte
	SourceAddress      []byte
	DestinationAddress []byte
	Amount             *big.Int
	Data               []byte
}

// DeployInterchainToken deploys a token on the destination chain under an
// already-claimed token id.
type DeployInterchainToken struct {
	TokenID  [32]byte
	Name     string
	Symbol   string
	Decimals uint8
	Minter   []byte
}

// DeployTokenManager registers a token manager on the destination chain.
type DeployTokenManager struct {
	TokenID          [32]byte
	TokenManagerType *big.Int
	Params           []byte
}

// SendToHub wraps an inner payload for routing through the hub chain.
type SendToHub struct {
	DestinationChain string
	Payload          []byte
}

// ReceiveFromHub unwraps a payload routed through the hub chain.
type ReceiveFromHub struct {
	SourceChain string
	Payload     []byte
}

// LinkToken links an existing custom token to a remote chain.
type LinkToken struct {
	TokenID                 [32]byte
	TokenManagerType        *big.Int
	SourceTokenAddress      []byte
	DestinationTokenAddress []byte
	Params                  []byte
}

// RegisterTokenMetadata records a token's decimals with the hub.
type RegisterTokenMetadata struct {
	TokenAddress []byte
	Decimals     uint8
}

// ABI argument lists, one per variant, selector word first.
var (
	typeUint256 = mustType("uint256")
	typeUint8   = mustType("uint8")
	typeBytes32 = mustType("bytes32")
	typeBytes   = mustType("bytes")
	typeString  = mustType("string")

	argsInterchainTransfer = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeBytes32}, // token id
		{Type: typeBytes},   // source address
		{Type: typeBytes},   // destination address
		{Type: typeUint256}, // amount
		{Type: typeBytes},   // data
	}
	argsDeployInterchainToken = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeBytes32}, // token id
		{Type: typeString},  // name
		{Type: typeString},  // symbol
		{Type: typeUint8},   // decimals
		{Type: typeBytes},   // minter
	}
	argsDeployTokenManager = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeBytes32}, // token id
		{Type: typeUint256}, // token manager type
		{Type: typeBytes},   // params
	}
	argsHubRouted = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeString},  // chain
		{Type: typeBytes},   // wrapped payload
	}
	argsLinkToken = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeBytes32}, // token id
		{Type: typeUint256}, // token manager type
		{Type: typeBytes},   // source token address
		{Type: typeBytes},   // destination token address
		{Type: typeBytes},   // params
	}
	argsRegisterTokenMetadata = abi.Arguments{
		{Type: typeUint256}, // selector
		{Type: typeBytes},   // token address
		{Type: typeUint8},   // decimals
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %q: %v", name, err))
	}
	return t
}

// Selector implements Payload.
func (*InterchainTransfer) Selector() uint64 { return SelectorInterchainTransfer }

// Encode implements Payload.
func (p *InterchainTransfer) Encode() ([]byte, error) {
	return argsInterchainTransfer.Pack(
		big.NewInt(SelectorInterchainTransfer), p.TokenID, p.SourceAddress,
		p.DestinationAddress, p.Amount, p.Data)
}

// Selector implements Payload.
func (*DeployInterchainToken) Selector() uint64 { return SelectorDeployInterchainToken }

// Encode implements Payload.
func (p *DeployInterchainToken) Encode() ([]byte, error) {
	return argsDeployInterchainToken.Pack(
		big.NewInt(SelectorDeployInterchainToken), p.TokenID, p.Name, p.Symbol,
		p.Decimals, p.Minter)
}

// Selector implements Payload.
func (*DeployTokenManager) Selector() uint64 { return SelectorDeployTokenManager }

// Encode implements Payload.
func (p *DeployTokenManager) Encode() ([]byte, error) {
	return argsDeployTokenManager.Pack(
		big.NewInt(SelectorDeployTokenManager), p.TokenID, p.TokenManagerType, p.Params)
}

// Selector implements Payload.
func (*SendToHub) Selector() uint64 { return SelectorSendToHub }

// Encode implements Payload.
func (p *SendToHub) Encode() ([]byte, error) {
	return argsHubRouted.Pack(big.NewInt(SelectorSendToHub), p.DestinationChain, p.Payload)
}

// Selector implements Payload.
func (*ReceiveFromHub) Selector() uint64 { return SelectorReceiveFromHub }

// Encode implements Payload.
func (p *ReceiveFromHub) Encode() ([]byte, error) {
	return argsHubRouted.Pack(big.NewInt(SelectorReceiveFromHub), p.SourceChain, p.Payload)
}

// Selector implements Payload.
func (*LinkToken) Selector() uint64 { return SelectorLinkToken }

// Encode implements Payload.
func (p *LinkToken) Encode() ([]byte, error) {
	return argsLinkToken.Pack(
		big.NewInt(SelectorLinkToken), p.TokenID, p.TokenManagerType,
		p.SourceTokenAddress, p.DestinationTokenAddress, p.Params)
}

// Selector implements Payload.
func (*RegisterTokenMetadata) Selector() uint64 { return SelectorRegisterTokenMetadata }

// Encode implements Payload.
func (p *RegisterTokenMetadata) Encode() ([]byte, error) {
	return argsRegisterTokenMetadata.Pack(
		big.NewInt(SelectorRegisterTokenMetadata), p.TokenAddress, p.Decimals)
}

// Decode parses an envelope into its variant. The selector is the first
// 32-byte big-endian word.
func Decode(raw []byte) (Payload, error) {
	if len(raw) < 32 {
		return nil, gwerrors.New(gwerrors.CodeInputMalformed, "gmp payload shorter than the selector word")
	}
	selector := new(big.Int).SetBytes(raw[:32])
	if !selector.IsUint64() {
		return nil, gwerrors.New(gwerrors.CodeInputMalformed, "gmp selector out of range")
	}

	switch selector.Uint64() {
	case SelectorInterchainTransfer:
		vals, err := argsInterchainTransfer.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &InterchainTransfer{
			TokenID:            vals[1].([32]byte),
			SourceAddress:      vals[2].([]byte),
			DestinationAddress: vals[3].([]byte),
			Amount:             vals[4].(*big.Int),
			Data:               vals[5].([]byte),
		}, nil
	case SelectorDeployInterchainToken:
		vals, err := argsDeployInterchainToken.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &DeployInterchainToken{
			TokenID:  vals[1].([32]byte),
			Name:     vals[2].(string),
			Symbol:   vals[3].(string),
			Decimals: vals[4].(uint8),
			Minter:   vals[5].([]byte),
		}, nil
	case SelectorDeployTokenManager:
		vals, err := argsDeployTokenManager.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &DeployTokenManager{
			TokenID:          vals[1].([32]byte),
			TokenManagerType: vals[2].(*big.Int),
			Params:           vals[3].([]byte),
		}, nil
	case SelectorSendToHub:
		vals, err := argsHubRouted.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &SendToHub{DestinationChain: vals[1].(string), Payload: vals[2].([]byte)}, nil
	case SelectorReceiveFromHub:
		vals, err := argsHubRouted.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &ReceiveFromHub{SourceChain: vals[1].(string), Payload: vals[2].([]byte)}, nil
	case SelectorLinkToken:
		vals, err := argsLinkToken.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &LinkToken{
			TokenID:                 vals[1].([32]byte),
			TokenManagerType:        vals[2].(*big.Int),
			SourceTokenAddress:      vals[3].([]byte),
			DestinationTokenAddress: vals[4].([]byte),
			Params:                  vals[5].([]byte),
		}, nil
	case SelectorRegisterTokenMetadata:
		vals, err := argsRegisterTokenMetadata.Unpack(raw)
		if err != nil {
			return nil, decodeErr(err)
		}
		return &RegisterTokenMetadata{
			TokenAddress: vals[1].([]byte),
			Decimals:     vals[2].(uint8),
		}, nil
	default:
		return nil, gwerrors.Newf(gwerrors.CodeInputMalformed, "unknown gmp selector %s", selector)
	}
}

func decodeErr(err error) error {
	return gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "gmp payload does not match its selector layout")
}
