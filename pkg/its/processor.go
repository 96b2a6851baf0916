// Copyright 2025 Certen Protocol
//
// ITS processor: interchain transfer authorization riding on the gateway's
// approval pipeline. Token custody itself is delegated to an external
// custodian collaborator; this processor owns trust checks, flow accounting
// and the canonical transfer payloads.

package its

import (
	"math/big"

	"github.com/certen/gmp-gateway/pkg/addr"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/events"
	"github.com/certen/gmp-gateway/pkg/gateway"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/its/gmp"
	"github.com/certen/gmp-gateway/pkg/logging"
	"github.com/certen/gmp-gateway/pkg/metrics"
	"github.com/certen/gmp-gateway/pkg/types"
)

// TokenCustodian moves the actual tokens. The processor treats it as an
// opaque capability and never inspects its state.
type TokenCustodian interface {
	// GiveToken releases amount of the managed token to destination.
	GiveToken(tokenID hasher.Hash, manager *TokenManager, destination addr.Address, amount uint64) error
	// TakeToken collects amount of the managed token from source.
	TakeToken(tokenID hasher.Hash, manager *TokenManager, source addr.Address, amount uint64) error
}

// Processor executes ITS operations.
type Processor struct {
	store     *Store
	gw        *gateway.Processor
	clock     gateway.Clock
	custodian TokenCustodian
	emitter   *events.Emitter
	metrics   *metrics.Metrics
	logger    *logging.Logger

	// programAddress is this ITS deployment's own program address: the
	// destination of every inbound transfer message and the sender of every
	// outbound payload.
	programAddress addr.Address
}

// NewProcessor wires an ITS processor on top of a gateway processor.
func NewProcessor(
	store *Store,
	gw *gateway.Processor,
	clock gateway.Clock,
	custodian TokenCustodian,
	programAddress addr.Address,
	emitter *events.Emitter,
	m *metrics.Metrics,
	logger *logging.Logger,
) *Processor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		store:          store,
		gw:             gw,
		clock:          clock,
		custodian:      custodian,
		emitter:        emitter,
		metrics:        m,
		logger:         logger.WithComponent("its"),
		programAddress: programAddress,
	}
}

// Store exposes the underlying record store for read-only observation.
func (p *Processor) Store() *Store {
	return p.store
}

// Initialize creates the ITS root config. The chain name is immutable.
func (p *Processor) Initialize(chainName string, operator addr.Address, trustedChains map[string]string) error {
	existing, err := p.store.GetRoot()
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyInitialized
	}
	if chainName == "" {
		return gwerrors.New(gwerrors.CodeInputMalformed, "chain name is required")
	}

	trusted := make(map[string]string, len(trustedChains))
	for chain, remote := range trustedChains {
		trusted[chain] = remote
	}

	root := &RootConfig{
		ChainName:     chainName,
		TrustedChains: trusted,
		Operator:      operator,
	}
	return p.store.SetRoot(root)
}

// SetTrustedChain records the remote ITS address for a chain. Operator only.
func (p *Processor) SetTrustedChain(caller addr.Address, chain, remoteAddress string) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if caller != root.Operator {
		return ErrNotOperator
	}
	if chain == "" || remoteAddress == "" {
		return gwerrors.New(gwerrors.CodeInputMalformed, "chain and remote address are required")
	}
	if root.TrustedChains == nil {
		root.TrustedChains = make(map[string]string)
	}
	root.TrustedChains[chain] = remoteAddress
	return p.store.SetRoot(root)
}

// RemoveTrustedChain drops a chain from the trusted set. Operator only.
func (p *Processor) RemoveTrustedChain(caller addr.Address, chain string) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if caller != root.Operator {
		return ErrNotOperator
	}
	delete(root.TrustedChains, chain)
	return p.store.SetRoot(root)
}

// SetPaused flips the pause flag. Operator only.
func (p *Processor) SetPaused(caller addr.Address, paused bool) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if caller != root.Operator {
		return ErrNotOperator
	}
	root.Paused = paused
	return p.store.SetRoot(root)
}

// RegisterCustomToken claims the canonical token id for (deployer, salt) and
// records the token manager for an existing mint. The manager type is
// immutable afterwards.
func (p *Processor) RegisterCustomToken(
	deployer addr.Address,
	salt [32]byte,
	tokenAddress addr.Address,
	managerType TokenManagerType,
	operator *addr.Address,
) (hasher.Hash, error) {
	root, err := p.requireRoot()
	if err != nil {
		return hasher.Hash{}, err
	}
	if root.Paused {
		return hasher.Hash{}, ErrPaused
	}
	if !managerType.Valid() {
		return hasher.Hash{}, gwerrors.New(gwerrors.CodeInputMalformed, "unknown token manager type")
	}

	tokenID := InterchainTokenID(deployer, salt)

	existing, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return hasher.Hash{}, err
	}
	if existing != nil {
		return hasher.Hash{}, ErrTokenManagerExists
	}

	_, bump, err := TokenManagerAddress(tokenID)
	if err != nil {
		return hasher.Hash{}, err
	}
	tm := &TokenManager{
		TokenID:      tokenID,
		Type:         managerType,
		TokenAddress: tokenAddress,
		Bump:         bump,
	}
	tm.GrantRole(deployer, RoleOperator|RoleFlowLimiter)
	if operator != nil {
		tm.GrantRole(*operator, RoleOperator|RoleFlowLimiter)
	}
	if err := p.store.SetTokenManager(tm); err != nil {
		return hasher.Hash{}, err
	}

	if p.emitter != nil {
		_ = p.emitter.Emit(&events.InterchainTokenIDClaimed{
			TokenID:  tokenID,
			Deployer: deployer,
			Salt:     salt,
		})
	}
	return tokenID, nil
}

// LinkToken starts linking a registered custom token to a remote chain by
// sending a LinkToken payload through the gateway.
func (p *Processor) LinkToken(
	caller addr.Address,
	tokenID hasher.Hash,
	destinationChain string,
	destinationTokenAddress []byte,
	params []byte,
) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if root.Paused {
		return ErrPaused
	}

	tm, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return err
	}
	if tm == nil {
		return ErrTokenManagerNotFound
	}
	if !tm.HasRole(caller, RoleOperator) {
		return ErrNotTokenOperator
	}
	if destinationChain == root.ChainName {
		return ErrLocalDestinationChain
	}
	remote, ok := root.TrustedAddress(destinationChain)
	if !ok {
		return ErrUnknownDestination
	}
	if len(destinationTokenAddress) == 0 {
		return gwerrors.New(gwerrors.CodeInputMalformed, "destination token address is required")
	}

	payload := &gmp.LinkToken{
		TokenID:                 tokenID,
		TokenManagerType:        big.NewInt(int64(tm.Type)),
		SourceTokenAddress:      tm.TokenAddress.Bytes(),
		DestinationTokenAddress: destinationTokenAddress,
		Params:                  params,
	}
	encoded, err := payload.Encode()
	if err != nil {
		return gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "failed to encode link payload")
	}
	if err := p.gw.CallContract(p.programAddress, destinationChain, remote, encoded); err != nil {
		return err
	}

	if p.emitter != nil {
		_ = p.emitter.Emit(&events.LinkTokenStarted{
			TokenID:                 tokenID,
			DestinationChain:        destinationChain,
			SourceTokenAddress:      tm.TokenAddress,
			DestinationTokenAddress: destinationTokenAddress,
			TokenManagerType:        uint8(tm.Type),
			Params:                  params,
		})
	}
	return nil
}

// HandoverMintAuthority grants the caller the minter role for a token after
// verifying the supplied mint really is the token recorded for that id.
// Passing a foreign mint alongside another user's token id must fail: that
// is the guard against stealing minter rights on a victim's token.
func (p *Processor) HandoverMintAuthority(caller addr.Address, tokenID hasher.Hash, mint addr.Address) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if root.Paused {
		return ErrPaused
	}

	tm, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return err
	}
	if tm == nil {
		return ErrTokenManagerNotFound
	}
	if tm.TokenAddress != mint {
		return ErrMintMismatch
	}

	tm.GrantRole(caller, RoleMinter)
	return p.store.SetTokenManager(tm)
}

// SetFlowLimit updates a token's flow limit. Allowed for the ITS operator
// and for holders of the flow-limiter role on the token manager.
func (p *Processor) SetFlowLimit(caller addr.Address, tokenID hasher.Hash, flowLimit uint64) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}

	tm, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return err
	}
	if tm == nil {
		return ErrTokenManagerNotFound
	}
	if caller != root.Operator && !tm.HasRole(caller, RoleFlowLimiter) {
		return ErrNotTokenOperator
	}

	tm.FlowLimit = flowLimit
	return p.store.SetTokenManager(tm)
}

// InterchainTransfer authorizes an outbound transfer: trust and flow checks,
// token collection through the custodian, then the canonical payload handed
// to the gateway as an opaque contract call. The payload embeds the sender
// so destination chains can attribute the transfer.
func (p *Processor) InterchainTransfer(
	sender addr.Address,
	tokenID hasher.Hash,
	destinationChain string,
	destinationAddress []byte,
	amount uint64,
	data []byte,
) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if root.Paused {
		return ErrPaused
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if destinationChain == root.ChainName {
		return ErrLocalDestinationChain
	}
	remote, ok := root.TrustedAddress(destinationChain)
	if !ok {
		return ErrUnknownDestination
	}
	if len(destinationAddress) == 0 {
		return gwerrors.New(gwerrors.CodeInputMalformed, "destination address is required")
	}

	tm, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return err
	}
	if tm == nil {
		return ErrTokenManagerNotFound
	}

	if err := p.applyFlow(tm, amount, FlowOut); err != nil {
		return err
	}

	if p.custodian != nil {
		if err := p.custodian.TakeToken(tokenID, tm, sender, amount); err != nil {
			return gwerrors.Wrap(err, gwerrors.CodePreconditionFailed, "token custodian refused collection")
		}
	}

	payload := &gmp.InterchainTransfer{
		TokenID:            tokenID,
		SourceAddress:      sender.Bytes(),
		DestinationAddress: destinationAddress,
		Amount:             new(big.Int).SetUint64(amount),
		Data:               data,
	}
	encoded, err := payload.Encode()
	if err != nil {
		return gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "failed to encode transfer payload")
	}
	if err := p.gw.CallContract(p.programAddress, destinationChain, remote, encoded); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.TransfersSent.Inc()
	}
	if p.emitter != nil {
		_ = p.emitter.Emit(&events.InterchainTransferSent{
			TokenID:            tokenID,
			SourceAddress:      sender,
			DestinationChain:   destinationChain,
			DestinationAddress: destinationAddress,
			Amount:             amount,
			DataHash:           hasher.Keccak256(data),
		})
	}
	return nil
}

// ExecuteInbound consumes an approved gateway message addressed to the ITS
// program, dispatching on the payload selector: transfers apply flow
// accounting and release tokens, deploys install the token manager for a
// remote-initiated interchain token, and hub-routed payloads are unwrapped
// and re-dispatched under their original source chain.
func (p *Processor) ExecuteInbound(msg *types.Message, payload []byte, signingPDA addr.Address) error {
	root, err := p.requireRoot()
	if err != nil {
		return err
	}
	if root.Paused {
		return ErrPaused
	}

	if hasher.Keccak256(payload) != msg.PayloadHash {
		return gwerrors.New(gwerrors.CodeIntegrityFailed, "payload does not hash to the approved payload hash")
	}

	remote, ok := root.TrustedAddress(msg.CCID.Chain)
	if !ok {
		return ErrUntrustedSourceChain
	}
	if msg.SourceAddress != remote {
		return ErrUntrustedSourceAddr
	}

	decoded, err := gmp.Decode(payload)
	if err != nil {
		return err
	}

	switch inner := decoded.(type) {
	case *gmp.InterchainTransfer:
		return p.inboundTransfer(msg, inner, signingPDA)
	case *gmp.DeployInterchainToken:
		return p.inboundDeploy(msg, inner, signingPDA)
	case *gmp.ReceiveFromHub:
		// The wrapper arrives from the hub; the inner payload belongs to the
		// original source chain, which must itself be trusted.
		if _, ok := root.TrustedAddress(inner.SourceChain); !ok {
			return ErrUntrustedSourceChain
		}
		unwrapped, err := gmp.Decode(inner.Payload)
		if err != nil {
			return err
		}
		transfer, ok := unwrapped.(*gmp.InterchainTransfer)
		if !ok {
			return gwerrors.Newf(gwerrors.CodeInputMalformed, "unsupported hub-routed selector %d", unwrapped.Selector())
		}
		return p.inboundTransfer(msg, transfer, signingPDA)
	default:
		return gwerrors.Newf(gwerrors.CodeInputMalformed, "unsupported inbound payload selector %d", decoded.Selector())
	}
}

// ExecuteInboundTransfer consumes an approved message that must carry a
// plain InterchainTransfer payload.
func (p *Processor) ExecuteInboundTransfer(msg *types.Message, payload []byte, signingPDA addr.Address) error {
	if decoded, err := gmp.Decode(payload); err == nil {
		if _, ok := decoded.(*gmp.InterchainTransfer); !ok {
			return gwerrors.Newf(gwerrors.CodeInputMalformed, "expected an InterchainTransfer payload, got selector %d", decoded.Selector())
		}
	}
	return p.ExecuteInbound(msg, payload, signingPDA)
}

// inboundTransfer validates the message through the gateway handshake,
// applies flow accounting and delegates the token release to the custodian.
func (p *Processor) inboundTransfer(msg *types.Message, transfer *gmp.InterchainTransfer, signingPDA addr.Address) error {
	if transfer.Amount == nil || transfer.Amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if !transfer.Amount.IsUint64() {
		return gwerrors.New(gwerrors.CodeInputMalformed, "transfer amount does not fit the local token amount range")
	}
	amount := transfer.Amount.Uint64()

	if len(transfer.DestinationAddress) != 32 {
		return gwerrors.New(gwerrors.CodeInputMalformed, "destination address must be a 32-byte local address")
	}
	destination := addr.FromBytes(transfer.DestinationAddress)

	tm, err := p.store.GetTokenManager(hasher.FromBytes(transfer.TokenID[:]))
	if err != nil {
		return err
	}
	if tm == nil {
		return ErrTokenManagerNotFound
	}

	// The validate handshake flips the message to Consumed; everything after
	// it must succeed or the whole transaction aborts with it.
	if err := p.gw.ValidateMessage(msg, p.programAddress, signingPDA); err != nil {
		return err
	}

	if err := p.applyFlow(tm, amount, FlowIn); err != nil {
		return err
	}

	if p.custodian != nil {
		if err := p.custodian.GiveToken(tm.TokenID, tm, destination, amount); err != nil {
			return gwerrors.Wrap(err, gwerrors.CodePreconditionFailed, "token custodian refused release")
		}
	}

	if p.metrics != nil {
		p.metrics.TransfersReceived.Inc()
	}
	if p.emitter != nil {
		_ = p.emitter.Emit(&events.InterchainTransferReceived{
			CommandID:          msg.CommandID(),
			TokenID:            tm.TokenID,
			SourceAddress:      transfer.SourceAddress,
			DestinationAddress: destination,
			Amount:             amount,
			DataHash:           hasher.Keccak256(transfer.Data),
		})
	}
	return nil
}

// inboundDeploy installs the token manager for an interchain token deployed
// from a remote chain. The token id was claimed on the source chain; the
// local token address is derived from it.
func (p *Processor) inboundDeploy(msg *types.Message, deploy *gmp.DeployInterchainToken, signingPDA addr.Address) error {
	tokenID := hasher.FromBytes(deploy.TokenID[:])

	existing, err := p.store.GetTokenManager(tokenID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrTokenManagerExists
	}

	if err := p.gw.ValidateMessage(msg, p.programAddress, signingPDA); err != nil {
		return err
	}

	tokenAddress, _, err := addr.Derive(addr.SeedInterchainToken, tokenID[:])
	if err != nil {
		return err
	}
	_, bump, err := TokenManagerAddress(tokenID)
	if err != nil {
		return err
	}
	tm := &TokenManager{
		TokenID:      tokenID,
		Type:         NativeInterchainToken,
		TokenAddress: tokenAddress,
		Bump:         bump,
	}
	if len(deploy.Minter) == 32 {
		tm.GrantRole(addr.FromBytes(deploy.Minter), RoleMinter|RoleOperator|RoleFlowLimiter)
	}
	return p.store.SetTokenManager(tm)
}

// ====== internal helpers ======

func (p *Processor) requireRoot() (*RootConfig, error) {
	root, err := p.store.GetRoot()
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrNotInitialized
	}
	return root, nil
}

// applyFlow enforces the net-flow rule for one transfer. With a zero limit
// the transfer is unconstrained and no state is written.
func (p *Processor) applyFlow(tm *TokenManager, amount uint64, direction FlowDirection) error {
	if tm.FlowLimit == 0 {
		return nil
	}

	epoch, err := FlowEpoch(p.clock.UnixTimestamp())
	if err != nil {
		return err
	}

	slot, err := p.store.GetFlowSlot(tm.TokenID, epoch)
	if err != nil {
		return err
	}
	if slot == nil {
		_, bump, err := FlowSlotAddress(tm.TokenID, epoch)
		if err != nil {
			return err
		}
		slot, err = NewFlowSlot(tm.TokenID, epoch, tm.FlowLimit, 0, 0, bump)
		if err != nil {
			return err
		}
	}

	if err := slot.AddFlow(tm.FlowLimit, amount, direction); err != nil {
		if p.metrics != nil && gwerrors.IsCode(err, gwerrors.CodePolicyFailed) {
			p.metrics.FlowDenials.WithLabelValues(direction.String()).Inc()
		}
		return err
	}
	return p.store.SetFlowSlot(slot)
}
