// Package composer builds ordered, unsubmitted operation descriptors for
// ledger requests. Descriptors carry everything the external signing and
// submission layer needs: program id, ordered account metas and serialized
// instruction data. Nothing here talks to the network.
package composer

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

type OpKind string

const (
	OpPurchase             OpKind = "purchase"
	OpClaim                OpKind = "claim"
	OpClaimReferral        OpKind = "claim_referral"
	OpStartNextRound       OpKind = "start_next_round"
	OpInitializeFirstRound OpKind = "initialize_first_round"
	OpUpdateConfig         OpKind = "update_config"
)

func (k OpKind) String() string {
	return string(k)
}

// Operation is one ledger-mutating instruction plus the metadata the caller
// uses to render and order it.
type Operation struct {
	Kind        OpKind
	Round       uint64
	Instruction *solana.GenericInstruction
}

// ConfigParams are the admin-editable program parameters, in wire order.
type ConfigParams struct {
	BasePrice          uint64
	PriceIncrement     uint64
	TimerExtensionSecs int64
	MaxTimerSecs       int64
	WinnerBps          uint64
	DividendBps        uint64
	CarryBps           uint64
	ProtocolFeeBps     uint64
	ReferralBonusBps   uint64
	ProtocolWallet     solana.PublicKey
}

// Builder derives accounts and serializes instruction data for one program
// deployment.
type Builder struct {
	programID solana.PublicKey
}

func NewBuilder(programID solana.PublicKey) *Builder {
	return &Builder{programID: programID}
}

// instructionDiscriminator is the 8-byte method selector: the leading bytes
// of sha256("global:<method>").
func instructionDiscriminator(method string) []byte {
	sum := sha256.Sum256([]byte("global:" + method))
	return sum[:8]
}

func (b *Builder) roundAccounts(round uint64) (state, vault solana.PublicKey, err error) {
	state, err = game.RoundStateAddress(b.programID, round)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	vault, err = game.VaultAddress(b.programID, state)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return state, vault, nil
}

// Purchase builds the buy_keys instruction. The program self-initializes an
// absent or settled participant account, so the same instruction serves
// first purchases and repeat purchases. referrer is the referring wallet, or
// nil; when absent the program id fills the optional account slot, which is
// the convention the program's loader understands as "not provided".
func (b *Builder) Purchase(round uint64, buyer, protocolWallet solana.PublicKey, referrer *solana.PublicKey, keysToBuy uint64, isAutomated bool) (Operation, error) {
	state, vault, err := b.roundAccounts(round)
	if err != nil {
		return Operation{}, err
	}
	participant, err := game.ParticipantAddress(b.programID, buyer)
	if err != nil {
		return Operation{}, err
	}

	referrerAccount := b.programID
	if referrer != nil {
		referrerAccount, err = game.ParticipantAddress(b.programID, *referrer)
		if err != nil {
			return Operation{}, err
		}
	}

	buf := new(bytes.Buffer)
	buf.Write(instructionDiscriminator("buy_keys"))
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint64(keysToBuy, bin.LE); err != nil {
		return Operation{}, err
	}
	if err := enc.WriteBool(isAutomated); err != nil {
		return Operation{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(buyer, true, true),
		solana.NewAccountMeta(state, true, false),
		solana.NewAccountMeta(participant, true, false),
		solana.NewAccountMeta(vault, true, false),
		solana.NewAccountMeta(protocolWallet, true, false),
		solana.NewAccountMeta(referrerAccount, referrer != nil, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return Operation{
		Kind:        OpPurchase,
		Round:       round,
		Instruction: solana.NewInstruction(b.programID, accounts, buf.Bytes()),
	}, nil
}

// Claim builds the claim instruction settling dividends and, when the caller
// is the recorded last purchaser, the winner prize for the given round.
func (b *Builder) Claim(round uint64, player solana.PublicKey) (Operation, error) {
	op, err := b.settlementOp(round, player, "claim")
	if err != nil {
		return Operation{}, err
	}
	op.Kind = OpClaim
	return op, nil
}

// ClaimReferral builds the referral-earnings claim against a round's vault.
func (b *Builder) ClaimReferral(round uint64, player solana.PublicKey) (Operation, error) {
	op, err := b.settlementOp(round, player, "claim_referral_earnings")
	if err != nil {
		return Operation{}, err
	}
	op.Kind = OpClaimReferral
	return op, nil
}

// claim and claim_referral_earnings share their account shape.
func (b *Builder) settlementOp(round uint64, player solana.PublicKey, method string) (Operation, error) {
	state, vault, err := b.roundAccounts(round)
	if err != nil {
		return Operation{}, err
	}
	participant, err := game.ParticipantAddress(b.programID, player)
	if err != nil {
		return Operation{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(player, true, true),
		solana.NewAccountMeta(state, true, false),
		solana.NewAccountMeta(participant, true, false),
		solana.NewAccountMeta(vault, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return Operation{
		Round:       round,
		Instruction: solana.NewInstruction(b.programID, accounts, instructionDiscriminator(method)),
	}, nil
}

// StartNextRound builds the permissionless round rollover from prevRound to
// prevRound+1, carrying the accumulated next-round pot forward.
func (b *Builder) StartNextRound(prevRound uint64, payer solana.PublicKey) (Operation, error) {
	prevState, prevVault, err := b.roundAccounts(prevRound)
	if err != nil {
		return Operation{}, err
	}
	newState, newVault, err := b.roundAccounts(prevRound + 1)
	if err != nil {
		return Operation{}, err
	}
	configAddr, err := game.ConfigAddress(b.programID)
	if err != nil {
		return Operation{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(configAddr, false, false),
		solana.NewAccountMeta(prevState, true, false),
		solana.NewAccountMeta(newState, true, false),
		solana.NewAccountMeta(prevVault, true, false),
		solana.NewAccountMeta(newVault, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return Operation{
		Kind:        OpStartNextRound,
		Round:       prevRound + 1,
		Instruction: solana.NewInstruction(b.programID, accounts, instructionDiscriminator("start_new_round")),
	}, nil
}

// InitializeFirstRound builds the admin-only bootstrap of round 1.
func (b *Builder) InitializeFirstRound(admin solana.PublicKey) (Operation, error) {
	state, vault, err := b.roundAccounts(1)
	if err != nil {
		return Operation{}, err
	}
	configAddr, err := game.ConfigAddress(b.programID)
	if err != nil {
		return Operation{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(admin, true, true),
		solana.NewAccountMeta(configAddr, false, false),
		solana.NewAccountMeta(state, true, false),
		solana.NewAccountMeta(vault, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return Operation{
		Kind:        OpInitializeFirstRound,
		Round:       1,
		Instruction: solana.NewInstruction(b.programID, accounts, instructionDiscriminator("initialize_first_round")),
	}, nil
}

// UpdateConfig builds the admin create-or-update of the global fee
// configuration. Running rounds are unaffected: they keep their snapshot.
func (b *Builder) UpdateConfig(admin solana.PublicKey, params ConfigParams) (Operation, error) {
	configAddr, err := game.ConfigAddress(b.programID)
	if err != nil {
		return Operation{}, err
	}

	buf := new(bytes.Buffer)
	buf.Write(instructionDiscriminator("create_or_update_config"))
	enc := bin.NewBorshEncoder(buf)
	for _, v := range []uint64{params.BasePrice, params.PriceIncrement} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return Operation{}, err
		}
	}
	for _, v := range []int64{params.TimerExtensionSecs, params.MaxTimerSecs} {
		if err := enc.WriteInt64(v, bin.LE); err != nil {
			return Operation{}, err
		}
	}
	for _, v := range []uint64{params.WinnerBps, params.DividendBps, params.CarryBps, params.ProtocolFeeBps, params.ReferralBonusBps} {
		if err := enc.WriteUint64(v, bin.LE); err != nil {
			return Operation{}, err
		}
	}
	if err := enc.WriteBytes(params.ProtocolWallet.Bytes(), false); err != nil {
		return Operation{}, err
	}

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(admin, true, true),
		solana.NewAccountMeta(configAddr, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	return Operation{
		Kind:        OpUpdateConfig,
		Instruction: solana.NewInstruction(b.programID, accounts, buf.Bytes()),
	}, nil
}
