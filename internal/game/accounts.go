// Package game holds the on-ledger account model of the key game: binary
// layouts, derived addresses, the round phase classifier and the participant
// status engine. Layouts must stay byte-for-byte in sync with the program's
// storage; the scan filter offset below depends on it.
package game

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the deployed program this engine reads.
var DefaultProgramID = solana.MustPublicKeyFromBase58("EebbWtjHyocWPwZaQ4k2L61mSdW6y175knsEwppTpdWw")

// Account sizes including the 8-byte account discriminator. Used as dataSize
// filters on bulk scans.
const (
	RoundStateSize        = 8 + 207
	ParticipantRecordSize = 8 + 107
	GlobalConfigSize      = 8 + 137
)

// ParticipantRoundOffset is the byte offset of the currentRound field inside
// a participant account: discriminator(8) + wallet(32) + keys(8). It is the
// memcmp offset for the by-round bulk scan and is pinned by a layout test.
const ParticipantRoundOffset = 48

// PDA seeds, matching the program's seed constants.
var (
	seedRound       = []byte("game")
	seedParticipant = []byte("player")
	seedConfig      = []byte("config")
	seedVault       = []byte("vault")
)

// FeeSnapshot is the immutable fee configuration captured into a round at
// start. In-flight calculations for a round use only this snapshot, never
// the live global config, so they stay self-consistent across admin edits.
type FeeSnapshot struct {
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

// RoundState mirrors the program's per-round account.
type RoundState struct {
	Round             uint64
	Pot               uint64
	TimerEnd          int64
	LastPurchaser     solana.PublicKey
	TotalKeys         uint64
	RoundStart        int64
	Active            bool
	WinnerClaimed     bool
	TotalParticipants uint32
	DividendPool      uint64
	CarryPot          uint64
	WinnerPot         uint64
	Fees              FeeSnapshot
	Bump              uint8
}

// ParticipantRecord mirrors the program's per-identity account. There is one
// record per wallet across all rounds; CurrentRound == 0 is the settled
// sentinel and Keys is meaningful only while CurrentRound matches the round
// it was set for.
type ParticipantRecord struct {
	Wallet                  solana.PublicKey
	Keys                    uint64
	CurrentRound            uint64
	ClaimedDividends        uint64
	Referrer                *solana.PublicKey
	ReferralEarnings        uint64
	ClaimedReferralEarnings uint64
	IsAutomated             bool
	Bump                    uint8
}

// UnclaimedReferral is the referral balance still sitting in the vault. The
// program keeps it as a standalone accumulator reset on claim, so no
// subtraction is needed here.
func (r *ParticipantRecord) UnclaimedReferral() uint64 {
	if r == nil {
		return 0
	}
	return r.ReferralEarnings
}

// GlobalConfig mirrors the program's admin-editable defaults. Rounds snapshot
// it at start; this engine reads it only for previews of a not-yet-started
// round and for admin operations.
type GlobalConfig struct {
	Admin              solana.PublicKey
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
	Bump               uint8
}

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var disc [8]byte
	copy(disc[:], sum[:8])
	return disc
}

// Discriminators use the program's own account names, not this package's.
var (
	roundStateDiscriminator        = accountDiscriminator("GameState")
	participantRecordDiscriminator = accountDiscriminator("PlayerState")
	globalConfigDiscriminator      = accountDiscriminator("GlobalConfig")
)

func checkDiscriminator(data []byte, want [8]byte, name string) error {
	if len(data) < 8 {
		return fmt.Errorf("%s account data too short: %d bytes", name, len(data))
	}
	var got [8]byte
	copy(got[:], data[:8])
	if got != want {
		return fmt.Errorf("%s account discriminator mismatch", name)
	}
	return nil
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	b, err := dec.ReadNBytes(32)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(b), nil
}

// DecodeRoundState parses a fetched round account.
func DecodeRoundState(data []byte) (*RoundState, error) {
	if err := checkDiscriminator(data, roundStateDiscriminator, "round state"); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data[8:])

	var (
		rs  RoundState
		err error
	)
	if rs.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rs.Pot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rs.TimerEnd, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if rs.LastPurchaser, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if rs.TotalKeys, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rs.RoundStart, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if rs.Active, err = dec.ReadBool(); err != nil {
		return nil, err
	}
	if rs.WinnerClaimed, err = dec.ReadBool(); err != nil {
		return nil, err
	}
	if rs.TotalParticipants, err = dec.ReadUint32(bin.LE); err != nil {
		return nil, err
	}
	if rs.DividendPool, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rs.CarryPot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rs.WinnerPot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if err = decodeFeeSnapshot(dec, &rs.Fees); err != nil {
		return nil, err
	}
	if rs.Bump, err = dec.ReadUint8(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func decodeFeeSnapshot(dec *bin.Decoder, fs *FeeSnapshot) error {
	var err error
	if fs.BasePrice, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.PriceIncrement, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.TimerExtensionSecs, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if fs.MaxTimerSecs, err = dec.ReadInt64(bin.LE); err != nil {
		return err
	}
	if fs.WinnerBps, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.DividendBps, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.CarryBps, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.ProtocolFeeBps, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.ReferralBonusBps, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if fs.ProtocolWallet, err = readPublicKey(dec); err != nil {
		return err
	}
	return nil
}

// DecodeParticipantRecord parses a fetched participant account. The referrer
// is an optional field on the wire (1-byte tag), so records without one are
// shorter than the allocated account size; trailing padding is ignored.
func DecodeParticipantRecord(data []byte) (*ParticipantRecord, error) {
	if err := checkDiscriminator(data, participantRecordDiscriminator, "participant"); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data[8:])

	var (
		rec ParticipantRecord
		err error
	)
	if rec.Wallet, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if rec.Keys, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rec.CurrentRound, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rec.ClaimedDividends, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	hasReferrer, err := dec.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasReferrer {
		ref, err := readPublicKey(dec)
		if err != nil {
			return nil, err
		}
		rec.Referrer = &ref
	}
	if rec.ReferralEarnings, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rec.ClaimedReferralEarnings, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if rec.IsAutomated, err = dec.ReadBool(); err != nil {
		return nil, err
	}
	if rec.Bump, err = dec.ReadUint8(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DecodeGlobalConfig parses the global config account.
func DecodeGlobalConfig(data []byte) (*GlobalConfig, error) {
	if err := checkDiscriminator(data, globalConfigDiscriminator, "global config"); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data[8:])

	var (
		cfg GlobalConfig
		err error
	)
	if cfg.Admin, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if cfg.BasePrice, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.PriceIncrement, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.TimerExtensionSecs, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.MaxTimerSecs, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.WinnerBps, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.DividendBps, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.CarryBps, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.ProtocolFeeBps, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.ReferralBonusBps, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if cfg.ProtocolWallet, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if cfg.Bump, err = dec.ReadUint8(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RoundLEBytes returns the little-endian round number used both as a PDA
// seed and as the memcmp pattern for the by-round participant scan.
func RoundLEBytes(round uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], round)
	return b[:]
}

// RoundStateAddress derives the round account PDA for a round number.
func RoundStateAddress(programID solana.PublicKey, round uint64) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedRound, RoundLEBytes(round)}, programID)
	return addr, err
}

// ParticipantAddress derives a wallet's participant account PDA.
func ParticipantAddress(programID, wallet solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedParticipant, wallet.Bytes()}, programID)
	return addr, err
}

// ConfigAddress derives the global config PDA.
func ConfigAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedConfig}, programID)
	return addr, err
}

// VaultAddress derives the vault PDA holding a round's funds, keyed by the
// round account's own address.
func VaultAddress(programID, roundState solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedVault, roundState.Bytes()}, programID)
	return addr, err
}
