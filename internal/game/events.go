package game

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/crocodiledundalk/fomolt3d/internal/types"
)

// eventDataPrefix marks program log lines that carry a base64 event payload.
const eventDataPrefix = "Program data: "

// Event is a decoded program event. Concrete types below mirror the
// program's emitted structs field for field.
type Event interface {
	EventType() types.EventTypes
}

type KeysPurchasedEvent struct {
	Round           uint64
	Player          solana.PublicKey
	IsAutomated     bool
	KeysBought      uint64
	TotalPlayerKeys uint64
	LamportsSpent   uint64
	PotContribution uint64
	Timestamp       int64
}

type ReferralEarnedEvent struct {
	Round            uint64
	Player           solana.PublicKey
	Referrer         solana.PublicKey
	KeysBought       uint64
	LamportsSpent    uint64
	ReferrerLamports uint64
	Timestamp        int64
}

type GameUpdatedEvent struct {
	Round        uint64
	PotLamports  uint64
	TotalKeys    uint64
	NextKeyPrice uint64
	LastBuyer    solana.PublicKey
	TimerEnd     int64
	WinnerPot    uint64
	NextRoundPot uint64
	Timestamp    int64
}

type ClaimedEvent struct {
	Round            uint64
	Player           solana.PublicKey
	DividendLamports uint64
	WinnerLamports   uint64
	TotalLamports    uint64
	Timestamp        int64
}

type ReferralClaimedEvent struct {
	Round     uint64
	Player    solana.PublicKey
	Lamports  uint64
	Timestamp int64
}

type RoundStartedEvent struct {
	Round                  uint64
	CarryOverLamports      uint64
	TimerEnd               int64
	BasePriceLamports      uint64
	PriceIncrementLamports uint64
	Timestamp              int64
}

type ProtocolFeeCollectedEvent struct {
	Round     uint64
	Lamports  uint64
	Recipient solana.PublicKey
	Timestamp int64
}

type RoundConcludedEvent struct {
	Round          uint64
	Winner         solana.PublicKey
	WinnerLamports uint64
	PotLamports    uint64
	TotalKeys      uint64
	TotalPlayers   uint32
	NextRoundPot   uint64
	RoundStart     int64
	RoundEnd       int64
	Timestamp      int64
}

func (KeysPurchasedEvent) EventType() types.EventTypes        { return types.EventKeysPurchasedType }
func (ReferralEarnedEvent) EventType() types.EventTypes       { return types.EventReferralEarnedType }
func (GameUpdatedEvent) EventType() types.EventTypes          { return types.EventGameUpdatedType }
func (ClaimedEvent) EventType() types.EventTypes              { return types.EventClaimedType }
func (ReferralClaimedEvent) EventType() types.EventTypes      { return types.EventReferralClaimedType }
func (RoundStartedEvent) EventType() types.EventTypes         { return types.EventRoundStartedType }
func (ProtocolFeeCollectedEvent) EventType() types.EventTypes { return types.EventProtocolFeeCollectedType }
func (RoundConcludedEvent) EventType() types.EventTypes       { return types.EventRoundConcludedType }

func eventDiscriminator(name types.EventTypes) [8]byte {
	sum := sha256.Sum256([]byte("event:" + string(name)))
	var disc [8]byte
	copy(disc[:], sum[:8])
	return disc
}

var eventDecoders = map[[8]byte]func(*bin.Decoder) (Event, error){
	eventDiscriminator(types.EventKeysPurchasedType):        decodeKeysPurchased,
	eventDiscriminator(types.EventReferralEarnedType):       decodeReferralEarned,
	eventDiscriminator(types.EventGameUpdatedType):          decodeGameUpdated,
	eventDiscriminator(types.EventClaimedType):              decodeClaimed,
	eventDiscriminator(types.EventReferralClaimedType):      decodeReferralClaimed,
	eventDiscriminator(types.EventRoundStartedType):         decodeRoundStarted,
	eventDiscriminator(types.EventProtocolFeeCollectedType): decodeProtocolFeeCollected,
	eventDiscriminator(types.EventRoundConcludedType):       decodeRoundConcluded,
}

// DecodeEvent parses a raw event payload: 8-byte discriminator followed by
// the borsh-encoded body. Unknown discriminators return
// types.ErrUnknownEvent so callers can skip foreign events without failing
// the batch.
func DecodeEvent(data []byte) (Event, error) {
	if len(data) < 8 {
		return nil, types.ErrUnknownEvent
	}
	var disc [8]byte
	copy(disc[:], data[:8])
	decode, ok := eventDecoders[disc]
	if !ok {
		return nil, types.ErrUnknownEvent
	}
	return decode(bin.NewBorshDecoder(data[8:]))
}

// LogEvent is one decoded event together with its position in the emitting
// transaction. Signature plus Index uniquely identify an emission and are
// the deduplication key.
type LogEvent struct {
	Signature solana.Signature
	Index     int
	Event     Event
}

// ParseEventsFromLogs extracts and decodes every program event carried in a
// transaction's log messages. Lines that are not event payloads, and events
// emitted by other programs sharing the transaction, are skipped.
func ParseEventsFromLogs(sig solana.Signature, logs []string) []LogEvent {
	var out []LogEvent
	idx := 0
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, eventDataPrefix)
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			continue
		}
		ev, err := DecodeEvent(raw)
		if err != nil {
			continue
		}
		out = append(out, LogEvent{Signature: sig, Index: idx, Event: ev})
		idx++
	}
	return out
}

func decodeKeysPurchased(dec *bin.Decoder) (Event, error) {
	var (
		ev  KeysPurchasedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Player, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.IsAutomated, err = dec.ReadBool(); err != nil {
		return nil, err
	}
	if ev.KeysBought, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TotalPlayerKeys, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.LamportsSpent, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.PotContribution, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeReferralEarned(dec *bin.Decoder) (Event, error) {
	var (
		ev  ReferralEarnedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Player, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.Referrer, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.KeysBought, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.LamportsSpent, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.ReferrerLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeGameUpdated(dec *bin.Decoder) (Event, error) {
	var (
		ev  GameUpdatedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.PotLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TotalKeys, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.NextKeyPrice, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.LastBuyer, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.TimerEnd, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if ev.WinnerPot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.NextRoundPot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeClaimed(dec *bin.Decoder) (Event, error) {
	var (
		ev  ClaimedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Player, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.DividendLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.WinnerLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TotalLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeReferralClaimed(dec *bin.Decoder) (Event, error) {
	var (
		ev  ReferralClaimedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Player, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.Lamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeRoundStarted(dec *bin.Decoder) (Event, error) {
	var (
		ev  RoundStartedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.CarryOverLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TimerEnd, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if ev.BasePriceLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.PriceIncrementLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeProtocolFeeCollected(dec *bin.Decoder) (Event, error) {
	var (
		ev  ProtocolFeeCollectedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Lamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Recipient, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeRoundConcluded(dec *bin.Decoder) (Event, error) {
	var (
		ev  RoundConcludedEvent
		err error
	)
	if ev.Round, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Winner, err = readPublicKey(dec); err != nil {
		return nil, err
	}
	if ev.WinnerLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.PotLamports, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TotalKeys, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.TotalPlayers, err = dec.ReadUint32(bin.LE); err != nil {
		return nil, err
	}
	if ev.NextRoundPot, err = dec.ReadUint64(bin.LE); err != nil {
		return nil, err
	}
	if ev.RoundStart, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if ev.RoundEnd, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	if ev.Timestamp, err = dec.ReadInt64(bin.LE); err != nil {
		return nil, err
	}
	return ev, nil
}
